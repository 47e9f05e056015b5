package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func startHub(t *testing.T, userID primitive.ObjectID) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(userID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Connections(userID) == 1 }, time.Second, 10*time.Millisecond)
	return hub, conn
}

func TestHubPublishReachesSocket(t *testing.T) {
	userID := primitive.NewObjectID()
	hub, conn := startHub(t, userID)

	n := hub.Publish(userID, Event{Type: "notification", Data: map[string]string{"title": "New prayer request"}})
	assert.Equal(t, 1, n)

	var got Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "notification", got.Type)
	assert.Equal(t, "New prayer request", got.Data.(map[string]interface{})["title"])
}

func TestHubPublishOtherUser(t *testing.T) {
	userID := primitive.NewObjectID()
	hub, _ := startHub(t, userID)

	assert.Equal(t, 0, hub.Publish(primitive.NewObjectID(), Event{Type: "notification"}))
}

func TestHubUnregistersOnClose(t *testing.T) {
	userID := primitive.NewObjectID()
	hub, conn := startHub(t, userID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connections(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}
