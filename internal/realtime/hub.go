package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Event is the frame written to subscribed sockets.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	userID primitive.ObjectID
	conn   *websocket.Conn
	send   chan Event
}

// Hub tracks open notification sockets per user. A user may hold several
// sockets (one per tab or device).
type Hub struct {
	mu      sync.RWMutex
	clients map[primitive.ObjectID]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[primitive.ObjectID]map[*client]struct{})}
}

// Serve registers conn for userID and blocks until the socket closes.
func (h *Hub) Serve(userID primitive.ObjectID, conn *websocket.Conn) {
	c := &client{userID: userID, conn: conn, send: make(chan Event, sendBuffer)}
	h.add(c)
	logrus.WithField("user_id", userID.Hex()).Info("Notification socket connected")

	done := make(chan struct{})
	go func() {
		h.writeLoop(c, done)
	}()
	h.readLoop(c)

	h.remove(c)
	close(done)
	logrus.WithField("user_id", userID.Hex()).Info("Notification socket disconnected")
}

// Publish queues an event for every socket of userID and reports how many
// sockets accepted it. Full buffers drop the event.
func (h *Hub) Publish(userID primitive.ObjectID, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- event:
			delivered++
		default:
			logrus.WithField("user_id", userID.Hex()).Warn("Notification socket buffer full, dropping event")
		}
	}
	return delivered
}

// Connections returns the number of open sockets for userID.
func (h *Hub) Connections(userID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[c.userID], c)
	if len(h.clients[c.userID]) == 0 {
		delete(h.clients, c.userID)
	}
}

// readLoop discards client frames; it exists to process pongs and detect close.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-done:
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				logrus.WithError(err).WithField("user_id", c.userID.Hex()).Debug("Notification socket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
