package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dias221467/Prayer_Manager/internal/config"
	"github.com/Dias221467/Prayer_Manager/internal/models"
	"github.com/Dias221467/Prayer_Manager/internal/realtime"
	"github.com/Dias221467/Prayer_Manager/internal/services"
	jwtutil "github.com/Dias221467/Prayer_Manager/pkg/jwt"
	"github.com/Dias221467/Prayer_Manager/pkg/middleware"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

// newTestRouter wires handlers over services without stores. Every request
// sent by these tests is rejected before a store would be reached.
func newTestRouter() http.Handler {
	return newTestRouterWithHub(realtime.NewHub())
}

func newTestRouterWithHub(hub *realtime.Hub) http.Handler {
	cfg := &config.Config{JWTSecret: testSecret, TokenExpiry: time.Hour}

	memberships := services.NewMembershipService(nil, nil)
	devices := services.NewDeviceService(nil, nil, 1, "")
	notifications := services.NewNotificationService(nil, devices, nil)
	fanout := services.NewFanoutService(memberships, nil, notifications)

	return NewRouter(Router{
		Users:          NewUserHandler(services.NewUserService(nil), cfg),
		Groups:         NewGroupHandler(services.NewGroupService(nil, nil, nil), memberships),
		PrayerRequests: NewPrayerRequestHandler(services.NewPrayerRequestService(nil, nil, memberships, fanout, nil)),
		Notifications:  NewNotificationHandler(notifications),
		Devices:        NewDeviceHandler(devices, "BPublicKey"),
		Reminders:      NewReminderHandler(services.NewReminderService(nil, notifications)),
		Stream:         NewNotificationStreamHandler(hub, testSecret, nil),
	}, testSecret)
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := jwtutil.GenerateToken(primitive.NewObjectID().Hex(), "ann@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) (*httptest.ResponseRecorder, models.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", bearer(t))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp models.Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestRoutesRequireToken(t *testing.T) {
	h := newTestRouter()

	for _, path := range []string{"/prayer-requests", "/notifications", "/devices", "/reminders", "/groups/abc"} {
		rec, _ := do(t, h, http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/reminders", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidIDIsBadRequest(t *testing.T) {
	h := newTestRouter()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/prayer-requests/not-hex"},
		{http.MethodDelete, "/prayer-requests/not-hex"},
		{http.MethodGet, "/prayer-requests/not-hex/shares"},
		{http.MethodGet, "/users/not-hex"},
		{http.MethodGet, "/users/not-hex/prayer-requests"},
		{http.MethodDelete, "/reminders/not-hex"},
		{http.MethodPost, "/notifications/not-hex/read"},
	}
	for _, tc := range cases {
		rec, resp := do(t, h, tc.method, tc.path, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.path)
		assert.False(t, resp.Success, tc.path)
		assert.Equal(t, "Invalid ID format", resp.Message, tc.path)
	}
}

func TestValidationErrorsAreBadRequest(t *testing.T) {
	h := newTestRouter()

	cases := []struct {
		name string
		path string
		body string
	}{
		{"empty request text", "/prayer-requests", `{"text":"  "}`},
		{"public mixed with group", "/prayer-requests", `{"text":"pray","shares":["public","group:` + primitive.NewObjectID().Hex() + `"]}`},
		{"unknown share target", "/prayer-requests", `{"text":"pray","shares":["friends"]}`},
		{"reminder without title", "/reminders", `{"time":"08:00"}`},
		{"reminder with bad time", "/reminders", `{"title":"Morning","time":"8am"}`},
		{"weekly reminder without day", "/reminders", `{"title":"Sabbath","time":"08:00","frequency":"WEEKLY"}`},
		{"subscription without keys", "/devices/subscribe", `{"subscription":{"endpoint":"https://push.example/1"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, tc.path, tc.body, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, "validation failed")
		})
	}
}

func TestCreateUserRejectsBadInput(t *testing.T) {
	h := newTestRouter()

	rec, resp := do(t, h, http.MethodPost, "/users", `{`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request payload", resp.Message)

	rec, resp = do(t, h, http.MethodPost, "/users", `{"name":"Ann","email":"not-an-email"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "invalid email format")
}

func TestVAPIDPublicKeyIsPublic(t *testing.T) {
	h := newTestRouter()

	rec, resp := do(t, h, http.MethodGet, "/push/vapid-public-key", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{"publicKey": "BPublicKey"}, resp.Data)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/push/vapid-public-key", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}

func TestNotificationStreamRejectsBadTokens(t *testing.T) {
	h := newTestRouter()

	rec, _ := do(t, h, http.MethodGet, "/ws/notifications", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/ws/notifications?token=garbage", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationStreamUpgradesThroughRouter(t *testing.T) {
	hub := realtime.NewHub()
	srv := httptest.NewServer(newTestRouterWithHub(hub))
	defer srv.Close()

	userID := primitive.NewObjectID()
	token, err := jwtutil.GenerateToken(userID.Hex(), "ann@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return hub.Connections(userID) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.Publish(userID, realtime.Event{Type: "notification", Data: "hello"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev realtime.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "notification", ev.Type)
	assert.Equal(t, "hello", ev.Data)
}

func TestTestPushRejectsMalformedBody(t *testing.T) {
	h := newTestRouter()

	rec, resp := do(t, h, http.MethodPost, "/devices/test", `{"endpoint":`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request payload", resp.Message)
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{services.ErrInvalidID, http.StatusBadRequest, "Invalid ID format"},
		{services.ErrAlreadyMember, http.StatusBadRequest, "already a member of this group"},
		{services.ErrNotFound, http.StatusNotFound, "Not found"},
		{services.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{errors.New("connection reset"), http.StatusInternalServerError, "Failed to do it"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "Failed to do it")

		var resp models.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.message, resp.Message)
		assert.False(t, resp.Success)
	}
}

func TestCurrentUserWithoutClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := currentUser(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), &jwtutil.Claims{UserID: "abc"}))
	id, ok := currentUser(httptest.NewRecorder(), req)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
