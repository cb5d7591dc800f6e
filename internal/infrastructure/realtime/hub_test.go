package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHubServer serves websocket connections that join the room of the
// ?user= query parameter, plus the admin room when ?admin=1.
func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		user := r.URL.Query().Get("user")
		rooms := []string{UserRoom(user)}
		if r.URL.Query().Get("admin") == "1" {
			rooms = append(rooms, AdminRoom)
		}
		hub.Attach(conn, user, rooms...)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(msg, &f))
	return f
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_EmitToUser_OnlyThatUser(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	alice := dial(t, srv, "user=alice")
	bob := dial(t, srv, "user=bob")
	require.Eventually(t, func() bool { return hub.Connections() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.EmitToUser(context.Background(), "alice", EventNotificationNew, map[string]string{"title": "hi"}))

	f := readFrame(t, alice)
	assert.Equal(t, EventNotificationNew, f.Event)
	assert.Equal(t, map[string]any{"title": "hi"}, f.Data)
	expectSilence(t, bob)
}

func TestHub_Broadcast_ReachesEveryone(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	a := dial(t, srv, "user=a")
	b := dial(t, srv, "user=b&admin=1")
	require.Eventually(t, func() bool { return hub.Connections() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(context.Background(), EventAnnouncementDeleted, "ann-1"))

	assert.Equal(t, EventAnnouncementDeleted, readFrame(t, a).Event)
	fb := readFrame(t, b)
	assert.Equal(t, EventAnnouncementDeleted, fb.Event)
	assert.Equal(t, "ann-1", fb.Data)
}

func TestHub_Deliver_AdminRoom(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	user := dial(t, srv, "user=u")
	admin := dial(t, srv, "user=root&admin=1")
	require.Eventually(t, func() bool { return hub.Connections() == 2 }, 2*time.Second, 10*time.Millisecond)

	msg, err := encodeFrame(EventRegistrationStatus, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Deliver(AdminRoom, msg))

	assert.Equal(t, EventRegistrationStatus, readFrame(t, admin).Event)
	expectSilence(t, user)
}

func TestHub_EmitToOfflineUser_IsNoop(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.EmitToUser(context.Background(), "nobody", EventNotificationNew, nil))
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	conn := dial(t, srv, "user=gone")
	require.Eventually(t, func() bool { return hub.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	dial(t, srv, "user=x")
	require.Eventually(t, func() bool { return hub.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Connections())
}
