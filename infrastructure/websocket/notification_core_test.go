package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/websocket"
	"github.com/stretchr/testify/require"
)

func startCore(t *testing.T) (*websocket.NotificationCore, *httptest.Server) {
	t.Helper()

	log := logger.NewNop()
	core := websocket.NewNotificationCore(log)
	ctx, cancel := context.WithCancel(context.Background())
	go core.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := core.Upgrade(w, r)
		if err != nil {
			return
		}
		client := websocket.NewNotificationClient(conn, r.URL.Query().Get("user"), log)
		if !core.RegisterClient(client) {
			conn.Close()
			return
		}
		go client.WriteMessage()
		go client.ReadMessage(core)
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return core, srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNotifyUserDeliversToConnectedClient(t *testing.T) {
	core, srv := startCore(t)
	conn := dial(t, srv, "alice")

	require.Eventually(t, func() bool { return core.IsConnected("alice") }, time.Second, 10*time.Millisecond)

	msg := websocket.NewNotificationMessage("room_started", "alice", map[string]any{"room_id": "r1"})
	require.True(t, core.NotifyUser("alice", msg))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got websocket.NotificationMessage
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "room_started", got.Type)
	require.Equal(t, "alice", got.UserID)
	require.Equal(t, "r1", got.Data["room_id"])
}

func TestNotifyUserReportsMissingClient(t *testing.T) {
	core, _ := startCore(t)
	require.False(t, core.NotifyUser("nobody", websocket.NewNotificationMessage("room_expired", "nobody", nil)))
}

func TestClosedConnectionIsUnregistered(t *testing.T) {
	core, srv := startCore(t)
	conn := dial(t, srv, "bob")
	require.Eventually(t, func() bool { return core.IsConnected("bob") }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(gorilla.CloseMessage,
		gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return !core.IsConnected("bob") }, 2*time.Second, 10*time.Millisecond)
}

func TestClientsDrainAfterCoreStops(t *testing.T) {
	log := logger.NewNop()
	core := websocket.NewNotificationCore(log)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		core.Run(ctx)
		close(stopped)
	}()

	readerDone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := core.Upgrade(w, r)
		if err != nil {
			return
		}
		client := websocket.NewNotificationClient(conn, "carol", log)
		if !core.RegisterClient(client) {
			conn.Close()
			return
		}
		go client.WriteMessage()
		go func() {
			client.ReadMessage(core)
			close(readerDone)
		}()
	}))
	t.Cleanup(srv.Close)

	dial(t, srv, "carol")
	require.Eventually(t, func() bool { return core.IsConnected("carol") }, time.Second, 10*time.Millisecond)

	cancel()
	<-stopped

	select {
	case <-readerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("reader still blocked after the core stopped")
	}

	require.False(t, core.RegisterClient(websocket.NewNotificationClient(nil, "dave", log)))
}
