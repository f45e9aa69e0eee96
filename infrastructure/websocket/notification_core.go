package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/trio/infrastructure/logger"
	"go.uber.org/zap"
)

// NotificationCore keeps one notification stream per user. A newer connection
// from the same user replaces the previous one.
type NotificationCore struct {
	clients    map[string]*NotificationClient // userID -> client
	register   chan *NotificationClient
	unregister chan *NotificationClient
	done       chan struct{} // closed once Run has returned
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

func NewNotificationCore(logger *logger.Logger) *NotificationCore {
	return &NotificationCore{
		clients:    make(map[string]*NotificationClient),
		register:   make(chan *NotificationClient),
		unregister: make(chan *NotificationClient),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

func (nc *NotificationCore) Run(ctx context.Context) {
	defer close(nc.done)
	defer nc.cleanup()

	for {
		select {
		case <-ctx.Done():
			nc.logger.Info("notification core shutting down")
			return

		case client := <-nc.register:
			nc.mu.Lock()
			if existing, ok := nc.clients[client.UserID]; ok {
				close(existing.send)
			}
			nc.clients[client.UserID] = client
			total := len(nc.clients)
			nc.mu.Unlock()
			nc.logger.Debug("user registered for notifications",
				zap.String("user_id", client.UserID),
				zap.Int("total", total),
			)

		case client := <-nc.unregister:
			nc.mu.Lock()
			// a replaced client must not evict its successor
			if current, ok := nc.clients[client.UserID]; ok && current == client {
				delete(nc.clients, client.UserID)
				close(client.send)
			}
			total := len(nc.clients)
			nc.mu.Unlock()
			nc.logger.Debug("user unregistered from notifications",
				zap.String("user_id", client.UserID),
				zap.Int("total", total),
			)
		}
	}
}

// NotifyUser queues message for userID and reports whether it was accepted.
func (nc *NotificationCore) NotifyUser(userID string, message *NotificationMessage) bool {
	nc.mu.RLock()
	defer nc.mu.RUnlock()

	client, ok := nc.clients[userID]
	if !ok {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		nc.logger.Warn("notification dropped, channel full", zap.String("user_id", userID))
		return false
	}
}

func (nc *NotificationCore) IsConnected(userID string) bool {
	nc.mu.RLock()
	defer nc.mu.RUnlock()
	_, ok := nc.clients[userID]
	return ok
}

func (nc *NotificationCore) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return nc.upgrader.Upgrade(w, r, nil)
}

// RegisterClient hands client to the running core. It reports false once the
// core has stopped, leaving the connection to the caller.
func (nc *NotificationCore) RegisterClient(client *NotificationClient) bool {
	select {
	case nc.register <- client:
		return true
	case <-nc.done:
		return false
	}
}

// UnregisterClient never blocks after the core has stopped.
func (nc *NotificationCore) UnregisterClient(client *NotificationClient) {
	select {
	case nc.unregister <- client:
	case <-nc.done:
	}
}

func (nc *NotificationCore) cleanup() {
	nc.mu.Lock()
	defer nc.mu.Unlock()

	for _, client := range nc.clients {
		close(client.send)
		client.conn.Close()
	}
	nc.clients = make(map[string]*NotificationClient)
}
