package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/trio/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type NotificationClient struct {
	conn   *websocket.Conn
	send   chan *NotificationMessage
	UserID string
	logger *logger.Logger
}

type NotificationMessage struct {
	Type   string         `json:"type"`
	UserID string         `json:"userId"`
	Data   map[string]any `json:"data"`
}

func NewNotificationClient(conn *websocket.Conn, userID string, logger *logger.Logger) *NotificationClient {
	return &NotificationClient{
		conn:   conn,
		send:   make(chan *NotificationMessage, 64),
		UserID: userID,
		logger: logger,
	}
}

func NewNotificationMessage(msgType, userID string, data map[string]any) *NotificationMessage {
	return &NotificationMessage{
		Type:   msgType,
		UserID: userID,
		Data:   data,
	}
}

// ReadMessage drains the connection until it closes. Clients only send pongs.
func (c *NotificationClient) ReadMessage(core *NotificationCore) {
	defer func() {
		core.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("notification websocket closed unexpectedly",
					zap.String("user_id", c.UserID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (c *NotificationClient) WriteMessage() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn("failed to write notification",
					zap.String("user_id", c.UserID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
