package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/trio/infrastructure/logger"
	"github.com/hilthontt/trio/infrastructure/websocket"
	"github.com/hilthontt/trio/presentation/middlewares"
	"go.uber.org/zap"
)

type NotificationController interface {
	HandleNotificationConnection(ctx *gin.Context)
}

type notificationController struct {
	core   *websocket.NotificationCore
	logger *logger.Logger
}

func NewNotificationController(core *websocket.NotificationCore, logger *logger.Logger) NotificationController {
	return &notificationController{
		core:   core,
		logger: logger,
	}
}

// HandleNotificationConnection streams room_started and room_expired events
// for the caller's rooms.
func (c *notificationController) HandleNotificationConnection(ctx *gin.Context) {
	user, ok := middlewares.GetUserFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "user identity required",
		})
		return
	}

	conn, err := c.core.Upgrade(ctx.Writer, ctx.Request)
	if err != nil {
		// the upgrader already replied to the client
		c.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("userID", user.ID))
		return
	}

	client := websocket.NewNotificationClient(conn, user.ID, c.logger)
	if !c.core.RegisterClient(client) {
		c.logger.Warn("notification core stopped, dropping connection", zap.String("userID", user.ID))
		conn.Close()
		return
	}

	c.logger.Debug("user connected to notification stream", zap.String("userID", user.ID))

	go client.WriteMessage()
	go client.ReadMessage(c.core)
}
