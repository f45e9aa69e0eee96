package routes

import (
	"github.com/gin-gonic/gin"
	wsCtrl "github.com/hilthontt/trio/presentation/controllers/websocket"
)

func WebsocketRoutes(router *gin.RouterGroup, controller wsCtrl.NotificationController) {
	router.GET("/notifications/ws", controller.HandleNotificationConnection)
}
