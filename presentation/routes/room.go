package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/trio/presentation/controllers/room"
)

func RoomRoutes(router *gin.RouterGroup, controller room.RoomController) {
	rooms := router.Group("/rooms")
	{
		rooms.POST("/join-any", controller.JoinAny)
		rooms.POST("", controller.CreateRoom)
		rooms.GET("", controller.ListRooms)
		rooms.GET("/:id", controller.GetRoom)
		rooms.POST("/:id/join", controller.JoinRoom)
		rooms.POST("/:id/leave", controller.LeaveRoom)
	}

	queue := router.Group("/queue")
	{
		queue.GET("", controller.QueueStatus)
		queue.DELETE("", controller.Withdraw)
	}
}
