package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hilthontt/trio/presentation/controllers/device"
)

func DeviceRoutes(router *gin.RouterGroup, controller device.DeviceController) {
	devices := router.Group("/devices")
	{
		devices.POST("/register", controller.Register)
		devices.POST("/unregister", controller.Unregister)
	}
}
