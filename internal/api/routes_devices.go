package api

import (
	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/handlers"
)

func registerDeviceRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, handler *handlers.DeviceHandler) {
	devices := api.Group("/devices", requireAuth)
	{
		devices.POST("", handler.Register)
		devices.DELETE("", handler.Unregister)
	}
}
