package api

import (
	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/handlers"
)

func registerAddressRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, handler *handlers.AddressHandler) {
	addresses := api.Group("/addresses", requireAuth)
	{
		addresses.GET("", handler.List)
		addresses.POST("", handler.Create)
		addresses.PUT("/:id", handler.Update)
		addresses.PUT("/:id/default", handler.SetDefault)
		addresses.DELETE("/:id", handler.Delete)
	}
}
