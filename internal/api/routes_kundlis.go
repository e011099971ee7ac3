package api

import (
	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/handlers"
)

func registerKundliRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, handler *handlers.KundliHandler) {
	kundlis := api.Group("/kundlis", requireAuth)
	{
		kundlis.GET("", handler.List)
		kundlis.POST("", handler.Generate)
		kundlis.GET("/:id", handler.Get)
		kundlis.DELETE("/:id", handler.Delete)
	}
}
