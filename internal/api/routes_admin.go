package api

import (
	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/handlers"
	"github.com/astromitra/astromitra/internal/middleware"
)

func registerAdminRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, handler *handlers.AdminHoroscopeHandler) {
	admin := api.Group("/admin/horoscopes", requireAuth, middleware.RequireAdmin())
	{
		admin.POST("/regenerate", handler.Regenerate)
		admin.POST("/invalidate", handler.Invalidate)
		admin.POST("/sweep", handler.Sweep)
		admin.GET("/stats", handler.Stats)
		admin.POST("/broadcast", handler.Broadcast)
	}
}
