package api

import (
	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, handler *handlers.AuthHandler) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/refresh", handler.Refresh)

		auth.POST("/logout", requireAuth, handler.Logout)
		auth.GET("/me", requireAuth, handler.Me)
	}
}
