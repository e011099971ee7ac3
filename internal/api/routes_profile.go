package api

import (
	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/handlers"
)

func registerProfileRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, handler *handlers.ProfileHandler) {
	profile := api.Group("/profile", requireAuth)
	{
		profile.GET("", handler.Get)
		profile.PUT("", handler.Update)
		profile.PUT("/password", handler.ChangePassword)
	}
}
