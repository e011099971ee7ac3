package api

import (
	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/handlers"
)

// Horoscope reads are public: the mobile app shows daily content before
// sign-in.
func registerHoroscopeRoutes(api *gin.RouterGroup, handler *handlers.HoroscopeHandler) {
	horoscopes := api.Group("/horoscopes")
	{
		horoscopes.GET("/signs", handler.Signs)
		horoscopes.GET("/:sign/:period", handler.Get)
	}
}
