package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/astromitra/astromitra/internal/auth"
	"github.com/astromitra/astromitra/internal/handlers"
	"github.com/astromitra/astromitra/internal/horoscope"
	"github.com/astromitra/astromitra/internal/middleware"
	"github.com/astromitra/astromitra/internal/services"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	JWT      *iauth.JWTService
	Sessions *iauth.SessionService
	Users    *services.UserService
	Addrs    *services.AddressService
	Kundlis  *services.KundliService
	Devices  *services.DeviceTokenService
	Engine   *horoscope.Engine
	Admin    *services.HoroscopeAdminService

	// RateStore is optional; nil disables rate limiting.
	RateStore          middleware.RateStore
	RateLimitPerMinute int
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	switch {
	case deps.JWT == nil:
		return nil, fmt.Errorf("jwt service must be provided")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session service must be provided")
	case deps.Users == nil:
		return nil, fmt.Errorf("user service must be provided")
	case deps.Engine == nil:
		return nil, fmt.Errorf("horoscope engine must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(deps.RateStore, deps.RateLimitPerMinute, time.Minute))

	r.NoRoute(middleware.NotFoundHandler)

	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	requireAuth := middleware.Auth(deps.JWT)

	registerHoroscopeRoutes(api, handlers.NewHoroscopeHandler(deps.Engine))
	registerAuthRoutes(api, requireAuth, handlers.NewAuthHandler(deps.Users, deps.Sessions))
	registerProfileRoutes(api, requireAuth, handlers.NewProfileHandler(deps.Users, deps.Sessions))

	if deps.Addrs != nil {
		registerAddressRoutes(api, requireAuth, handlers.NewAddressHandler(deps.Addrs))
	}
	if deps.Kundlis != nil {
		registerKundliRoutes(api, requireAuth, handlers.NewKundliHandler(deps.Kundlis))
	}
	if deps.Devices != nil {
		registerDeviceRoutes(api, requireAuth, handlers.NewDeviceHandler(deps.Devices))
	}
	if deps.Admin != nil {
		registerAdminRoutes(api, requireAuth, handlers.NewAdminHoroscopeHandler(deps.Admin))
	}

	return r, nil
}
