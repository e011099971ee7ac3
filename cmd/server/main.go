package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/astromitra/astromitra/internal/ai"
	"github.com/astromitra/astromitra/internal/api"
	"github.com/astromitra/astromitra/internal/app"
	"github.com/astromitra/astromitra/internal/astro"
	iauth "github.com/astromitra/astromitra/internal/auth"
	"github.com/astromitra/astromitra/internal/cache"
	"github.com/astromitra/astromitra/internal/database"
	"github.com/astromitra/astromitra/internal/horoscope"
	"github.com/astromitra/astromitra/internal/middleware"
	"github.com/astromitra/astromitra/internal/push"
	"github.com/astromitra/astromitra/internal/services"
	"github.com/astromitra/astromitra/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("astromitra-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	dbStore := cache.NewDatabaseStore(db)

	var sharedCache cache.Store
	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database-backed counters", zap.Error(redisErr))
		} else {
			sharedCache = client
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}
	defer func() {
		if rc, ok := sharedCache.(*cache.RedisClient); ok && rc != nil {
			_ = rc.Close()
		}
	}()
	if sharedCache == nil {
		sharedCache = dbStore
	}

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	sessionSvc, err := iauth.NewSessionService(db, jwtService, iauth.SessionConfig{
		RefreshTTL:    cfg.Auth.Session.RefreshTTL,
		RefreshLength: cfg.Auth.Session.RefreshLength,
	})
	if err != nil {
		return fmt.Errorf("initialise session service: %w", err)
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed, cleanupErr := sessionSvc.CleanupExpired(ctx); cleanupErr != nil {
					log.Warn("session cleanup failed", zap.Error(cleanupErr))
				} else if removed > 0 {
					log.Info("expired sessions removed", zap.Int64("count", removed))
				}
			}
		}
	}()

	userSvc, err := services.NewUserService(db)
	if err != nil {
		return fmt.Errorf("initialise user service: %w", err)
	}
	addressSvc, err := services.NewAddressService(db)
	if err != nil {
		return fmt.Errorf("initialise address service: %w", err)
	}
	deviceSvc, err := services.NewDeviceTokenService(db)
	if err != nil {
		return fmt.Errorf("initialise device token service: %w", err)
	}

	astroClient, err := astro.NewClient(astro.Config{
		BaseURL: cfg.Astro.BaseURL,
		APIKey:  cfg.Astro.APIKey,
		Timeout: cfg.Astro.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initialise astro client: %w", err)
	}

	kundliSvc, err := services.NewKundliService(db, astroClient)
	if err != nil {
		return fmt.Errorf("initialise kundli service: %w", err)
	}

	var enricher horoscope.Enricher
	if cfg.OpenAI.Enabled {
		aiEnricher, aiErr := ai.NewEnricher(ai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKey:    cfg.OpenAI.APIKey,
			Model:     cfg.OpenAI.Model,
			MaxTokens: cfg.OpenAI.MaxTokens,
			Timeout:   cfg.OpenAI.Timeout,
		})
		if aiErr != nil {
			log.Warn("enrichment disabled", zap.Error(aiErr))
		} else {
			enricher = aiEnricher
		}
	}

	var notifier services.Notifier
	if cfg.Push.Enabled {
		sender, pushErr := push.NewSender(push.Config{
			Endpoint:  cfg.Push.Endpoint,
			ServerKey: cfg.Push.ServerKey,
			Timeout:   cfg.Push.Timeout,
		})
		if pushErr != nil {
			log.Warn("push notifications disabled", zap.Error(pushErr))
		} else {
			notifier = sender
		}
	}

	engineOpts, err := cfg.Horoscope.EngineOptions()
	if err != nil {
		return err
	}
	store, err := horoscope.NewGormStore(db)
	if err != nil {
		return fmt.Errorf("initialise horoscope store: %w", err)
	}
	engine, err := horoscope.NewEngine(store, astroClient, enricher, engineOpts...)
	if err != nil {
		return fmt.Errorf("initialise horoscope engine: %w", err)
	}

	var adminSvc *services.HoroscopeAdminService

	schedOpts := cfg.Horoscope.SchedulerOptions()
	schedOpts = append(schedOpts, horoscope.WithAfterDaily(func(day time.Time) {
		adminSvc.NotifyDailyReady(ctx, day)
	}))
	scheduler := horoscope.NewScheduler(engine, schedOpts...)

	adminSvc, err = services.NewHoroscopeAdminService(engine, scheduler, deviceSvc, notifier)
	if err != nil {
		return fmt.Errorf("initialise horoscope admin service: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start horoscope scheduler: %w", err)
	}
	defer func() {
		<-scheduler.Stop().Done()
	}()

	router, err := api.NewRouter(api.Deps{
		JWT:                jwtService,
		Sessions:           sessionSvc,
		Users:              userSvc,
		Addrs:              addressSvc,
		Kundlis:            kundliSvc,
		Devices:            deviceSvc,
		Engine:             engine,
		Admin:              adminSvc,
		RateStore:          middleware.NewSharedRateStore(sharedCache),
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseClientConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("fetch database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
