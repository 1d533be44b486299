package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/digitalghar/storefront/config"
	"github.com/digitalghar/storefront/internal/app/controller"
	"github.com/digitalghar/storefront/internal/app/service"
	"github.com/digitalghar/storefront/internal/db"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/digitalghar/storefront/internal/router"
	"github.com/digitalghar/storefront/internal/scheduler"
	"github.com/digitalghar/storefront/internal/session"
	"github.com/digitalghar/storefront/internal/storage"
	ws "github.com/digitalghar/storefront/internal/websocket"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/digitalghar/storefront/pkg/redis"
	"github.com/digitalghar/storefront/pkg/storeapi"
	"github.com/shopspring/decimal"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logger.Initialize(logger.Config{
		Level:       cfg.LogLevel(),
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting DigitalGhar storefront", map[string]interface{}{
		"environment":    cfg.Server.Environment,
		"port":           cfg.Server.Port,
		"storage_driver": cfg.Storage.Driver,
		"checkout_mode":  cfg.Checkout.Mode,
	})

	// Prices go to the browser as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize session storage
	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize session storage", err)
	}
	defer closeBackend()

	// Initialize store API client
	client, err := storeapi.NewClient(storeapi.Config{
		BaseURL: cfg.StoreAPI.BaseURL,
		Timeout: cfg.StoreAPI.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create store API client", err)
	}
	logger.Info("Store API client ready", map[string]interface{}{
		"base_url": client.GetConfig().BaseURL,
		"timeout":  client.GetConfig().Timeout.String(),
	})

	// Initialize sessions and cart events
	hub := ws.NewHub()
	go hub.Run()

	manager := session.NewManager(backend, client,
		session.WithCartObserver(hub.CartObserver()),
		session.WithAuthOptions(session.WithTokenSecret(cfg.StoreAPI.JWTSecret)),
	)

	sweeper := scheduler.NewSessionSweeper(manager, backend, cfg.Session)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", err)
	}

	// Initialize services
	var gateway service.PaymentGateway
	switch cfg.Checkout.Mode {
	case "api":
		gateway = service.NewAPIGateway(client)
	default:
		gateway = service.NewSimulatedGateway(cfg.Checkout.SimulatedDelay)
	}

	authService := service.NewAuthService()
	catalogService := service.NewCatalogService(client)
	checkoutService := service.NewCheckoutService(gateway, cfg.Checkout.Coupons)
	accountService := service.NewAccountService(client)
	adminService := service.NewAdminService(client)

	var media storage.MediaStore
	if cfg.S3.Enabled() {
		media = storage.NewS3Storage(context.Background(), cfg.S3)
		logger.Info("Product media uploads enabled", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	catalogController := controller.NewCatalogController(catalogService)
	cartController := controller.NewCartController(catalogService, checkoutService)
	cartEventsController := controller.NewCartEventsController(hub, cfg.CORS.AllowedOrigins)
	checkoutController := controller.NewCheckoutController(checkoutService)
	accountController := controller.NewAccountController(accountService)
	adminController := controller.NewAdminController(adminService)
	uploadController := controller.NewUploadController(media)

	// Initialize middleware
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)

	// Setup router
	r := router.NewRouter(
		authController,
		catalogController,
		cartController,
		cartEventsController,
		checkoutController,
		accountController,
		adminController,
		uploadController,
		manager,
		authLimiter,
		cfg,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", err)
	}

	sweeper.Stop()
	authLimiter.Stop()
	hub.Stop()

	logger.Info("Server stopped successfully", map[string]interface{}{
		"live_sessions": manager.Len(),
	})
}

// openBackend returns the session storage backend for the configured driver and a
// function that releases it.
func openBackend(cfg *config.Config) (storage.Backend, func(), error) {
	switch cfg.Storage.Driver {
	case "redis":
		client, err := redis.Connect(context.Background(), &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closeRedis := func() {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close session store connection", err)
			}
		}
		return storage.NewRedisBackend(client, cfg.Session.Retention), closeRedis, nil

	case "postgres", "sqlite":
		if err := db.Initialize(cfg); err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", err)
			}
		}
		if err := db.Migrate(); err != nil {
			closeDB()
			return nil, nil, err
		}
		return storage.NewGormBackend(db.GetDB()), closeDB, nil

	default:
		logger.Warn("Using in-memory session storage; carts are lost on restart")
		return storage.NewMemoryBackend(), func() {}, nil
	}
}
