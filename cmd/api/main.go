package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"

	httpAdapter "github.com/tapdine/ordersync-backend/internal/adapters/primary/http"
	mw "github.com/tapdine/ordersync-backend/internal/adapters/primary/http/middleware"
	"github.com/tapdine/ordersync-backend/internal/adapters/primary/websocket"
	"github.com/tapdine/ordersync-backend/internal/adapters/secondary/memstore"
	"github.com/tapdine/ordersync-backend/internal/adapters/secondary/redisbroker"
	"github.com/tapdine/ordersync-backend/internal/auth"
	"github.com/tapdine/ordersync-backend/internal/config"
	"github.com/tapdine/ordersync-backend/internal/core/ports"
	"github.com/tapdine/ordersync-backend/internal/core/services"
	"github.com/tapdine/ordersync-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Optional Redis broker for multi-instance fan-out. When enabled,
	// services publish through Redis and the hub is fed by the subscriber;
	// otherwise services talk to the hub directly.
	var broadcaster ports.EventBroadcaster = hub
	var brokerCheck httpAdapter.HealthChecker
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis ping failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		broker := redisbroker.New(redisClient, cfg.Redis.Channel, logger)
		broadcaster = broker
		brokerCheck = broker

		go func() {
			if err := broker.Subscribe(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("broker subscription ended", "error", err)
			}
		}()

		logger.Info("redis broker enabled", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	// 5. Initialize Rate Limiter
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	orderRepo := memstore.NewOrderRepository()
	restaurantRepo := memstore.NewRestaurantRepository()

	// Services (Core)
	notificationService := services.NewNotificationService(broadcaster)
	orderService := services.NewOrderService(orderRepo, notificationService)
	restaurantService := services.NewRestaurantService(restaurantRepo, notificationService)
	platformService := services.NewPlatformService(orderRepo, restaurantRepo, hub, notificationService)

	// Handlers (Primary Adapters)
	authenticator := mw.NewAuthenticator(tokenManager, errorHandler)
	orderHandler := httpAdapter.NewOrderHandler(orderService, errorHandler, logger)
	restaurantHandler := httpAdapter.NewRestaurantHandler(restaurantService, errorHandler, logger)
	platformHandler := httpAdapter.NewPlatformHandler(platformService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(brokerCheck, hub, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if rateLimiter != nil {
		r.Use(rateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket route (authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Order producer routes
		r.Group(func(r chi.Router) {
			r.Use(authenticator.RequireAuth)
			r.Route("/orders", orderHandler.RegisterRoutes)
		})

		// Restaurant admin routes
		r.Group(func(r chi.Router) {
			r.Use(authenticator.RequireRole(auth.RoleAdmin, auth.RoleSuperadmin))
			r.Route("/restaurants", restaurantHandler.RegisterRoutes)
		})

		// Platform routes (superadmin only)
		r.Group(func(r chi.Router) {
			r.Use(authenticator.RequireRole(auth.RoleSuperadmin))
			r.Post("/admins/{adminID}/notifications", platformHandler.HandleNotifyAdmin)
			r.Route("/platform", platformHandler.RegisterRoutes)
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Stop the broker subscription before draining HTTP connections
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
