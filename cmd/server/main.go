package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/api/handlers"
	"github.com/courtmetrics/valuation/internal/config"
	"github.com/courtmetrics/valuation/internal/pipeline"
	"github.com/courtmetrics/valuation/internal/storage"
	ws "github.com/courtmetrics/valuation/internal/websocket"
	"github.com/courtmetrics/valuation/pkg/cache"
	"github.com/courtmetrics/valuation/pkg/database"
	"github.com/courtmetrics/valuation/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logger with service context
	structuredLogger := logger.InitLogger("", cfg.IsDevelopment())
	structuredLogger.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting Valuation Service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		structuredLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := storage.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		structuredLogger.Fatalf("Failed to migrate schema: %v", err)
	}

	// Redis backs the read cache; the pipeline itself works without it.
	var redisClient *redis.Client
	var cacheService *cache.ValuationCacheService
	if opt, err := redis.ParseURL(cfg.RedisURL); err != nil {
		structuredLogger.WithError(err).Warn("Invalid Redis URL, running without cache")
	} else {
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			structuredLogger.WithError(err).Warn("Redis unreachable, running without cache")
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
			cacheService = cache.NewValuationCacheService(redisClient, structuredLogger)
		}
	}

	// WebSocket hub for recompute progress updates
	wsHub := ws.NewHub(structuredLogger)
	go wsHub.Run()

	p := pipeline.New(store, cfg, structuredLogger, wsHub)

	if cfg.EnableScheduler && len(cfg.ScheduledSeasons) > 0 {
		scheduler, err := pipeline.NewScheduler(p, cfg.RecomputeCron, cfg.ScheduledSeasons, structuredLogger)
		if err != nil {
			structuredLogger.Fatalf("Failed to create scheduler: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	valuationHandler := handlers.NewValuationHandler(store, cacheService, p, cfg, structuredLogger)
	healthHandler := handlers.NewHealthHandler(db, redisClient, structuredLogger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/value-scores/:season", valuationHandler.GetValueScores)
		apiV1.GET("/archetypes/:season", valuationHandler.GetArchetypes)
		apiV1.GET("/pair-synergies/:season", valuationHandler.GetPairSynergies)
		apiV1.POST("/recompute/:season", valuationHandler.RecomputeSeason)
		apiV1.GET("/cache-status", valuationHandler.GetCacheStatus)
	}

	// WebSocket endpoint for recompute progress updates
	router.GET("/ws/recompute-progress", wsHub.HandleWebSocket)

	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			structuredLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	structuredLogger.WithField("port", cfg.Port).Info("Valuation Service listening")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info("Shutting down Valuation Service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		structuredLogger.WithError(err).Error("Forced shutdown")
	}
}
