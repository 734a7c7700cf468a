package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genbyt/genbyt-backend/config"
	"github.com/genbyt/genbyt-backend/internal/app/controller"
	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/internal/app/service"
	"github.com/genbyt/genbyt-backend/internal/db"
	"github.com/genbyt/genbyt-backend/internal/middleware"
	"github.com/genbyt/genbyt-backend/internal/router"
	"github.com/genbyt/genbyt-backend/internal/scheduler"
	"github.com/genbyt/genbyt-backend/internal/storage"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"github.com/genbyt/genbyt-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting GENBYT Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize media storage
	var store storage.Storage
	switch cfg.Storage.Mode {
	case config.StorageModeS3:
		store = storage.NewS3Storage(
			cfg.Storage.S3.Region,
			cfg.Storage.S3.Bucket,
			cfg.Storage.S3.AccessKeyID,
			cfg.Storage.S3.SecretAccessKey,
			cfg.Storage.S3.BaseURL,
		)
	default:
		store, err = storage.NewLocalStorage(cfg.Storage.LocalPath)
		if err != nil {
			logger.Fatal("Failed to initialize local storage", err)
		}
	}

	// Initialize Redis (optional view-dedup cache)
	var viewCache service.ViewCache
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable - view dedup cache disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			viewCache = redis.NewViewCache(redis.GetClient())
		}
	}

	// Initialize repositories
	listingRepo := repository.NewListingRepository(db.GetDB())
	favoriteRepo := repository.NewFavoriteRepository(db.GetDB())
	vocabRepo := repository.NewVocabularyRepository(db.GetDB())

	// Initialize services
	listingService := service.NewListingService(listingRepo, store, cfg.Upload, viewCache)
	favoriteService := service.NewFavoriteService(favoriteRepo, listingRepo)
	vocabularyService := service.NewVocabularyService(vocabRepo)
	reportService := service.NewReportService(listingRepo)

	// Initialize controllers
	listingController := controller.NewListingController(listingService)
	favoriteController := controller.NewFavoriteController(favoriteService)
	catalogController := controller.NewCatalogController(vocabularyService, reportService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Start counter reconciliation scheduler
	reconcileScheduler := scheduler.NewReconcileScheduler(listingRepo)
	if err := reconcileScheduler.Start(); err != nil {
		logger.Fatal("Failed to start reconcile scheduler", err)
	}
	defer reconcileScheduler.Stop()

	// Setup router
	r := router.NewRouter(
		listingController,
		favoriteController,
		catalogController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
