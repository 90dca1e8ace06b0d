// warehouse-go/cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alkana/warehouse-go/internal/api"
	"github.com/alkana/warehouse-go/internal/cache"
	"github.com/alkana/warehouse-go/internal/config"
	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/loader"
	"github.com/alkana/warehouse-go/internal/etl/transform"
	"github.com/alkana/warehouse-go/internal/repository/postgres"
	"github.com/alkana/warehouse-go/internal/service"
	"github.com/alkana/warehouse-go/internal/storage"
	"github.com/alkana/warehouse-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	rules := domain.DefaultRules()
	ctx := context.Background()
	if err := postgres.InitSchema(ctx, db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	if err := postgres.SeedDimensions(ctx, db, rules); err != nil {
		log.Fatalf("Failed to seed dimensions: %v", err)
	}

	// Initialize repositories and the ETL wiring
	rawStore := postgres.NewRawStore(db)
	warehouseRepo := postgres.NewWarehouseRepo(db)
	uploadRepo := postgres.NewUploadRepo(db)
	dashboardRepo := postgres.NewDashboardRepo(db)

	loaders := loader.NewRegistry(rawStore)
	transformer := transform.New(rawStore, warehouseRepo, rules)

	dashboardCache, err := cache.NewLeadTimeCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopLeadTimeCache()
	}

	var archive storage.ObjectStorage
	if cfg.Storage.Endpoint != "" {
		client, err := storage.NewMinioClient(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize archive storage: %v", err)
		}
		archive = client
	}

	// Initialize services
	uploadService := service.NewUploadService(cfg, uploadRepo, loaders, transformer, archive)
	dashboardService := service.NewDashboardService(dashboardRepo, dashboardCache)
	uploadService.SetCacheInvalidator(dashboardService.InvalidateCaches)

	// Periodically clear old workbooks out of the upload directory
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go runUploadCleanup(cleanupCtx, uploadService)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		UploadService:    uploadService,
		DashboardService: dashboardService,
	}, cfg.Server.AllowedOrigins)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func runUploadCleanup(ctx context.Context, uploads *service.UploadService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := uploads.CleanupOldUploads(ctx)
			if err != nil {
				logger.Log.Warn().Err(err).Msg("upload cleanup failed")
				continue
			}
			if removed > 0 {
				logger.Log.Info().Int("removed", removed).Msg("old uploads cleaned up")
			}
		}
	}
}
