// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/api/handlers"
	"github.com/alkana/warehouse-go/internal/api/middleware"
	"github.com/alkana/warehouse-go/internal/service"
)

type Services struct {
	UploadService    *service.UploadService
	DashboardService *service.DashboardService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.UploadService != nil {
			uploadHandler := handlers.NewUploadHandler(services.UploadService)
			uploadGroup := apiGroup.Group("/uploads")
			{
				uploadGroup.POST("", uploadHandler.Upload)
				uploadGroup.GET("/:id", uploadHandler.GetStatus)
				uploadGroup.GET("", uploadHandler.History)
			}
		}

		if services.DashboardService != nil {
			dashboardHandler := handlers.NewDashboardHandler(services.DashboardService)
			dashboardGroup := apiGroup.Group("/dashboard")
			{
				dashboardGroup.GET("/leadtime/summary", dashboardHandler.GetLeadTimeSummary)
				dashboardGroup.GET("/ar-aging", dashboardHandler.GetARAgingSummary)
				dashboardGroup.GET("/ar-aging/snapshots", dashboardHandler.GetARSnapshots)
			}
			alertGroup := apiGroup.Group("/alerts")
			{
				alertGroup.GET("", dashboardHandler.GetAlerts)
				alertGroup.PATCH("/:id/resolve", dashboardHandler.ResolveAlert)
			}
		}
	}

	return router
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
