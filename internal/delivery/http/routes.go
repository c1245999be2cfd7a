package http

import (
	"github.com/gin-gonic/gin"
	"github.com/groweasy/analytics/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Data.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.Data.MaxUploadBytes
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		datasets := v1.Group("/datasets")
		{
			datasets.POST("", handler.UploadDataset)
			datasets.DELETE("/:id", handler.DeleteDataset)
		}

		segmentation := v1.Group("/segmentation")
		{
			segmentation.GET("", handler.GetSegmentation)
			segmentation.GET("/scatter.png", handler.SegmentationScatter)
			segmentation.GET("/distribution.png", handler.SegmentationDistribution)
			segmentation.GET("/export", handler.ExportSegmentation)
		}

		insights := v1.Group("/insights")
		{
			insights.GET("", handler.GetInsights)
			insights.GET("/sales-by-city.png", handler.InsightsSalesByCity)
			insights.GET("/clusters.png", handler.InsightsClusters)
			insights.GET("/export", handler.ExportInsights)
		}

		v1.GET("/recommendations", handler.GetRecommendations)
	}

	return router
}
