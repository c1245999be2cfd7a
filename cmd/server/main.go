package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/groweasy/analytics/config"
	httpDelivery "github.com/groweasy/analytics/internal/delivery/http"
	"github.com/groweasy/analytics/internal/domain"
	"github.com/groweasy/analytics/internal/infrastructure/cache"
	"github.com/groweasy/analytics/internal/infrastructure/charts"
	"github.com/groweasy/analytics/internal/infrastructure/csvstore"
	"github.com/groweasy/analytics/internal/infrastructure/recommendations"
	"github.com/groweasy/analytics/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting GrowEasy Analytics v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	// Initialize infrastructure dependencies
	sessionCache, closeCache := newCache(cfg)
	defer closeCache()
	log.Printf("Session TTL: %s", cfg.Cache.TTL)

	store := csvstore.NewStore()

	catalog, err := recommendations.Load(cfg.Data.RecommendationsPath)
	if err != nil {
		log.Fatalf("Failed to load recommendations: %v", err)
	}
	log.Printf("Recommendations: %d segments", len(catalog.All()))

	for _, path := range []string{cfg.Data.SegmentationPath, cfg.Data.InsightsPath} {
		if _, err := os.Stat(path); err != nil {
			log.Printf("WARNING: default dataset %s not found - requests without an upload will fail", path)
		}
	}

	// Initialize usecase layer
	datasetService := usecase.NewDatasetService(sessionCache, store, usecase.DatasetServiceConfig{
		SegmentationPath: cfg.Data.SegmentationPath,
		InsightsPath:     cfg.Data.InsightsPath,
		SessionTTL:       cfg.Cache.TTL,
		MaxUploadBytes:   cfg.Data.MaxUploadBytes,
	})

	segCfg := usecase.SegmentationConfig{
		DefaultClusters: cfg.Segmentation.DefaultClusters,
		MinClusters:     cfg.Segmentation.MinClusters,
		MaxClusters:     cfg.Segmentation.MaxClusters,
		Seed:            cfg.Segmentation.Seed,
		MaxIterations:   cfg.Segmentation.MaxIterations,
		Tolerance:       cfg.Segmentation.Tolerance,
		NInit:           cfg.Segmentation.NInit,
	}
	segmentationService := usecase.NewSegmentationService(datasetService, usecase.NewSegmenter(segCfg, nil), segCfg)

	log.Printf("Segmentation: k=%d (range %d-%d), seed=%d, max_iter=%d, tol=%g, n_init=%d",
		segCfg.DefaultClusters, segCfg.MinClusters, segCfg.MaxClusters,
		segCfg.Seed, segCfg.MaxIterations, segCfg.Tolerance, segCfg.NInit)

	recommendationService := usecase.NewRecommendationService(catalog)
	insightsService := usecase.NewInsightsService(datasetService, recommendationService)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(
		datasetService,
		segmentationService,
		insightsService,
		recommendationService,
		charts.NewRenderer(),
		store,
	)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newCache builds the configured session store and its shutdown hook
func newCache(cfg *config.Config) (domain.CacheRepository, func()) {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL, "groweasy:")
		if err != nil {
			log.Fatalf("Failed to configure Redis cache: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatalf("Failed to reach Redis: %v", err)
		}
		return redisCache, func() { redisCache.Close() }
	}

	memoryCache := cache.NewMemoryCache(time.Minute)
	return memoryCache, func() { memoryCache.Close() }
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
