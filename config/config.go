package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Data         DataConfig
	Segmentation SegmentationConfig
	Cache        CacheConfig
	RateLimit    RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DataConfig holds dataset locations and upload limits
type DataConfig struct {
	SegmentationPath    string `mapstructure:"segmentation_path"`
	InsightsPath        string `mapstructure:"insights_path"`
	RecommendationsPath string `mapstructure:"recommendations_path"` // empty uses the bundled tips
	MaxUploadBytes      int64  `mapstructure:"max_upload_bytes"`
}

// SegmentationConfig holds clustering parameters
type SegmentationConfig struct {
	DefaultClusters int     `mapstructure:"default_clusters"`
	MinClusters     int     `mapstructure:"min_clusters"`
	MaxClusters     int     `mapstructure:"max_clusters"`
	Seed            int64   `mapstructure:"seed"`
	MaxIterations   int     `mapstructure:"max_iterations"`
	Tolerance       float64 `mapstructure:"tolerance"`
	NInit           int     `mapstructure:"n_init"`
}

// CacheConfig holds upload session storage configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// Load loads configuration from the default search paths
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from environment variables and a config file.
// An empty path searches ".", "./config" and "/etc/groweasy/" for config.yaml.
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/groweasy/")
	}

	// Environment variable settings
	v.SetEnvPrefix("GROWEASY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && (path != "" || !os.IsNotExist(err)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads variables from ./.env without overriding ones already set
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Data defaults
	v.SetDefault("data.segmentation_path", "df_scaled.csv")
	v.SetDefault("data.insights_path", "clustered_customers.csv")
	v.SetDefault("data.recommendations_path", "")
	v.SetDefault("data.max_upload_bytes", 20<<20)

	// Segmentation defaults
	v.SetDefault("segmentation.default_clusters", 4)
	v.SetDefault("segmentation.min_clusters", 2)
	v.SetDefault("segmentation.max_clusters", 10)
	v.SetDefault("segmentation.seed", 42)
	v.SetDefault("segmentation.max_iterations", 300)
	v.SetDefault("segmentation.tolerance", 1e-4)
	v.SetDefault("segmentation.n_init", 1)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set GROWEASY_SERVER_PORT)")
	}

	s := config.Segmentation
	if s.MinClusters < 2 {
		return fmt.Errorf("segmentation min_clusters must be at least 2, got %d", s.MinClusters)
	}
	if s.MaxClusters < s.MinClusters {
		return fmt.Errorf("segmentation max_clusters (%d) must not be below min_clusters (%d)", s.MaxClusters, s.MinClusters)
	}
	if s.DefaultClusters < s.MinClusters || s.DefaultClusters > s.MaxClusters {
		return fmt.Errorf("segmentation default_clusters must be between %d and %d, got %d", s.MinClusters, s.MaxClusters, s.DefaultClusters)
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("segmentation max_iterations must be positive, got %d", s.MaxIterations)
	}
	if s.Tolerance < 0 {
		return fmt.Errorf("segmentation tolerance must not be negative, got %g", s.Tolerance)
	}
	if s.NInit <= 0 {
		return fmt.Errorf("segmentation n_init must be positive, got %d", s.NInit)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got %d", config.RateLimit.PerIP)
	}

	return nil
}
