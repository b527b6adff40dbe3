package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	OCR       OCRConfig
	Enhance   EnhanceConfig
	Storage   StorageConfig
	Staging   StagingConfig
	Contacts  ContactsConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// OCRConfig holds recognition engine configuration.
// Languages is fixed for the process lifetime, not per request.
type OCRConfig struct {
	Languages []string `mapstructure:"languages"`
	PoolSize  int      `mapstructure:"pool_size"`
	DPI       int      `mapstructure:"dpi"`
}

// EnhanceConfig holds image preprocessing configuration
type EnhanceConfig struct {
	MaxDimension      int `mapstructure:"max_dimension"`
	BinarizeThreshold int `mapstructure:"binarize_threshold"`
}

// StorageConfig holds image store configuration
type StorageConfig struct {
	BaseDir         string `mapstructure:"base_dir"`
	BaseURL         string `mapstructure:"base_url"`
	ThumbnailMaxDim int    `mapstructure:"thumbnail_max_dimension"`
}

// StagingConfig holds scan staging store configuration
type StagingConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ContactsConfig holds permanent contact repository configuration
type ContactsConfig struct {
	Type        string `mapstructure:"type"` // "memory" or "postgres"
	DatabaseURL string `mapstructure:"database_url"`
}

// RateLimitConfig holds upload throttling configuration
type RateLimitConfig struct {
	UploadsPerMinute int `mapstructure:"uploads_per_minute"`
	Burst            int `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cardlens/")

	// Environment variable settings: CARDLENS_STAGING_TTL overrides staging.ttl
	v.SetEnvPrefix("CARDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_bytes", int64(10*1024*1024)) // 10MB

	// OCR defaults: Korean + English cards, two pooled engines
	v.SetDefault("ocr.languages", []string{"kor", "eng"})
	v.SetDefault("ocr.pool_size", 2)
	v.SetDefault("ocr.dpi", 300)

	// Enhance defaults
	v.SetDefault("enhance.max_dimension", 1600)
	v.SetDefault("enhance.binarize_threshold", 160)

	// Storage defaults
	v.SetDefault("storage.base_dir", "./data/images")
	v.SetDefault("storage.base_url", "http://localhost:8080/images")
	v.SetDefault("storage.thumbnail_max_dimension", 320)

	// Staging defaults: scans live for 24 hours
	v.SetDefault("staging.type", "memory")
	v.SetDefault("staging.ttl", "24h")

	// Contacts defaults
	v.SetDefault("contacts.type", "memory")

	// Rate limit defaults
	v.SetDefault("ratelimit.uploads_per_minute", 10)
	v.SetDefault("ratelimit.burst", 3)
}

// validate validates the configuration
func validate(config *Config) error {
	if len(config.OCR.Languages) == 0 {
		return fmt.Errorf("at least one OCR language is required")
	}

	if config.OCR.PoolSize < 1 || config.OCR.PoolSize > 16 {
		return fmt.Errorf("ocr pool size must be between 1 and 16, got: %d", config.OCR.PoolSize)
	}

	if config.Enhance.MaxDimension < 256 {
		return fmt.Errorf("enhance max dimension must be at least 256, got: %d", config.Enhance.MaxDimension)
	}

	if config.Enhance.BinarizeThreshold < 1 || config.Enhance.BinarizeThreshold > 254 {
		return fmt.Errorf("binarize threshold must be between 1 and 254, got: %d", config.Enhance.BinarizeThreshold)
	}

	if config.Staging.Type != "memory" && config.Staging.Type != "redis" {
		return fmt.Errorf("staging type must be 'memory' or 'redis', got: %s", config.Staging.Type)
	}

	if config.Staging.Type == "redis" && config.Staging.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when staging type is 'redis'")
	}

	if config.Staging.TTL <= 0 {
		return fmt.Errorf("staging TTL must be positive, got: %s", config.Staging.TTL)
	}

	if config.Contacts.Type != "memory" && config.Contacts.Type != "postgres" {
		return fmt.Errorf("contacts type must be 'memory' or 'postgres', got: %s", config.Contacts.Type)
	}

	if config.Contacts.Type == "postgres" && config.Contacts.DatabaseURL == "" {
		return fmt.Errorf("database URL is required when contacts type is 'postgres'")
	}

	return nil
}
