package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable the capture service reads from the
// environment. Azure and duplicate-check settings are optional; leaving them
// empty selects the in-memory queue and fail-open duplicate checking.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// Live-path analysis cooldown (the 20Hz budget).
	FrameInterval time.Duration

	// Duplicate detection
	DuplicateCheckURL     string
	DuplicateCheckTimeout time.Duration
	HashCacheCapacity     int

	// Upload queue (Azure blob storage); all three must be set together.
	AzureAccountName  string
	AzureAccountKey   string
	AzureUploadBucket string

	// Receipt metadata extraction via tesseract.
	OCREnabled bool
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// AzureConfigured reports whether the Azure upload queue settings are
// complete.
func (c *Config) AzureConfigured() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != "" && c.AzureUploadBucket != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB stills

		FrameInterval: parseDurationOrDefault("FRAME_ANALYSIS_INTERVAL", 50*time.Millisecond),

		DuplicateCheckURL:     os.Getenv("DUPLICATE_CHECK_URL"),
		DuplicateCheckTimeout: parseDurationOrDefault("DUPLICATE_CHECK_TIMEOUT", 5*time.Second),
		HashCacheCapacity:     int(parseIntOrDefault("HASH_CACHE_CAPACITY", 128)),

		AzureAccountName:  os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:   os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureUploadBucket: getEnvOrDefault("AZURE_UPLOAD_CONTAINER", "receipt-captures"),

		OCREnabled: os.Getenv("OCR_ENABLED") == "true",
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.DuplicateCheckTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, duplicate=%s)",
			cfg.RequestTimeout, cfg.DuplicateCheckTimeout)
	}
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("FRAME_ANALYSIS_INTERVAL must be > 0 (got %s)", cfg.FrameInterval)
	}
	if cfg.HashCacheCapacity <= 0 {
		return nil, fmt.Errorf("HASH_CACHE_CAPACITY must be > 0 (got %d)", cfg.HashCacheCapacity)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
