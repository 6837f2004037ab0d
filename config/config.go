package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	HTTPPort    int
	MetricsPort int

	// Auth configuration
	JWTSecret   string
	IngestToken string // shared secret for the internal line feed endpoint

	// Messaging configuration
	NATSURL string // empty disables the event relay

	// Quota configuration
	FreeTierLimit int
	PlusTierLimit int
	ProTierLimit  int

	// Insight gate configuration
	InsightMinSwipes int

	// Snapshot configuration
	SnapshotHour     int    // hour of day the daily snapshot runs (0-23)
	SnapshotTimezone string // IANA timezone name for the snapshot schedule

	// Environment
	Environment string // "development", "production" or "test"
	LogLevel    string
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		HTTPPort:         8080,
		MetricsPort:      9090,
		JWTSecret:        "test-secret",
		IngestToken:      "test-ingest-token",
		FreeTierLimit:    20,
		PlusTierLimit:    100,
		ProTierLimit:     500,
		InsightMinSwipes: 5,
		SnapshotHour:     3,
		SnapshotTimezone: "UTC",
		LogLevel:         "error",
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// Best effort: local development keeps secrets in .env
	_ = godotenv.Load()

	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// HTTP defaults
		HTTPPort:    8080,
		MetricsPort: 9090,

		// Auth
		JWTSecret:   os.Getenv("JWT_SECRET"),
		IngestToken: os.Getenv("INGEST_TOKEN"),

		// Messaging
		NATSURL: os.Getenv("NATS_URL"),

		// Quota defaults per tier
		FreeTierLimit: 20,
		PlusTierLimit: 100,
		ProTierLimit:  500,

		// Insight gate default
		InsightMinSwipes: 5,

		// Snapshot defaults
		SnapshotHour:     3, // 3:00 AM default
		SnapshotTimezone: "UTC",

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	// Override defaults if environment variables are set
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			config.HTTPPort = parsed
		}
	}
	if port := os.Getenv("METRICS_PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			config.MetricsPort = parsed
		}
	}
	if limit := os.Getenv("FREE_TIER_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			config.FreeTierLimit = parsed
		}
	}
	if limit := os.Getenv("PLUS_TIER_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			config.PlusTierLimit = parsed
		}
	}
	if limit := os.Getenv("PRO_TIER_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			config.ProTierLimit = parsed
		}
	}
	if min := os.Getenv("INSIGHT_MIN_SWIPES"); min != "" {
		if parsed, err := strconv.Atoi(min); err == nil {
			config.InsightMinSwipes = parsed
		}
	}
	if hour := os.Getenv("SNAPSHOT_HOUR"); hour != "" {
		if parsed, err := strconv.Atoi(hour); err == nil && parsed >= 0 && parsed <= 23 {
			config.SnapshotHour = parsed
		}
	}
	if tz := os.Getenv("SNAPSHOT_TIMEZONE"); tz != "" {
		config.SnapshotTimezone = tz
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}
