package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string
	DatabaseMaxConns int32

	// Scraper configuration
	SitesFile     string
	MaxRetries    int
	BackoffFactor float64
	FetchTimeout  time.Duration

	// Render cache configuration
	RenderTTL           time.Duration
	RenderMaxConcurrent int
	RenderMinInterval   time.Duration
	RenderWaitTimeout   time.Duration

	// Ingestion configuration
	Retention      time.Duration
	IngestInterval time.Duration

	// Discord notification configuration (optional)
	DiscordToken     string
	DiscordChannelID string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseMaxConns: 4,

		// Scraper settings with defaults
		SitesFile:     "sites.yml",
		MaxRetries:    3,
		BackoffFactor: 1.5,
		FetchTimeout:  20 * time.Second,

		// Render cache defaults
		RenderTTL:           900 * time.Second,
		RenderMaxConcurrent: 2,
		RenderMinInterval:   2 * time.Second,
		RenderWaitTimeout:   30 * time.Second,

		// Ingestion defaults
		Retention:      24 * time.Hour,
		IngestInterval: 15 * time.Minute,

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if conns := os.Getenv("DATABASE_MAX_CONNS"); conns != "" {
		if parsed, err := strconv.Atoi(conns); err == nil {
			config.DatabaseMaxConns = int32(parsed)
		}
	}
	if sites := os.Getenv("SITES_FILE"); sites != "" {
		config.SitesFile = sites
	}
	if retries := os.Getenv("SCRAPE_MAX_RETRIES"); retries != "" {
		if parsed, err := strconv.Atoi(retries); err == nil {
			config.MaxRetries = parsed
		}
	}
	if factor := os.Getenv("SCRAPE_BACKOFF_FACTOR"); factor != "" {
		if parsed, err := strconv.ParseFloat(factor, 64); err == nil {
			config.BackoffFactor = parsed
		}
	}
	if timeout := os.Getenv("SCRAPE_FETCH_TIMEOUT"); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil {
			config.FetchTimeout = parsed
		}
	}
	if ttl := os.Getenv("RENDER_CACHE_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			config.RenderTTL = parsed
		}
	}
	if concurrent := os.Getenv("RENDER_MAX_CONCURRENT"); concurrent != "" {
		if parsed, err := strconv.Atoi(concurrent); err == nil {
			config.RenderMaxConcurrent = parsed
		}
	}
	if interval := os.Getenv("RENDER_MIN_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil {
			config.RenderMinInterval = parsed
		}
	}
	if wait := os.Getenv("RENDER_WAIT_TIMEOUT"); wait != "" {
		if parsed, err := time.ParseDuration(wait); err == nil {
			config.RenderWaitTimeout = parsed
		}
	}
	if retention := os.Getenv("RETENTION_WINDOW"); retention != "" {
		if parsed, err := time.ParseDuration(retention); err == nil {
			config.Retention = parsed
		}
	}
	if interval := os.Getenv("INGEST_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil {
			config.IngestInterval = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
