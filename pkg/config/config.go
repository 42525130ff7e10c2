package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/boxoffice/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Warmer        WarmerConfig        `yaml:"warmer"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL         string        `yaml:"url"`
	ReplicaURLs string        `yaml:"replica_urls"` // Comma-separated
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CacheConfig holds KPI cache settings
type CacheConfig struct {
	Backend       string `yaml:"backend"` // memory or redis
	MaxEntries    int    `yaml:"max_entries"`
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPoolSize int    `yaml:"redis_pool_size"`
	KeyPrefix     string `yaml:"key_prefix"`
}

// WarmerConfig holds cache warmer settings
type WarmerConfig struct {
	Schedule    string   `yaml:"schedule"`
	Currencies  []string `yaml:"currencies"`
	Concurrency int      `yaml:"concurrency"`
	MetricsAddr string   `yaml:"metrics_addr"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel observability.LogLevel `yaml:"-"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// fileConfig mirrors Config for the YAML overlay. The log level is read as a
// string so it goes through parseLogLevel like the env var does.
type fileConfig struct {
	Config   `yaml:",inline"`
	LogLevel string `yaml:"log_level"`
}

// LoadConfig builds configuration from defaults, then the YAML file named by
// BOXOFFICE_CONFIG_FILE (if any), then BOXOFFICE_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := getEnv("BOXOFFICE_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns: 20,
			MinConns: 5,
			Timeout:  30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			MaxEntries: 10000,
			RedisDB:    0,
			KeyPrefix:  "boxoffice:",
		},
		Warmer: WarmerConfig{
			Schedule:    "*/5 * * * *",
			Concurrency: 4,
			MetricsAddr: ":9090",
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.InfoLevel,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "boxoffice",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	overlay := fileConfig{Config: *c}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	*c = overlay.Config
	if overlay.LogLevel != "" {
		c.Observability.LogLevel = parseLogLevel(overlay.LogLevel)
	}
	return nil
}

func (c *Config) applyEnv() {
	// Database
	c.Database.URL = getEnv("BOXOFFICE_POSTGRES_URL", c.Database.URL)
	c.Database.ReplicaURLs = getEnv("BOXOFFICE_POSTGRES_REPLICA_URLS", c.Database.ReplicaURLs)
	if maxConns := getEnvInt("BOXOFFICE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		c.Database.MaxConns = maxConns
	}
	if minConns := getEnvInt("BOXOFFICE_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		c.Database.MinConns = minConns
	}
	c.Database.Timeout = getEnvDuration("BOXOFFICE_POSTGRES_TIMEOUT", c.Database.Timeout)

	// Cache
	c.Cache.Backend = strings.ToLower(getEnv("BOXOFFICE_CACHE_BACKEND", c.Cache.Backend))
	if maxEntries := getEnvInt("BOXOFFICE_CACHE_MAX_ENTRIES", 0); maxEntries > 0 {
		c.Cache.MaxEntries = maxEntries
	}
	c.Cache.RedisURL = getEnv("BOXOFFICE_REDIS_URL", c.Cache.RedisURL)
	c.Cache.RedisPassword = getEnv("BOXOFFICE_REDIS_PASSWORD", c.Cache.RedisPassword)
	if redisDB := getEnvInt("BOXOFFICE_REDIS_DB", -1); redisDB >= 0 {
		c.Cache.RedisDB = redisDB
	}
	if poolSize := getEnvInt("BOXOFFICE_REDIS_POOL_SIZE", 0); poolSize > 0 {
		c.Cache.RedisPoolSize = poolSize
	}
	c.Cache.KeyPrefix = getEnv("BOXOFFICE_CACHE_KEY_PREFIX", c.Cache.KeyPrefix)

	// Warmer
	c.Warmer.Schedule = getEnv("BOXOFFICE_WARMER_SCHEDULE", c.Warmer.Schedule)
	if currencies := getEnv("BOXOFFICE_WARMER_CURRENCIES", ""); currencies != "" {
		c.Warmer.Currencies = splitList(currencies)
	}
	if concurrency := getEnvInt("BOXOFFICE_WARMER_CONCURRENCY", 0); concurrency > 0 {
		c.Warmer.Concurrency = concurrency
	}
	c.Warmer.MetricsAddr = getEnv("BOXOFFICE_METRICS_ADDR", c.Warmer.MetricsAddr)

	// Observability
	if level := getEnv("BOXOFFICE_LOG_LEVEL", ""); level != "" {
		c.Observability.LogLevel = parseLogLevel(level)
	}
	c.Observability.OTelEnabled = getEnvBool("BOXOFFICE_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("BOXOFFICE_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("BOXOFFICE_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("BOXOFFICE_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("BOXOFFICE_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("postgres min conns (%d) exceeds max conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory, redis, or none)", c.Cache.Backend)
	}

	if c.Warmer.Concurrency <= 0 {
		return fmt.Errorf("warmer concurrency must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// TracingConfig converts the OTel settings for observability.InitTracing
func (c *Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
