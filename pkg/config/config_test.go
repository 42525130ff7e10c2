package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/boxoffice/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "BOXOFFICE_TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "BOXOFFICE_TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns true for 'true'", false, "true", true},
		{"returns true for 'TRUE'", false, "TRUE", true},
		{"returns true for '1'", false, "1", true},
		{"returns false for 'false'", true, "false", false},
		{"returns false for garbage", true, "yes please", false},
		{"returns default when not set", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("BOXOFFICE_TEST_BOOL", tt.envValue)
			}
			if got := getEnvBool("BOXOFFICE_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvIntAndDuration(t *testing.T) {
	t.Setenv("BOXOFFICE_TEST_INT", "42")
	t.Setenv("BOXOFFICE_TEST_BAD_INT", "forty-two")
	t.Setenv("BOXOFFICE_TEST_DURATION", "45s")
	t.Setenv("BOXOFFICE_TEST_BAD_DURATION", "soon")

	assert.Equal(t, 42, getEnvInt("BOXOFFICE_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("BOXOFFICE_TEST_BAD_INT", 7))
	assert.Equal(t, 45*time.Second, getEnvDuration("BOXOFFICE_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("BOXOFFICE_TEST_BAD_DURATION", time.Second))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  observability.LogLevel
	}{
		{"debug", observability.DebugLevel},
		{"INFO", observability.InfoLevel},
		{"warn", observability.WarnLevel},
		{"warning", observability.WarnLevel},
		{"error", observability.ErrorLevel},
		{"loud", observability.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BOXOFFICE_POSTGRES_URL", "postgres://localhost/boxoffice")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/boxoffice", cfg.Database.URL)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "boxoffice:", cfg.Cache.KeyPrefix)
	assert.Equal(t, "*/5 * * * *", cfg.Warmer.Schedule)
	assert.Equal(t, 4, cfg.Warmer.Concurrency)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadConfig_MissingDatabase(t *testing.T) {
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres URL is required")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BOXOFFICE_POSTGRES_URL", "postgres://primary/boxoffice")
	t.Setenv("BOXOFFICE_POSTGRES_REPLICA_URLS", "postgres://r1/boxoffice,postgres://r2/boxoffice")
	t.Setenv("BOXOFFICE_CACHE_BACKEND", "Redis")
	t.Setenv("BOXOFFICE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("BOXOFFICE_WARMER_CURRENCIES", "aud, usd,,")
	t.Setenv("BOXOFFICE_LOG_LEVEL", "debug")
	t.Setenv("BOXOFFICE_OTEL_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://r1/boxoffice,postgres://r2/boxoffice", cfg.Database.ReplicaURLs)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, []string{"aud", "usd"}, cfg.Warmer.Currencies)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.TracingConfig().Enabled)
	assert.Equal(t, "localhost:4317", cfg.TracingConfig().Endpoint)
}

func TestLoadConfig_FileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boxoffice.yaml")
	content := `
log_level: warn
database:
  url: postgres://file/boxoffice
  max_conns: 8
  timeout: 10s
cache:
  backend: redis
  redis_url: redis://file:6379/1
warmer:
  schedule: "@hourly"
  currencies: [AUD]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("BOXOFFICE_CONFIG_FILE", path)
	t.Setenv("BOXOFFICE_POSTGRES_MAX_CONNS", "12")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/boxoffice", cfg.Database.URL)
	assert.Equal(t, 12, cfg.Database.MaxConns, "env wins over file")
	assert.Equal(t, 5, cfg.Database.MinConns, "unset keys keep defaults")
	assert.Equal(t, 10*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "boxoffice:", cfg.Cache.KeyPrefix)
	assert.Equal(t, "@hourly", cfg.Warmer.Schedule)
	assert.Equal(t, []string{"AUD"}, cfg.Warmer.Currencies)
	assert.Equal(t, observability.WarnLevel, cfg.Observability.LogLevel)
}

func TestLoadConfig_FileErrors(t *testing.T) {
	t.Setenv("BOXOFFICE_POSTGRES_URL", "postgres://localhost/boxoffice")

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("BOXOFFICE_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0644))
		t.Setenv("BOXOFFICE_CONFIG_FILE", path)
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Database.URL = "postgres://localhost/boxoffice"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"no cache", func(c *Config) { c.Cache.Backend = "none" }, ""},
		{"missing database", func(c *Config) { c.Database.URL = "" }, "postgres URL is required"},
		{"min over max", func(c *Config) { c.Database.MinConns = 50 }, "exceeds max conns"},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis" }, "redis URL is required"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "invalid cache backend"},
		{"zero concurrency", func(c *Config) { c.Warmer.Concurrency = 0 }, "concurrency must be positive"},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = ""
		}, "endpoint is required"},
		{"otel without service name", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = ""
		}, "service name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
