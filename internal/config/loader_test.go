package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/firstnames/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(NewViper(), "")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, "https://api.genderize.io", cfg.API.GenderURL)
		assert.Equal(t, "https://api.nationalize.io", cfg.API.CountryURL)
		assert.Equal(t, DefaultUserAgent, cfg.API.UserAgent)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
		assert.Equal(t, 10, cfg.API.ChunkSize)

		assert.Empty(t, cfg.Redis.Addr)
		assert.Equal(t, 0, cfg.Redis.DB)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.False(t, cfg.Logging.Pretty)
		assert.Equal(t, 10*time.Second, cfg.Errors.Expiry)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "firstnames.yaml")
		content := `
server:
  addr: "127.0.0.1:9090"
api:
  chunk_size: 5
  timeout: 5s
redis:
  addr: "localhost:6379"
  db: 3
logging:
  level: debug
  pretty: true
errors:
  expiry: 3s
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(NewViper(), path)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
		assert.Equal(t, 5, cfg.API.ChunkSize)
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 3, cfg.Redis.DB)
		assert.Equal(t, logging.LevelDebug, cfg.LogLevel())
		assert.True(t, cfg.Logging.Pretty)
		assert.Equal(t, 3*time.Second, cfg.Errors.Expiry)

		// Keys absent from the file keep their defaults.
		assert.Equal(t, "https://api.genderize.io", cfg.API.GenderURL)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("FIRSTNAMES_SERVER_ADDR", ":7070")
		t.Setenv("FIRSTNAMES_API_CHUNK_SIZE", "4")
		t.Setenv("FIRSTNAMES_ERRORS_EXPIRY", "1m")
		t.Setenv("FIRSTNAMES_LOGGING_PRETTY", "true")

		cfg, err := Load(NewViper(), "")
		require.NoError(t, err)

		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, 4, cfg.API.ChunkSize)
		assert.Equal(t, time.Minute, cfg.Errors.Expiry)
		assert.True(t, cfg.Logging.Pretty)
	})

	t.Run("ExplicitOverride", func(t *testing.T) {
		v := NewViper()
		v.Set("logging.level", "warn")

		cfg, err := Load(v, "")
		require.NoError(t, err)
		assert.Equal(t, logging.LevelWarn, cfg.LogLevel())
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "chunk size too large", mutate: func(c *Config) { c.API.ChunkSize = 11 }, wantErr: "api.chunk_size must be between 1 and 10"},
		{name: "chunk size zero", mutate: func(c *Config) { c.API.ChunkSize = 0 }, wantErr: "api.chunk_size"},
		{name: "relative url", mutate: func(c *Config) { c.API.GenderURL = "api.genderize.io" }, wantErr: "api.gender_url must be an absolute URL"},
		{name: "empty user agent", mutate: func(c *Config) { c.API.UserAgent = " " }, wantErr: "api.user_agent"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "zero expiry", mutate: func(c *Config) { c.Errors.Expiry = 0 }, wantErr: "errors.expiry"},
		{name: "zero api timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: "api.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(NewViper(), "")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())

	cfg.Server.ShutdownTimeout = 3 * time.Second
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout())
}
