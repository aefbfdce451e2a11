// Package config loads the firstnames configuration with viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/firstnames/pkg/batch"
	"github.com/Sternrassler/firstnames/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FIRSTNAMES_SERVER_ADDR.
const EnvPrefix = "FIRSTNAMES"

// DefaultUserAgent identifies the service to the classification APIs.
const DefaultUserAgent = "firstnames/1.0 (+https://github.com/Sternrassler/firstnames)"

// NewViper returns a viper instance with defaults and environment bindings.
// Callers may bind command-line flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("api.gender_url", "https://api.genderize.io")
	v.SetDefault("api.country_url", "https://api.nationalize.io")
	v.SetDefault("api.user_agent", DefaultUserAgent)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.chunk_size", batch.MaxChunkSize)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)

	v.SetDefault("errors.expiry", "10s")
}

// Load reads configFile (if not empty) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	var errs []error

	for key, raw := range map[string]string{"api.gender_url": c.API.GenderURL, "api.country_url": c.API.CountryURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL (got %q)", key, raw))
		}
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		errs = append(errs, errors.New("api.user_agent must not be empty"))
	}
	if c.API.ChunkSize < 1 || c.API.ChunkSize > batch.MaxChunkSize {
		errs = append(errs, fmt.Errorf("api.chunk_size must be between 1 and %d (got %d)", batch.MaxChunkSize, c.API.ChunkSize))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive (got %s)", c.API.Timeout))
	}
	if c.Errors.Expiry <= 0 {
		errs = append(errs, fmt.Errorf("errors.expiry must be positive (got %s)", c.Errors.Expiry))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must not be negative (got %s)", c.Server.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the validated logging level.
func (c *Config) LogLevel() logging.LogLevel {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

// ShutdownTimeout returns the server shutdown timeout, defaulting to 10s.
func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return c.Server.ShutdownTimeout
}
