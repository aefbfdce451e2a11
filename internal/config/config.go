package config

import "time"

// Config represents the complete application configuration. Values are
// layered: built-in defaults, an optional YAML file, FIRSTNAMES_*
// environment variables and finally command-line flags.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Logging LoggingConfig `mapstructure:"logging"`
	Errors  ErrorsConfig  `mapstructure:"errors"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds non-streaming responses; the event stream is exempt.
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// APIConfig configures the genderize.io and nationalize.io client.
type APIConfig struct {
	GenderURL  string        `mapstructure:"gender_url"`
	CountryURL string        `mapstructure:"country_url"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ChunkSize  int           `mapstructure:"chunk_size"`
}

// RedisConfig configures the shared quota store. An empty Addr keeps quota
// state in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Pretty switches from JSON to console output.
	Pretty bool `mapstructure:"pretty"`
}

// ErrorsConfig configures the user-visible error queue.
type ErrorsConfig struct {
	Expiry time.Duration `mapstructure:"expiry"`
}
