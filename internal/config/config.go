// Package config loads rstreamcat settings from defaults, an optional
// YAML file, an optional dotenv file and RSTREAM_* environment variables,
// in increasing order of precedence.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "RSTREAM"

// Config is the full rstreamcat configuration.
type Config struct {
	Log       LogConfig `mapstructure:"log"`
	ChunkSize int       `mapstructure:"chunk_size"`
	Offset    int64     `mapstructure:"offset"`
	Whence    string    `mapstructure:"whence"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoaderConfig names the optional files to read.
type LoaderConfig struct {
	ConfigFile      string
	EnvironmentFile string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("chunk_size", 64*1024)
	v.SetDefault("offset", 0)
	v.SetDefault("whence", "start")
}

// Load builds a Config from v, which may already carry bound flags.
func Load(v *viper.Viper, lc LoaderConfig) (*Config, error) {
	SetDefaults(v)

	if lc.EnvironmentFile != "" {
		if err := godotenv.Load(lc.EnvironmentFile); err != nil {
			return nil, fmt.Errorf("failed to load environment file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// ParseLevel parses the configured level, falling back to info.
func (c *LogConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(c.Level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// ConfigureZerolog sets the global level and returns a logger writing to w
// in the configured format.
func (c *LogConfig) ConfigureZerolog(w io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(c.ParseLevel())
	if w == nil {
		w = os.Stderr
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
