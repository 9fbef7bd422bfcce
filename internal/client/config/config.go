// Package config loads client settings from defaults, an optional YAML
// file and DRIFTBOX_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every client setting.
type Config struct {
	// ServerURL is the base URL of the sync backend.
	ServerURL string `mapstructure:"server_url" validate:"required,url"`

	// DatabasePath is the SQLite file holding the local store.
	DatabasePath string `mapstructure:"database_path" validate:"required"`

	// OnlineCheckInterval is how often the network monitor probes the
	// server.
	OnlineCheckInterval time.Duration `mapstructure:"online_check_interval" validate:"gt=0"`

	// RequestTimeout bounds every HTTP request to the server.
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`

	Cache   Cache   `mapstructure:"cache"`
	Logging Logging `mapstructure:"logging"`
}

// Cache bounds the local content-blob cache.
type Cache struct {
	// MaxFileSize is the largest single blob worth caching, in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" validate:"gt=0"`

	// MaxTotalSize is the ceiling for the whole cache, in bytes.
	MaxTotalSize int64 `mapstructure:"max_total_size" validate:"gtefield=MaxFileSize"`
}

// Logging selects log verbosity and output encoding.
type Logging struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("database_path", "driftbox.db")
	v.SetDefault("online_check_interval", "15s")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("cache.max_file_size", 4<<20)
	v.SetDefault("cache.max_total_size", 256<<20)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads the configuration. A non-empty path names an explicit config
// file and must exist; otherwise driftbox.yaml is looked up in the working
// directory and is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DRIFTBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("driftbox")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
