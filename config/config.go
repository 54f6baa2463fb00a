package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Catalog     CatalogConfig
	Cache       CacheConfig
	Sync        SyncConfig
	Persistence PersistenceConfig
	Logging     LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds shared catalog API configuration
type CatalogConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	UserAgent         string `mapstructure:"user_agent"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// CacheConfig holds product cache configuration
type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// SyncConfig holds catalog contribution configuration
type SyncConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PersistenceConfig holds the host record-store endpoint
type PersistenceConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scancart/")

	v.SetEnvPrefix("SCANCART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("catalog.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("catalog.user_agent", "ScanCart/1.0 (backend)")
	v.SetDefault("catalog.requests_per_minute", 100)

	v.SetDefault("cache.capacity", 1000)

	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.timeout", "10s")

	v.SetDefault("logging.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is required (set SCANCART_CATALOG_BASE_URL)")
	}

	if config.Sync.Enabled && config.Catalog.Username == "" {
		return fmt.Errorf("catalog credentials are required when sync is enabled (set SCANCART_CATALOG_USERNAME)")
	}

	if config.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got: %d", config.Cache.Capacity)
	}

	return nil
}
