// Package config loads client configuration from environment variables and
// an optional .env file. Environment variables take precedence over .env
// values, which take precedence over defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Config holds everything needed to reach the remote finding store.
type Config struct {
	HubEndpoint string // Base URL of the finding store API
	APIToken    string // Bearer token for the API
	PageSize    int    // Findings per query page
	LogLevel    string // zerolog level (trace..panic)
	MetricsAddr string // Optional prometheus exposition address
}

const maxPageSize = 100

// Load reads configuration. It does not check production-readiness
// constraints; use Validate for that.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	// A missing .env is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		HubEndpoint: v.GetString("HUB_ENDPOINT"),
		APIToken:    v.GetString("HUB_API_TOKEN"),
		PageSize:    v.GetInt("HUB_PAGE_SIZE"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HUB_ENDPOINT", "")
	v.SetDefault("HUB_API_TOKEN", "")
	v.SetDefault("HUB_PAGE_SIZE", maxPageSize)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ADDR", "")
}

// Validate checks the constraints a live run needs.
func (c *Config) Validate() error {
	if c.HubEndpoint == "" {
		return fmt.Errorf("HUB_ENDPOINT is required")
	}
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("HUB_PAGE_SIZE %d outside 1-%d", c.PageSize, maxPageSize)
	}
	return nil
}
