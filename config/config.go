package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SAMSCRAPER_SAM_TIMEOUT=2m
const EnvPrefix = "SAMSCRAPER"

// Load loads the configuration from file. Without an explicit path a missing
// config file is not an error and the defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".samscraper"))
		}

		// Check /etc
		v.AddConfigPath("/etc/samscraper/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// sam.gov defaults
	v.SetDefault("sam.base_url", "https://sam.gov")
	v.SetDefault("sam.timeout", "60s")

	// Search defaults
	v.SetDefault("search.sort", "relevance")
	v.SetDefault("search.status", "active")
	v.SetDefault("search.limit", "9999999999")
	v.SetDefault("search.query", "construction")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	v.SetDefault("update.repository", "s0up4200/samscraper")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.SAM.BaseURL == "" {
		return fmt.Errorf("sam.base_url is required")
	}
	if u, err := url.Parse(cfg.SAM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("sam.base_url must be an absolute URL: %s", cfg.SAM.BaseURL)
	}

	if cfg.SAM.Timeout < 0 {
		return fmt.Errorf("sam.timeout must not be negative: %s", cfg.SAM.Timeout)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	for name, preset := range cfg.Filter.Presets {
		if strings.TrimSpace(preset.Expression) == "" {
			return fmt.Errorf("filter preset '%s' has no expression", name)
		}
	}

	return nil
}
