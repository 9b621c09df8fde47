package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	SAM     SAMConfig     `mapstructure:"sam"`
	Search  SearchConfig  `mapstructure:"search"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
	Update  UpdateConfig  `mapstructure:"update"`
}

// SAMConfig holds sam.gov API connection details
type SAMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig holds the defaults used when search flags are not given
type SearchConfig struct {
	Sort   string `mapstructure:"sort"`
	Status string `mapstructure:"status"`
	Limit  string `mapstructure:"limit"`
	Query  string `mapstructure:"query"`
}

// FilterConfig contains filter definitions
type FilterConfig struct {
	DefaultExpression string                  `mapstructure:"default_expression"`
	Presets           map[string]PresetFilter `mapstructure:"presets"`
}

// PresetFilter is a named filter expression
type PresetFilter struct {
	Expression  string `mapstructure:"expression"`
	Description string `mapstructure:"description"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// UpdateConfig controls self-update
type UpdateConfig struct {
	Repository string `mapstructure:"repository"`
}
