// Package config holds the application configuration loaded through viper.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the assistant configuration.
type Config struct {
	SessionsDir    string `toml:"sessions_dir" mapstructure:"sessions_dir"`       // Directory for session JSON files
	HandlersDir    string `toml:"handlers_dir" mapstructure:"handlers_dir"`       // Directory for handler TOML definitions
	DefaultHandler string `toml:"default_handler" mapstructure:"default_handler"` // Fallback handler when no keyword matches
	HistoryWindow  int    `toml:"history_window" mapstructure:"history_window"`   // Prior messages replayed into generation (0 = all)
	ChunkSize      int    `toml:"chunk_size" mapstructure:"chunk_size"`           // Target reply fragment size in bytes
}

// NewDefaultConfig returns a Config with default values rooted at configDir.
func NewDefaultConfig(configDir string) *Config {
	return &Config{
		SessionsDir:    filepath.Join(configDir, "sessions"),
		HandlersDir:    filepath.Join(configDir, "handlers"),
		DefaultHandler: "general",
		HistoryWindow:  0, // Replay full history by default
		ChunkSize:      24,
	}
}

// LoadConfig loads configuration from viper and resolves relative paths
// against the config file's directory.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	var err error
	if cfg.SessionsDir, err = ResolvePath(cfg.SessionsDir); err != nil {
		return nil, fmt.Errorf("resolving sessions_dir: %w", err)
	}
	if cfg.HandlersDir, err = ResolvePath(cfg.HandlersDir); err != nil {
		return nil, fmt.Errorf("resolving handlers_dir: %w", err)
	}

	if cfg.DefaultHandler == "" {
		cfg.DefaultHandler = "general"
	}
	return &cfg, nil
}
