// Package config defines the coordinator configuration surface and its
// viper-backed loading and validation.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/BANCS-Norway/session-coordinator/internal/logging"
	"github.com/BANCS-Norway/session-coordinator/internal/storage"
)

// Config represents the complete coordinator configuration
type Config struct {
	Storage storage.Config `mapstructure:"storage"`
	Session SessionConfig  `mapstructure:"session"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

// SessionConfig controls how machine and project identity are resolved
type SessionConfig struct {
	// MachineID is the machine identifier, or "auto" to use the hostname
	MachineID string `mapstructure:"machine_id"`
	// ProjectDetection selects project identity resolution
	// Options: "git" (origin remote, directory fallback), "directory"
	ProjectDetection string `mapstructure:"project_detection"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "DEBUG", "INFO", "WARN", "ERROR" (default: "INFO")
	Level string `mapstructure:"level"`
	// File is the log file path; empty logs to stderr
	File string `mapstructure:"file"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Storage: storage.Config{
			Adapter: "local",
			Config: map[string]any{
				"base_path": storage.DefaultBasePath,
			},
		},
		Session: SessionConfig{
			MachineID:        "auto",
			ProjectDetection: "git",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "INFO",
			File:    "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Storage defaults
	viper.SetDefault("storage.adapter", defaults.Storage.Adapter)
	viper.SetDefault("storage.config", defaults.Storage.Config)

	// Session defaults
	viper.SetDefault("session.machine_id", defaults.Session.MachineID)
	viper.SetDefault("session.project_detection", defaults.Session.ProjectDetection)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "session-coordinator")
	}
	// Fall back to ~/.config/session-coordinator
	home, err := os.UserHomeDir()
	if err != nil {
		return ".session-coordinator"
	}
	return filepath.Join(home, ".config", "session-coordinator")
}

// ConfigFile returns the path to the user config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ProjectConfigFile returns the path of the project-local config file
// relative to the given directory.
func ProjectConfigFile(dir string) string {
	return filepath.Join(dir, ".claude", "session-coordinator.yaml")
}

// ValidProjectDetectionModes returns the list of valid project detection modes
func ValidProjectDetectionModes() []string {
	return []string{"git", "directory"}
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return logging.ValidLevels()
}
