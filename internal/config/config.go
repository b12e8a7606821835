package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a pulsar invocation.
// Values are populated from .pulsar.yaml, PULSAR_* env vars, and CLI flags.
type Config struct {
	GitPath            string `mapstructure:"git_path"`
	BaseURL            string `mapstructure:"base_url"`
	MarkerFile         string `mapstructure:"marker_file"`
	MetadataFile       string `mapstructure:"metadata_file"`
	HistoryDB          string `mapstructure:"history_db"`
	StateFile          string `mapstructure:"state_file"`
	TelemetryFile      string `mapstructure:"telemetry_file"`
	IntegrityTimeoutMS int    `mapstructure:"integrity_timeout_ms"`
	Verbose            bool   `mapstructure:"verbose"`
}

// IntegrityTimeout returns the per-call deadline for tag integrity probes.
func (c Config) IntegrityTimeout() time.Duration {
	return time.Duration(c.IntegrityTimeoutMS) * time.Millisecond
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("git_path", "git")
	viper.SetDefault("base_url", "https://example.org/repo/")
	viper.SetDefault("marker_file", "VERSION")
	viper.SetDefault("metadata_file", "manifest.json")
	viper.SetDefault("history_db", ".pulsar/history.db")
	viper.SetDefault("state_file", ".pulsar/state.toml")
	viper.SetDefault("telemetry_file", "")
	viper.SetDefault("integrity_timeout_ms", 1000)
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
