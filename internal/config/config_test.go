package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"GitPath", cfg.GitPath, "git"},
		{"BaseURL", cfg.BaseURL, "https://example.org/repo/"},
		{"MarkerFile", cfg.MarkerFile, "VERSION"},
		{"MetadataFile", cfg.MetadataFile, "manifest.json"},
		{"HistoryDB", cfg.HistoryDB, ".pulsar/history.db"},
		{"StateFile", cfg.StateFile, ".pulsar/state.toml"},
		{"TelemetryFile", cfg.TelemetryFile, ""},
		{"IntegrityTimeoutMS", cfg.IntegrityTimeoutMS, 1000},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "git_path",
			envKey: "PULSAR_GIT_PATH",
			envVal: "/usr/local/bin/git",
			field:  func(c Config) any { return c.GitPath },
			want:   "/usr/local/bin/git",
		},
		{
			name:   "base_url",
			envKey: "PULSAR_BASE_URL",
			envVal: "https://git.example.org/components",
			field:  func(c Config) any { return c.BaseURL },
			want:   "https://git.example.org/components",
		},
		{
			name:   "marker_file",
			envKey: "PULSAR_MARKER_FILE",
			envVal: "RELEASE",
			field:  func(c Config) any { return c.MarkerFile },
			want:   "RELEASE",
		},
		{
			name:   "integrity_timeout_ms",
			envKey: "PULSAR_INTEGRITY_TIMEOUT_MS",
			envVal: "2500",
			field:  func(c Config) any { return c.IntegrityTimeoutMS },
			want:   2500,
		},
		{
			name:   "verbose",
			envKey: "PULSAR_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Verbose },
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			// Set env prefix so PULSAR_* env vars map to config keys.
			viper.SetEnvPrefix("PULSAR")
			viper.AutomaticEnv()

			os.Setenv(tt.envKey, tt.envVal)
			defer os.Unsetenv(tt.envKey)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestConfig_IntegrityTimeout(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if got := cfg.IntegrityTimeout(); got != time.Second {
		t.Errorf("IntegrityTimeout() = %v, want %v", got, time.Second)
	}
}
