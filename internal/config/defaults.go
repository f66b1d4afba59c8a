package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haven-sec/rehearse/internal/observability"
)

// DefaultConfig returns a Config with working defaults: file-backed storage
// under the home directory, static advisory text, text logging at info.
func DefaultConfig() *Config {
	homeDir := defaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			Debug:   false,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			File: FileStorageConfig{
				Dir: filepath.Join(homeDir, "state"),
			},
			SQLite: SQLiteStorageConfig{
				Path:           filepath.Join(homeDir, "rehearse.db"),
				MaxConnections: 10,
				BusyTimeout:    5 * time.Second,
			},
		},
		Playbook: PlaybookConfig{
			Dir: filepath.Join(homeDir, "playbooks"),
		},
		Advisory: AdvisoryConfig{
			Generator: "static",
		},
		Logging: observability.LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: observability.TracingConfig{
			Enabled: false,
		},
	}
}

func defaultHomeDir() string {
	if env := os.Getenv("REHEARSE_HOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rehearse"
	}
	return filepath.Join(home, ".rehearse")
}
