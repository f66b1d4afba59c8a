package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/haven-sec/rehearse/internal/types"
)

// Loader reads configuration from YAML files.
type Loader interface {
	// Load reads and validates the file at path.
	Load(path string) (*Config, error)

	// LoadWithDefaults behaves like Load but returns DefaultConfig when the
	// file does not exist.
	LoadWithDefaults(path string) (*Config, error)
}

type viperLoader struct {
	validator Validator
}

// NewLoader creates a Loader backed by viper.
func NewLoader(validator Validator) Loader {
	return &viperLoader{validator: validator}
}

func (l *viperLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults fill anything the file leaves out, so a partial config file
	// is always usable.
	defaults := DefaultConfig()
	v.SetDefault("core", map[string]any{})
	v.SetDefault("storage.backend", defaults.Storage.Backend)
	v.SetDefault("storage.file.dir", defaults.Storage.File.Dir)
	v.SetDefault("storage.sqlite.path", defaults.Storage.SQLite.Path)
	v.SetDefault("storage.sqlite.max_connections", defaults.Storage.SQLite.MaxConnections)
	v.SetDefault("storage.sqlite.busy_timeout", defaults.Storage.SQLite.BusyTimeout)
	v.SetDefault("playbook.dir", defaults.Playbook.Dir)
	v.SetDefault("advisory.generator", defaults.Advisory.Generator)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to unmarshal config", err)
	}
	if cfg.Core.HomeDir == "" {
		cfg.Core.HomeDir = defaults.Core.HomeDir
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *viperLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return l.Load(path)
}
