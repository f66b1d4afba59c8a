// Package config defines the process configuration and its YAML loader. The
// storage backend is selected here exactly once; everything downstream
// receives an already-constructed store and never branches on the choice.
package config

import (
	"time"

	"github.com/haven-sec/rehearse/internal/observability"
)

// Backend names accepted by storage.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the root configuration.
type Config struct {
	Core     CoreConfig                  `mapstructure:"core" yaml:"core" validate:"required"`
	Storage  StorageConfig               `mapstructure:"storage" yaml:"storage" validate:"required"`
	Playbook PlaybookConfig              `mapstructure:"playbook" yaml:"playbook" validate:"required"`
	Advisory AdvisoryConfig              `mapstructure:"advisory" yaml:"advisory"`
	Logging  observability.LogConfig     `mapstructure:"logging" yaml:"logging"`
	Tracing  observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string `mapstructure:"home_dir" yaml:"home_dir"`
	Debug   bool   `mapstructure:"debug" yaml:"debug"`
}

// StorageConfig selects and parameterizes the session store backend.
type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=file sqlite"`

	File   FileStorageConfig   `mapstructure:"file" yaml:"file"`
	SQLite SQLiteStorageConfig `mapstructure:"sqlite" yaml:"sqlite"`
}

// FileStorageConfig parameterizes the ephemeral file backend.
type FileStorageConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SQLiteStorageConfig parameterizes the relational backend.
type SQLiteStorageConfig struct {
	Path           string        `mapstructure:"path" yaml:"path"`
	MaxConnections int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=0,max=100"`
	BusyTimeout    time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout"`
}

// PlaybookConfig locates the playbook definitions.
type PlaybookConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" validate:"required"`
}

// AdvisoryConfig selects the guidance text generator.
type AdvisoryConfig struct {
	// Generator is "static" or "llm".
	Generator string `mapstructure:"generator" yaml:"generator" validate:"omitempty,oneof=static llm"`

	// Provider and Model configure the llm generator. Credentials come from
	// the provider's usual environment variables, never from this file.
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
}
