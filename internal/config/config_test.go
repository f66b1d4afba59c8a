package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-sec/rehearse/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rehearse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, NewValidator().Validate(DefaultConfig()))
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
core:
  home_dir: /var/lib/rehearse
  debug: true
storage:
  backend: sqlite
  sqlite:
    path: /var/lib/rehearse/rehearse.db
    max_connections: 4
    busy_timeout: 2s
playbook:
  dir: /etc/rehearse/playbooks
advisory:
  generator: llm
  provider: anthropic
  model: claude-sonnet-4-5
logging:
  level: debug
  format: json
tracing:
  enabled: true
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Core.Debug)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, 4, cfg.Storage.SQLite.MaxConnections)
	assert.Equal(t, 2*time.Second, cfg.Storage.SQLite.BusyTimeout)
	assert.Equal(t, "/etc/rehearse/playbooks", cfg.Playbook.Dir)
	assert.Equal(t, "llm", cfg.Advisory.Generator)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadPartialConfigFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: file
  file:
    dir: /tmp/rehearse-state
playbook:
  dir: /tmp/playbooks
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/rehearse-state", cfg.Storage.File.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "static", cfg.Advisory.Generator)
	assert.NotEmpty(t, cfg.Core.HomeDir)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: dynamo
playbook:
  dir: /tmp/playbooks
`)

	_, err := NewLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestLoadRejectsLLMWithoutProvider(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: file
  file:
    dir: /tmp/state
playbook:
  dir: /tmp/playbooks
advisory:
  generator: llm
`)

	_, err := NewLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisory.provider")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(NewValidator()).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := NewLoader(NewValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
}

func TestLoadWithDefaultsExistingFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: file
  file:
    dir: /tmp/state
playbook:
  dir: /opt/playbooks
`)

	cfg, err := NewLoader(NewValidator()).LoadWithDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/playbooks", cfg.Playbook.Dir)
}
