package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectra-ai-research/halberd/internal/types"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, NewValidator().Validate(cfg))

	assert.NotEmpty(t, cfg.Core.HomeDir)
	assert.Equal(t, filepath.Join(cfg.Core.HomeDir, "playbooks"), cfg.Playbooks.Dir)
	assert.Equal(t, filepath.Join(cfg.Core.HomeDir, "outputs"), cfg.Reports.OutputDir)
	assert.Equal(t, filepath.Join(cfg.Core.HomeDir, "Schedules.yml"), cfg.Schedules.Path)
	assert.Equal(t, time.Minute, cfg.Schedules.PollInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidFile(t *testing.T) {
	path := writeConfigFile(t, `
core:
  home_dir: /opt/halberd
playbooks:
  dir: /opt/halberd/playbooks
  export_dir: /opt/halberd/exports
reports:
  output_dir: /opt/halberd/outputs
schedules:
  path: /opt/halberd/Schedules.yml
  poll_interval: 30s
database:
  path: /opt/halberd/halberd.db
  max_connections: 5
  busy_timeout: 5s
logging:
  level: debug
  format: json
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/halberd", cfg.Core.HomeDir)
	assert.Equal(t, 30*time.Second, cfg.Schedules.PollInterval)
	assert.Equal(t, 5, cfg.Database.MaxConnections)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewConfigLoader(NewValidator()).Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var halberdErr *types.HalberdError
	require.ErrorAs(t, err, &halberdErr)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, halberdErr.Code)
}

func TestLoadInvalidValues(t *testing.T) {
	path := writeConfigFile(t, `
core:
  home_dir: /opt/halberd
playbooks:
  dir: /opt/halberd/playbooks
  export_dir: /opt/halberd/exports
reports:
  output_dir: /opt/halberd/outputs
schedules:
  path: /opt/halberd/Schedules.yml
  poll_interval: 30s
database:
  path: /opt/halberd/halberd.db
  max_connections: 5
  busy_timeout: 5s
logging:
  level: loud
  format: json
`)

	_, err := NewConfigLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadWithDefaultsFallsBack(t *testing.T) {
	cfg, err := NewConfigLoader(NewValidator()).LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Logging, cfg.Logging)
}

func TestEnvInterpolation(t *testing.T) {
	t.Setenv("HALBERD_TEST_HOME", "/srv/halberd")

	path := writeConfigFile(t, `
core:
  home_dir: ${HALBERD_TEST_HOME}
playbooks:
  dir: ${HALBERD_TEST_HOME}/playbooks
  export_dir: ${HALBERD_TEST_HOME}/exports
reports:
  output_dir: ${HALBERD_TEST_HOME}/outputs
schedules:
  path: ${HALBERD_TEST_HOME}/Schedules.yml
  poll_interval: 1m
database:
  path: ${HALBERD_TEST_HOME}/halberd.db
  max_connections: 5
  busy_timeout: 5s
logging:
  level: info
  format: text
`)

	cfg, err := NewConfigLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/halberd", cfg.Core.HomeDir)
	assert.Equal(t, "/srv/halberd/playbooks", cfg.Playbooks.Dir)
	assert.Equal(t, "/srv/halberd/halberd.db", cfg.Database.Path)
}

func TestEnvInterpolationUnknownVarUntouched(t *testing.T) {
	assert.Equal(t, "${NO_SUCH_VAR_SET}/x", interpolateString("${NO_SUCH_VAR_SET}/x"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("visible", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"visible"`)
	assert.Contains(t, out, `"key":"value"`)

	textLogger := NewLogger(LoggingConfig{Level: "debug", Format: "text"}, &buf)
	textLogger.Debug("fine-grained")
	assert.Contains(t, buf.String(), "fine-grained")
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
}
