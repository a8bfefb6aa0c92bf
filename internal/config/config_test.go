// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "Current CPC Professional", cfg.Review.Actor)
	assert.Equal(t, "1/2/2006, 3:04:05 PM", cfg.Export.TimeLayout)
	assert.Equal(t, "Local", cfg.Export.Location)
	assert.Equal(t, "audit_log_", cfg.Export.FilenamePrefix)
	assert.Equal(t, "coding-audit", cfg.Server.Name)
	assert.Equal(t, "0.1.0", cfg.Server.Version)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
review:
  actor: jdoe
export:
  location: UTC
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "jdoe", cfg.Review.Actor)
	assert.Equal(t, "UTC", cfg.Export.Location)
	// Defaults still apply for unset values
	assert.Equal(t, "audit_log_", cfg.Export.FilenamePrefix)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "review.yaml")
	require.NoError(t, os.WriteFile(path, []byte("review:\n  actor: auditor\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "auditor", cfg.Review.Actor)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicitly named file must exist")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0644))
	t.Setenv("MEDAUDIT_LOG_LEVEL", "warn")
	t.Setenv("MEDAUDIT_REVIEW_ACTOR", "env-reviewer")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env-reviewer", cfg.Review.Actor)
}

func TestTimeLocation(t *testing.T) {
	loc, err := ExportConfig{Location: "UTC"}.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = ExportConfig{Location: "Mars/Olympus_Mons"}.TimeLocation()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
