package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: short
storage:
  type: minio
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "codequiz-backend", cfg.Tracing.ServiceName)
	assert.Equal(t, 2*time.Second, cfg.Grading.JSTimeout())
	assert.Equal(t, 10*time.Minute, cfg.Grading.CacheTTL())
	assert.Equal(t, 64*1024, cfg.Grading.MaxSourceBytes)
	assert.Equal(t, 50, cfg.Grading.MaxTestCasesPerRun)
	assert.True(t, cfg.Grading.ArchiveReports)
	assert.Equal(t, 60, cfg.RateLimit.PreviewMaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 15, cfg.Judge0.TimeoutSeconds)
	assert.Equal(t, "logs/codequiz.log", cfg.Log.File)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
}

func TestLoadConfigGradingSection(t *testing.T) {
	dir := writeConfig(t, `
storage:
  type: minio
grading:
  js_timeout_ms: 500
  js_max_call_stack: 256
  cache_ttl_minutes: 3
  archive_reports: false
judge0:
  enabled: true
  url: http://judge0.local
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Grading.JSTimeout())
	assert.Equal(t, 256, cfg.Grading.JSMaxCallStack)
	assert.Equal(t, 3*time.Minute, cfg.Grading.CacheTTL())
	assert.False(t, cfg.Grading.ArchiveReports)
	assert.True(t, cfg.Judge0.Enabled)
	assert.Equal(t, "http://judge0.local", cfg.Judge0.URL)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("JUDGE0_URL", "http://from-env")
	dir := writeConfig(t, `
storage:
  type: minio
judge0:
  url: http://from-file
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Judge0.URL)
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
