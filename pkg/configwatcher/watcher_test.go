package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codequiz_backend/internal/config"
	"codequiz_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	logger.InitNop()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  type: minio\ngrading:\n  js_timeout_ms: 1000\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, dir, 20*time.Millisecond, func(cfg *config.Config) { reloaded <- cfg })
	}()

	// 等待 watcher 就绪后再写入
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  type: minio\ngrading:\n  js_timeout_ms: 250\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 250*time.Millisecond, cfg.Grading.JSTimeout())
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchConfigMissingDir(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "missing"), func(*config.Config) {})
	assert.Error(t, err)
}
