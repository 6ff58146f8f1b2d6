package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/verte-zerg/plantree/internal/model"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.False(t, cfg.Grove.IsSet())
	assert.Nil(t, cfg.Widget.CaptureCmd)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[grove]
morning-mode = true
threshold-high = 60
merge-count = 5

[widget]
capture-cmd = "parec --raw"
autosave-ticks = 100
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.Grove.IsSet())

	got := cfg.Grove.Overlay(model.DefaultSettings())
	want := model.DefaultSettings()
	want.MorningMode = true
	want.ThresholdHigh = 60
	want.MergeCount = 5
	assert.Equal(t, want, got)

	require.NotNil(t, cfg.Widget.CaptureCmd)
	assert.Equal(t, "parec --raw", *cfg.Widget.CaptureCmd)
	require.NotNil(t, cfg.Widget.AutosaveTicks)
	assert.Equal(t, 100, *cfg.Widget.AutosaveTicks)
	assert.Nil(t, cfg.Widget.TickMs)
}

func TestLoadConfigRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[grove\nmerge-count = "), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("PLANTREE_CAPTURE_CMD=from-file\n"), 0o644))

	t.Setenv(EnvDataDir, "/tmp/grove")
	t.Setenv(EnvCaptureCmd, "")
	require.NoError(t, os.Unsetenv(EnvCaptureCmd))
	require.NoError(t, LoadEnv(envPath))

	var cfg FileConfig
	ApplyEnv(&cfg)
	require.NotNil(t, cfg.Widget.DataDir)
	assert.Equal(t, "/tmp/grove", *cfg.Widget.DataDir)
	require.NotNil(t, cfg.Widget.CaptureCmd)
	assert.Equal(t, "from-file", *cfg.Widget.CaptureCmd)
}

func TestLoadEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestWatchReportsChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[grove]\nmerge-count = 4\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan FileConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, nil, func(cfg FileConfig) {
			changes <- cfg
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[grove]\nmerge-count = 6\n"), 0o644))

	select {
	case cfg := <-changes:
		require.NotNil(t, cfg.Grove.MergeCount)
		assert.Equal(t, 6, *cfg.Grove.MergeCount)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for config change")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestGroveMergePrefersOverKeys(t *testing.T) {
	fileLow, fileMerge, flagMerge := 10, 5, 3
	file := GroveConfig{ThresholdLow: &fileLow, MergeCount: &fileMerge}
	flags := GroveConfig{MergeCount: &flagMerge}

	got := file.Merge(flags)
	require.NotNil(t, got.ThresholdLow)
	assert.Equal(t, 10, *got.ThresholdLow)
	require.NotNil(t, got.MergeCount)
	assert.Equal(t, 3, *got.MergeCount)
	assert.Nil(t, got.GrowthSpeed)

	assert.Equal(t, file, file.Merge(GroveConfig{}))
	assert.False(t, GroveConfig{}.Merge(GroveConfig{}).IsSet())
}
