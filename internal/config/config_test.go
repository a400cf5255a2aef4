package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeXDG points config discovery at fixed paths
type fakeXDG struct {
	configPaths []string
	cacheDir    string
}

func (f *fakeXDG) GetConfigPaths(filename string) []string {
	paths := make([]string, len(f.configPaths))
	for i, p := range f.configPaths {
		paths[i] = filepath.Join(p, filename)
	}
	return paths
}

func (f *fakeXDG) GetCachePath(purpose string) string {
	return filepath.Join(f.cacheDir, purpose)
}

func (f *fakeXDG) CreateCacheDir(purpose string) error {
	return nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func newTestManager(t *testing.T) (*ConfigManager, afero.Fs) {
	t.Helper()
	memFS := afero.NewMemMapFs()
	xdg := &fakeXDG{configPaths: []string{"/home/u/.config/waveseek", "/etc/xdg/waveseek"}, cacheDir: "/home/u/.cache/waveseek"}
	return NewConfigManagerWithXDG(memFS, xdg), memFS
}

func TestDefaultConfigIsValid(t *testing.T) {
	cm, _ := newTestManager(t)
	cfg := cm.GetDefaultConfig()

	require.NoError(t, cm.ValidateConfig(cfg))
	assert.Equal(t, "auto", cfg.OutputBackend)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, time.Second, cfg.SettleDelay())
	assert.Equal(t, 1.0, cfg.GetVolume())
	assert.False(t, cfg.FileLogging.Enabled)
}

func TestUnsetOptionalValues(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, time.Duration(DefaultSettleDelayMs)*time.Millisecond, cfg.SettleDelay())
	assert.Equal(t, 1.0, cfg.GetVolume())

	cfg.SettleDelayMs = intPtr(0)
	assert.Equal(t, time.Duration(0), cfg.SettleDelay())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"volume too loud", func(c *Config) { c.Volume = floatPtr(1.5) }, "volume"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"bad output", func(c *Config) { c.OutputBackend = "system_command" }, "output backend"},
		{"bad theme", func(c *Config) { c.Theme = "sepia" }, "theme"},
		{"negative settle", func(c *Config) { c.SettleDelayMs = intPtr(-1) }, "settle_delay_ms"},
		{"negative canvas", func(c *Config) { c.CanvasWidth = -5 }, "canvas size"},
		{"negative backups", func(c *Config) { c.FileLogging.MaxBackups = -1 }, "max_backups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, _ := newTestManager(t)
			cfg := cm.GetDefaultConfig()
			tt.mutate(cfg)

			err := cm.ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteAndLoadFromFile(t *testing.T) {
	cm, memFS := newTestManager(t)
	cfg := cm.GetDefaultConfig()
	cfg.Theme = "dark"
	cfg.OutputBackend = "null"
	cfg.SettleDelayMs = intPtr(250)

	require.NoError(t, cm.WriteConfig("/tmp/out/config.json", cfg))

	exists, err := afero.Exists(memFS, "/tmp/out/config.json")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := cm.LoadFromFile("/tmp/out/config.json")
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.Theme)
	assert.Equal(t, "null", loaded.OutputBackend)
	assert.Equal(t, 250*time.Millisecond, loaded.SettleDelay())
}

func TestWriteConfigRejectsInvalid(t *testing.T) {
	cm, memFS := newTestManager(t)
	cfg := cm.GetDefaultConfig()
	cfg.Theme = "neon"

	assert.ErrorIs(t, cm.WriteConfig("/tmp/bad.json", cfg), ErrInvalidConfig)
	exists, _ := afero.Exists(memFS, "/tmp/bad.json")
	assert.False(t, exists)
}

func TestLoadFromFileErrors(t *testing.T) {
	cm, memFS := newTestManager(t)

	_, err := cm.LoadFromFile("/missing.json")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(memFS, "/broken.json", []byte("{not json"), 0644))
	_, err = cm.LoadFromFile("/broken.json")
	assert.ErrorContains(t, err, "parse")

	require.NoError(t, afero.WriteFile(memFS, "/invalid.json", []byte(`{"output_backend":"speaker"}`), 0644))
	_, err = cm.LoadFromFile("/invalid.json")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigUsesDefaultsWithoutFile(t *testing.T) {
	cm, _ := newTestManager(t)

	cfg, err := cm.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cm.GetDefaultConfig(), cfg)
}

func TestLoadConfigMergesFirstFileFound(t *testing.T) {
	cm, memFS := newTestManager(t)
	require.NoError(t, afero.WriteFile(memFS, "/etc/xdg/waveseek/config.json",
		[]byte(`{"theme":"dark","settle_delay_ms":0}`), 0644))

	cfg, err := cm.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, time.Duration(0), cfg.SettleDelay())
	// Untouched fields keep their defaults
	assert.Equal(t, "auto", cfg.OutputBackend)
	assert.Equal(t, DefaultCanvasWidth, cfg.CanvasWidth)

	require.NoError(t, afero.WriteFile(memFS, "/home/u/.config/waveseek/config.json",
		[]byte(`{"theme":"light","canvas_width":320}`), 0644))

	cfg, err = cm.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, 320, cfg.CanvasWidth)
	assert.Equal(t, time.Second, cfg.SettleDelay())
}

func TestMergeConfigs(t *testing.T) {
	cm, _ := newTestManager(t)
	base := cm.GetDefaultConfig()

	merged := cm.MergeConfigs(base, &Config{LogLevel: "debug", Volume: floatPtr(0)})
	assert.Equal(t, "debug", merged.LogLevel)
	assert.Equal(t, 0.0, merged.GetVolume())
	assert.Equal(t, base.Theme, merged.Theme)
	assert.Equal(t, "warn", base.LogLevel)
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	cm, _ := newTestManager(t)

	t.Setenv("WAVESEEK_LOG_LEVEL", "debug")
	t.Setenv("WAVESEEK_OUTPUT", "null")
	t.Setenv("WAVESEEK_THEME", "dark")
	t.Setenv("WAVESEEK_SETTLE_MS", "10")

	base := cm.GetDefaultConfig()
	cfg := cm.ApplyEnvironmentOverrides(base)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "null", cfg.OutputBackend)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, 10*time.Millisecond, cfg.SettleDelay())
	assert.Equal(t, "auto", base.OutputBackend)
}

func TestApplyEnvironmentOverridesIgnoresInvalid(t *testing.T) {
	cm, _ := newTestManager(t)

	t.Setenv("WAVESEEK_OUTPUT", "speakers")
	t.Setenv("WAVESEEK_THEME", "sepia")
	t.Setenv("WAVESEEK_SETTLE_MS", "-4")

	cfg := cm.ApplyEnvironmentOverrides(cm.GetDefaultConfig())
	assert.Equal(t, "auto", cfg.OutputBackend)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, time.Second, cfg.SettleDelay())
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLogLevel("error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestResolveLogFilePath(t *testing.T) {
	cm, _ := newTestManager(t)
	assert.Equal(t, "/var/log/w.log", cm.ResolveLogFilePath("/var/log/w.log"))
	assert.Equal(t, "/home/u/.cache/waveseek/logs/waveseek.log", cm.ResolveLogFilePath(""))
}
