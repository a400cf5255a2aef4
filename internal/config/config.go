package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"waveseek.click/internal/media"
	"waveseek.click/internal/render"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults
const (
	DefaultSettleDelayMs = 1000
	DefaultCanvasWidth   = 700
	DefaultCanvasHeight  = 64
)

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// Config represents waveseek configuration
type Config struct {
	LogLevel      string             `json:"log_level"`                 // debug, info, warn, error
	OutputBackend string             `json:"output_backend"`            // auto, malgo, oto, null
	Theme         string             `json:"theme"`                     // light, dark
	SettleDelayMs *int               `json:"settle_delay_ms,omitempty"` // Pause before waveform analysis
	CanvasWidth   int                `json:"canvas_width"`              // Rendered waveform width in pixels
	CanvasHeight  int                `json:"canvas_height"`             // Rendered waveform height in pixels
	Volume        *float64           `json:"volume,omitempty"`          // Playback volume (0.0 to 1.0)
	FileLogging   *FileLoggingConfig `json:"file_logging,omitempty"`
}

// SettleDelay returns the settling delay, falling back to the default when unset
func (c *Config) SettleDelay() time.Duration {
	ms := DefaultSettleDelayMs
	if c.SettleDelayMs != nil {
		ms = *c.SettleDelayMs
	}
	return time.Duration(ms) * time.Millisecond
}

// GetVolume returns the volume, 1.0 when unset
func (c *Config) GetVolume() float64 {
	if c.Volume == nil {
		return 1.0
	}
	return *c.Volume
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
	CreateCacheDir(purpose string) error
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManager creates a configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	return NewConfigManagerWithFilesystem(afero.NewOsFs())
}

// NewConfigManagerWithFilesystem creates a configuration manager reading and writing through fs
func NewConfigManagerWithFilesystem(fs afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		xdg: NewXDGDirsWithFilesystem(fs),
		fs:  fs,
	}
}

// NewConfigManagerWithXDG creates a configuration manager with custom XDG discovery
func NewConfigManagerWithXDG(fs afero.Fs, xdg XDGInterface) *ConfigManager {
	return &ConfigManager{xdg: xdg, fs: fs}
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	settle := DefaultSettleDelayMs
	volume := 1.0

	defaultConfig := &Config{
		LogLevel:      "warn",
		OutputBackend: "auto",
		Theme:         "light",
		SettleDelayMs: &settle,
		CanvasWidth:   DefaultCanvasWidth,
		CanvasHeight:  DefaultCanvasHeight,
		Volume:        &volume,
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}

	slog.Debug("generated default config",
		"log_level", defaultConfig.LogLevel,
		"output_backend", defaultConfig.OutputBackend,
		"theme", defaultConfig.Theme,
		"settle_delay_ms", settle)

	return defaultConfig
}

// LoadFromFile loads and validates configuration from a specific file
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(&config); err != nil {
		return nil, err
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"output_backend", config.OutputBackend,
		"theme", config.Theme)

	return &config, nil
}

// WriteConfig validates config and writes it as indented JSON
func (cm *ConfigManager) WriteConfig(filePath string, config *Config) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// LoadConfig finds the first config file on the XDG paths and merges it over the defaults
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	configPaths := cm.xdg.GetConfigPaths("config.json")
	slog.Debug("searching for config file", "paths", configPaths)

	for i, configPath := range configPaths {
		exists, err := afero.Exists(cm.fs, configPath)
		if err != nil || !exists {
			slog.Debug("config file not found", "path_index", i, "path", configPath)
			continue
		}

		fileConfig, err := cm.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		return cm.MergeConfigs(cm.GetDefaultConfig(), fileConfig), nil
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig validates configuration values
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var problems []string

	if config.Volume != nil && (*config.Volume < 0.0 || *config.Volume > 1.0) {
		problems = append(problems, fmt.Sprintf("volume must be between 0.0 and 1.0, got %f", *config.Volume))
	}

	if config.LogLevel != "" {
		if _, err := ParseLogLevel(config.LogLevel); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if !media.IsValidOutputType(config.OutputBackend) {
		problems = append(problems, fmt.Sprintf("invalid output backend '%s', must be one of: %s",
			config.OutputBackend, strings.Join(media.SupportedOutputs(), ", ")))
	}

	if _, err := render.ParseTheme(config.Theme); err != nil {
		problems = append(problems, fmt.Sprintf("invalid theme '%s', must be one of: light, dark", config.Theme))
	}

	if config.SettleDelayMs != nil && *config.SettleDelayMs < 0 {
		problems = append(problems, fmt.Sprintf("settle_delay_ms must be >= 0, got %d", *config.SettleDelayMs))
	}

	if config.CanvasWidth < 0 || config.CanvasHeight < 0 {
		problems = append(problems, fmt.Sprintf("canvas size must be >= 0, got %dx%d", config.CanvasWidth, config.CanvasHeight))
	}

	if fl := config.FileLogging; fl != nil {
		if fl.MaxSizeMB < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fl.MaxSizeMB))
		}
		if fl.MaxBackups < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fl.MaxBackups))
		}
		if fl.MaxAgeDays < 0 {
			problems = append(problems, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fl.MaxAgeDays))
		}
	}

	if len(problems) > 0 {
		errMsg := strings.Join(problems, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("%w: %s", ErrInvalidConfig, errMsg)
	}

	return nil
}

// MergeConfigs merges two configurations, with set override values taking precedence
func (cm *ConfigManager) MergeConfigs(base, override *Config) *Config {
	merged := *base

	if override.LogLevel != "" {
		merged.LogLevel = override.LogLevel
	}
	if override.OutputBackend != "" {
		merged.OutputBackend = override.OutputBackend
	}
	if override.Theme != "" {
		merged.Theme = override.Theme
	}
	if override.SettleDelayMs != nil {
		merged.SettleDelayMs = override.SettleDelayMs
	}
	if override.CanvasWidth != 0 {
		merged.CanvasWidth = override.CanvasWidth
	}
	if override.CanvasHeight != 0 {
		merged.CanvasHeight = override.CanvasHeight
	}
	if override.Volume != nil {
		merged.Volume = override.Volume
	}
	if override.FileLogging != nil {
		merged.FileLogging = override.FileLogging
	}

	slog.Debug("configurations merged",
		"log_level", merged.LogLevel,
		"output_backend", merged.OutputBackend,
		"theme", merged.Theme)
	return &merged
}

// ApplyEnvironmentOverrides applies WAVESEEK_* environment variables to a copy of config.
// Invalid values are logged and ignored.
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	result := *config

	if logLevel := os.Getenv("WAVESEEK_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = logLevel
		slog.Debug("applied log level override from environment", "value", logLevel)
	}

	if output := os.Getenv("WAVESEEK_OUTPUT"); output != "" {
		if media.IsValidOutputType(output) {
			result.OutputBackend = output
			slog.Debug("applied output backend override from environment", "value", output)
		} else {
			slog.Warn("invalid WAVESEEK_OUTPUT environment variable", "value", output)
		}
	}

	if theme := os.Getenv("WAVESEEK_THEME"); theme != "" {
		if _, err := render.ParseTheme(theme); err == nil {
			result.Theme = theme
			slog.Debug("applied theme override from environment", "value", theme)
		} else {
			slog.Warn("invalid WAVESEEK_THEME environment variable", "value", theme)
		}
	}

	if settleStr := os.Getenv("WAVESEEK_SETTLE_MS"); settleStr != "" {
		if settle, err := strconv.Atoi(settleStr); err == nil && settle >= 0 {
			result.SettleDelayMs = &settle
			slog.Debug("applied settle delay override from environment", "value", settle)
		} else {
			slog.Warn("invalid WAVESEEK_SETTLE_MS environment variable", "value", settleStr)
		}
	}

	return &result
}

// ParseLogLevel maps a config log level to slog
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", logLevel)
	}
}

// ResolveLogFilePath resolves the log file path using XDG cache directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "waveseek.log")
}
