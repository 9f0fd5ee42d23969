package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIConfig holds the backend connection settings.
type APIConfig struct {
	// BaseURL is the root of the kanban API (e.g. https://host/api/kanban).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// EntitySegment is the path segment used for entity routes
	// (/{segment}/{id}/board). The production backend uses "canal".
	EntitySegment string `mapstructure:"entity_segment" yaml:"entity_segment"`

	// TimeoutSec bounds every request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// PollConfig holds the refresh intervals of the live views.
type PollConfig struct {
	StructureIntervalSec int `mapstructure:"structure_interval_sec" yaml:"structure_interval_sec"`
	HistoryIntervalSec   int `mapstructure:"history_interval_sec" yaml:"history_interval_sec"`
}

// HistoryConfig bounds how much history is fetched and shown.
type HistoryConfig struct {
	VisibleLimit int `mapstructure:"visible_limit" yaml:"visible_limit"`
	FetchLimit   int `mapstructure:"fetch_limit" yaml:"fetch_limit"`
}

// UploadConfig holds the upload webhook settings.
type UploadConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// CacheConfig points at the local snapshot database.
type CacheConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig controls the structured log output.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Upload  UploadConfig  `mapstructure:"upload" yaml:"upload"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// configDir returns ~/.config/channel-kanban, falling back to ".".
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "channel-kanban")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/channel-kanban/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:       "http://localhost:8000/api/kanban",
			EntitySegment: "entity",
			TimeoutSec:    30,
		},
		Poll: PollConfig{
			StructureIntervalSec: 30,
			HistoryIntervalSec:   10,
		},
		History: HistoryConfig{
			VisibleLimit: 50,
			FetchLimit:   50,
		},
		Upload: UploadConfig{
			TimeoutSec: 30,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Cache: CacheConfig{
			DBPath: filepath.Join(dir, "cache.db"),
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "kanban.log"),
			Level: "info",
		},
	}
}

// newViper returns a viper instance with defaults and KANBAN_* environment
// overrides bound.
func newViper(path string) *viper.Viper {
	d := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.entity_segment", d.API.EntitySegment)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("poll.structure_interval_sec", d.Poll.StructureIntervalSec)
	v.SetDefault("poll.history_interval_sec", d.Poll.HistoryIntervalSec)
	v.SetDefault("history.visible_limit", d.History.VisibleLimit)
	v.SetDefault("history.fetch_limit", d.History.FetchLimit)
	v.SetDefault("upload.webhook_url", d.Upload.WebhookURL)
	v.SetDefault("upload.timeout_sec", d.Upload.TimeoutSec)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("cache.db_path", d.Cache.DBPath)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are
// returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Clamp values the backend or the views cannot honor.
	if cfg.History.FetchLimit < 1 || cfg.History.FetchLimit > 100 {
		cfg.History.FetchLimit = 50
	}
	if cfg.History.VisibleLimit <= 0 {
		cfg.History.VisibleLimit = 50
	}
	if cfg.API.EntitySegment == "" {
		cfg.API.EntitySegment = "entity"
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("poll", cfg.Poll)
	v.Set("history", cfg.History)
	v.Set("upload", cfg.Upload)
	v.Set("display", cfg.Display)
	v.Set("cache", cfg.Cache)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
