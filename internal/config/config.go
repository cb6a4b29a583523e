package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName            string        `mapstructure:"app_name"`
	Env                string        `mapstructure:"app_env"`
	LogLevel           string        `mapstructure:"log_level"`
	RDWBaseURL         string        `mapstructure:"rdw_base_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	PublishersFile       string        `mapstructure:"publishers_file"`
	WatchlistFile        string        `mapstructure:"watchlist_file"`
	CheckIntervalSeconds int64         `mapstructure:"check_interval"`
	CheckInterval        time.Duration `mapstructure:"-"`
	ReminderWindowDays   int           `mapstructure:"reminder_window_days"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	ReminderTTLSeconds     int64         `mapstructure:"reminder_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	ReminderTTL            time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "openoverheid")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("rdw_base_url", "https://opendata.rdw.nl/resource/vkij-7mwc.json")
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("watchlist_file", "")
	v.SetDefault("check_interval", int64((24*time.Hour)/time.Second))
	v.SetDefault("reminder_window_days", 30)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/watchlist.db")
	v.SetDefault("reminder_ttl_seconds", int64((14*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.RDWBaseURL = strings.TrimSpace(cfg.RDWBaseURL)
	if cfg.RDWBaseURL == "" {
		return nil, fmt.Errorf("rdw_base_url must not be empty")
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.CheckIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid check_interval (must be positive seconds)")
	}
	cfg.CheckInterval = time.Duration(cfg.CheckIntervalSeconds) * time.Second

	if cfg.ReminderWindowDays < 0 {
		return nil, fmt.Errorf("invalid reminder_window_days (must not be negative)")
	}

	if cfg.ReminderTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid reminder_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.ReminderTTL = time.Duration(cfg.ReminderTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
