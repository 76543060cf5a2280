package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig is the local HTTP API the UI layer talks to.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RemoteConfig points at the ordering API.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSeconds bounds every remote call so an unreachable API never
	// hangs a caller.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// Token is an optional static bearer credential, used by headless
	// processes such as the sync worker.
	Token string `mapstructure:"token"`
}

func (r RemoteConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// SQLiteConfig is the client-private local mirror.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig is optional; an empty Addr disables the sync locks.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

// RabbitMQConfig is optional; an empty URL disables order-queued events.
type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// CatalogConfig controls catalog cache staleness.
type CatalogConfig struct {
	RefreshIntervalMinutes int `mapstructure:"refresh_interval_minutes"`
}

func (c CatalogConfig) RefreshInterval() time.Duration {
	if c.RefreshIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

// SyncConfig controls the sync worker.
type SyncConfig struct {
	// IntervalSeconds is the periodic reconciliation fallback, used when no
	// order-queued event arrives.
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

func (s SyncConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// LogConfig selects the zap level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
}

// DefaultConfig keeps the client runnable with nothing but a reachable API.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Remote: RemoteConfig{
			BaseURL:        "http://127.0.0.1:5000",
			TimeoutSeconds: 10,
		},
		SQLite: SQLiteConfig{
			Path: "crunchyrolls.db",
		},
		Catalog: CatalogConfig{
			RefreshIntervalMinutes: 60,
		},
		Sync: SyncConfig{
			IntervalSeconds: 300,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config.yaml from path (if present) and CRUNCHYROLLS_* env vars
// on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.SetEnvPrefix("CRUNCHYROLLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("remote.base_url", cfg.Remote.BaseURL)
	v.SetDefault("remote.timeout_seconds", cfg.Remote.TimeoutSeconds)
	v.SetDefault("remote.token", cfg.Remote.Token)
	v.SetDefault("sqlite.path", cfg.SQLite.Path)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("rabbitmq.url", cfg.RabbitMQ.URL)
	v.SetDefault("catalog.refresh_interval_minutes", cfg.Catalog.RefreshIntervalMinutes)
	v.SetDefault("sync.interval_seconds", cfg.Sync.IntervalSeconds)
	v.SetDefault("log.level", cfg.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
