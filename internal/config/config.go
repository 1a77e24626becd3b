package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// MetricsConfig points at the hosted project's management/billing API.
type MetricsConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ProjectRef   string `mapstructure:"project_ref"`
	APIKey       string `mapstructure:"api_key"`
	PollInterval int    `mapstructure:"poll_interval"` // seconds; 0 disables the collector
}

type AlertingConfig struct {
	HistorySize int `mapstructure:"history_size"`
	CooldownSec int `mapstructure:"cooldown_sec"` // 0 disables breach cool-down
}

type DispatcherConfig struct {
	Source     string `mapstructure:"source"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
	LogSize    int    `mapstructure:"log_size"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		// _time_format=sqlite stores time.Time values in a parseable layout
		return d.Path + "/" + d.Name + ".db?_time_format=sqlite"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// Interval returns the collector period as a duration.
func (m MetricsConfig) Interval() time.Duration {
	return time.Duration(m.PollInterval) * time.Second
}

// Cooldown returns the per-threshold breach cool-down as a duration.
func (a AlertingConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownSec) * time.Second
}

// Timeout returns the per-attempt HTTP timeout as a duration.
func (d DispatcherConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSec) * time.Second
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../..")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.pool_size", 10)
	viper.SetDefault("database.path", "./data")
	viper.SetDefault("database.name", "landsmon")
	viper.SetDefault("metrics.base_url", "https://api.supabase.com")
	viper.SetDefault("metrics.poll_interval", 60)
	viper.SetDefault("alerting.history_size", 100)
	viper.SetDefault("alerting.cooldown_sec", 0)
	viper.SetDefault("dispatcher.source", "lands-dashboard-monitor")
	viper.SetDefault("dispatcher.timeout_sec", 10)
	viper.SetDefault("dispatcher.log_size", 100)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
