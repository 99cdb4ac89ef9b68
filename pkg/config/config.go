package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Backfill  BackfillConfig  `mapstructure:"backfill"`
}

type ServerConfig struct {
	IP             string        `mapstructure:"ip"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	Database              string        `mapstructure:"database"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WarehouseConfig describes the remote analytics query service and the
// per-tenant limits the engine must stay under.
type WarehouseConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Tenant           string        `mapstructure:"tenant"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	ReportingLagDays int           `mapstructure:"reporting_lag_days"`
	MaxLookbackDays  int           `mapstructure:"max_lookback_days"`
}

type SchedulerConfig struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	PauseThreshold int           `mapstructure:"pause_threshold"`
}

type TrackerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type BackfillConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.max_header_bytes", 1048576)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.max_connections", 20)
	viper.SetDefault("database.max_idle_connections", 10)
	viper.SetDefault("database.connection_max_lifetime", "1h")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("warehouse.request_timeout", "30s")
	viper.SetDefault("warehouse.max_concurrent", 5)
	viper.SetDefault("warehouse.reporting_lag_days", 3)
	viper.SetDefault("warehouse.max_lookback_days", 365)

	viper.SetDefault("scheduler.tick_interval", "30s")
	viper.SetDefault("scheduler.pause_threshold", 3)

	viper.SetDefault("tracker.poll_interval", "15s")

	viper.SetDefault("backfill.workers", 3)
	viper.SetDefault("backfill.queue_size", 64)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
