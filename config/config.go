package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RateLimit    RateLimit     `mapstructure:"rate_limit"`
}

// RateLimit 全局令牌桶；RPS <= 0 表示不限流
type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"` // development | production
	Level string `mapstructure:"level"`
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

// EngineConfig 关系链与话题引擎的业务参数
type EngineConfig struct {
	TrendingWindow       time.Duration `mapstructure:"trending_window"`
	TrendingMinUses      int           `mapstructure:"trending_min_uses"`
	FriendRequestTTL     time.Duration `mapstructure:"friend_request_ttl"`
	EnforceRequestExpiry bool          `mapstructure:"enforce_request_expiry"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	DegradeAggregates    bool          `mapstructure:"degrade_aggregates"`
	DefaultLimit         int           `mapstructure:"default_limit"`
	MaxLimit             int           `mapstructure:"max_limit"`
}

// Load 读取 config.yaml（可选）+ 环境变量，环境变量前缀 SOCIALGRAPH_
func Load(paths ...string) (*Config, error) {
	// .env 只用于本地开发，缺失不报错
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SOCIALGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.rps", 200)
	v.SetDefault("server.rate_limit.burst", 400)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "socialgraph.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.env", "development")
	v.SetDefault("log.level", "debug")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "socialgraph")
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("engine.trending_window", 7*24*time.Hour)
	v.SetDefault("engine.trending_min_uses", 3)
	v.SetDefault("engine.friend_request_ttl", 7*24*time.Hour)
	v.SetDefault("engine.enforce_request_expiry", true)
	v.SetDefault("engine.cache_ttl", 60*time.Second)
	v.SetDefault("engine.degrade_aggregates", true)
	v.SetDefault("engine.default_limit", 10)
	v.SetDefault("engine.max_limit", 100)
}

// Validate 校验必填项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Engine.TrendingMinUses < 1 {
		return errors.New("engine.trending_min_uses must be >= 1")
	}
	if c.Engine.TrendingWindow <= 0 || c.Engine.FriendRequestTTL <= 0 {
		return errors.New("engine windows must be positive")
	}
	if c.Engine.DefaultLimit < 1 || c.Engine.MaxLimit < c.Engine.DefaultLimit {
		return errors.New("engine.default_limit must be >= 1 and <= engine.max_limit")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Log.Env == "production" }

// Addr 返回 HTTP 监听地址
func (c *ServerConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }
