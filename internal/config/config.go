// Package config 提供配置管理
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Simon6088/Doctor-Scheduling-System/pkg/model"
	"github.com/Simon6088/Doctor-Scheduling-System/pkg/scheduler"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	RabbitMQ  RabbitMQConfig  `envPrefix:"RABBITMQ_"`
	API       APIConfig       `envPrefix:"API_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name            string        `env:"NAME" envDefault:"doctor-scheduling"`
	Env             string        `env:"ENV" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"7012"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig 数据库配置
// Host 为空表示不使用数据库，只接受内联排班数据
type DatabaseConfig struct {
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT" envDefault:"5432"`
	Name            string        `env:"NAME" envDefault:"doctor_scheduling"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	SlowQuery       time.Duration `env:"SLOW_QUERY" envDefault:"100ms"`
}

// Enabled 是否配置了数据库
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis配置
// Host 为空表示不缓存排班结果
type RedisConfig struct {
	Host      string        `env:"HOST"`
	Port      int           `env:"PORT" envDefault:"6379"`
	Password  string        `env:"PASSWORD"`
	DB        int           `env:"DB" envDefault:"0"`
	PoolSize  int           `env:"POOL_SIZE" envDefault:"10"`
	ResultTTL time.Duration `env:"RESULT_TTL" envDefault:"24h"`
}

// Enabled 是否配置了 Redis
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr 返回Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RabbitMQConfig 消息队列配置
// DSN 为空表示不发送排班事件
type RabbitMQConfig struct {
	DSN            string        `env:"DSN"`
	Queue          string        `env:"QUEUE" envDefault:"schedule.generated"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"10s"`
}

// Enabled 是否配置了消息队列
func (c *RabbitMQConfig) Enabled() bool {
	return c.DSN != ""
}

// APIConfig API配置
type APIConfig struct {
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"120s"`
	RateLimit float64       `env:"RATE_LIMIT" envDefault:"100"` // 每秒请求数，0 表示不限流
	CORS      CORSConfig    `envPrefix:"CORS_"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"true"`
	Origins []string `env:"ORIGINS" envDefault:"*"`
}

// SchedulerConfig 排班引擎配置
type SchedulerConfig struct {
	TimeLimitSeconds float64 `env:"TIME_LIMIT_SECONDS" envDefault:"30"`
	BalanceWeight    float64 `env:"BALANCE_WEIGHT" envDefault:"1.0"`
	PreferenceWeight float64 `env:"PREFERENCE_WEIGHT" envDefault:"1.0"`
	CoveragePerShift int     `env:"COVERAGE_PER_SHIFT" envDefault:"1"`
	MaxImprovements  int     `env:"MAX_IMPROVEMENTS" envDefault:"1000"`
	BatchWorkers     int     `env:"BATCH_WORKERS" envDefault:"4"`
	RestAfterNight   bool    `env:"REST_AFTER_NIGHT" envDefault:"true"`
	MaxSolves        int     `env:"MAX_SOLVES" envDefault:"8"` // 同时运行的求解数，含超时后仍在后台的
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// Load 从 .env 文件和环境变量加载配置
// 已存在的环境变量优先于 .env
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT 无效: %d", c.App.Port)
	}
	if c.Scheduler.BatchWorkers <= 0 {
		return fmt.Errorf("SCHEDULER_BATCH_WORKERS 必须大于 0")
	}
	if c.Scheduler.MaxSolves <= 0 {
		return fmt.Errorf("SCHEDULER_MAX_SOLVES 必须大于 0")
	}
	return c.SchedulerOptions().Validate()
}

// SchedulerOptions 转换为排班引擎配置
func (c *Config) SchedulerOptions() scheduler.Options {
	opts := scheduler.Options{
		TimeLimitSeconds:      c.Scheduler.TimeLimitSeconds,
		BalanceWeight:         c.Scheduler.BalanceWeight,
		PreferenceWeight:      c.Scheduler.PreferenceWeight,
		CoverageCountPerShift: c.Scheduler.CoveragePerShift,
		MaxImprovements:       c.Scheduler.MaxImprovements,
	}
	if c.Scheduler.RestAfterNight {
		opts.RestRules = model.DefaultRestRules()
	}
	return opts
}

// IsDevelopment 是否开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
