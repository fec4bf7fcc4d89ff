// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Generation    GenerationConfig    `yaml:"generation" mapstructure:"generation"`
	Worker        WorkerConfig        `yaml:"worker" mapstructure:"worker"`
	Queue         QueueConfig         `yaml:"queue" mapstructure:"queue"`
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Messaging     MessagingConfig     `yaml:"messaging" mapstructure:"messaging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// StorageConfig 产物存储配置
type StorageConfig struct {
	// OutputDir 任务产物根目录，每个任务一个子目录
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	// ShapesFile 形状预设文件，为空时使用内置预设
	ShapesFile string `yaml:"shapes_file" mapstructure:"shapes_file"`
}

// GenerationConfig 生成参数配置
type GenerationConfig struct {
	DefaultSeed          int64   `yaml:"default_seed" mapstructure:"default_seed"`
	DefaultSteps         int     `yaml:"default_steps" mapstructure:"default_steps"`
	DefaultGuidanceScale float64 `yaml:"default_guidance_scale" mapstructure:"default_guidance_scale"`
	ScreenshotSize       int     `yaml:"screenshot_size" mapstructure:"screenshot_size"`
}

// WorkerConfig 后台执行器配置
type WorkerConfig struct {
	// Concurrency 并发执行的任务数，1 表示严格串行
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// QueueSize 内存队列容量
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	// Driver memory | redis
	Driver string `yaml:"driver" mapstructure:"driver"`
}

// StoreConfig 任务存储配置
type StoreConfig struct {
	// Driver memory | redis | postgres | sqlite
	Driver     string `yaml:"driver" mapstructure:"driver"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	// KeyPrefix Redis 存储键前缀
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	// Enabled 为 SQL 存储开启终态任务的 Redis 读缓存
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	JobTTL  time.Duration `yaml:"job_ttl" mapstructure:"job_ttl"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// MessagingConfig 消息队列配置
type MessagingConfig struct {
	RedisStream RedisStreamConfig `yaml:"redis_stream" mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	Stream        string        `yaml:"stream" mapstructure:"stream"`
	ConsumerGroup string        `yaml:"consumer_group" mapstructure:"consumer_group"`
	MaxLen        int           `yaml:"max_len" mapstructure:"max_len"`
	BlockTimeout  time.Duration `yaml:"block_timeout" mapstructure:"block_timeout"`
	ClaimInterval time.Duration `yaml:"claim_interval" mapstructure:"claim_interval"`
	RetryLimit    int           `yaml:"retry_limit" mapstructure:"retry_limit"`
	RetryBackoff  BackoffConfig `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial" mapstructure:"initial"`
	Max        time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int  `yaml:"burst" mapstructure:"burst"`
	// Backend memory | redis，redis 时多实例共享滑动窗口
	Backend string `yaml:"backend" mapstructure:"backend"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

// UsesRedis 是否需要 Redis 连接
func (c *Config) UsesRedis() bool {
	return c.Store.Driver == "redis" || c.Queue.Driver == "redis" ||
		c.Cache.Enabled || c.Security.RateLimit.Backend == "redis"
}
