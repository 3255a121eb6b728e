package config

import "time"

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// StoreConfig selects the monitor store backend.
type StoreConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns" validate:"gte=1"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout" validate:"gt=0"`
}

type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	URL             string        `mapstructure:"url"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=1"`
	MinIdleConns    int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	StatusTTL       time.Duration `mapstructure:"status_ttl"`
}

type RabbitMQConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerLink    string `mapstructure:"broker_link"`
	ExchangeName  string `mapstructure:"exchange_name"`
	ExchangeType  string `mapstructure:"exchange_type" validate:"omitempty,oneof=direct topic fanout"`
	EventsKey     string `mapstructure:"events_key"`
	CommandQueue  string `mapstructure:"command_queue"`
	CommandKey    string `mapstructure:"command_key"`
	ConsumerCount int    `mapstructure:"consumer_count" validate:"gte=1"`
}

type SchedulerConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval" validate:"gt=0"`
	MinIntervalSec  int           `mapstructure:"min_interval_sec" validate:"gte=1"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	EventBuffer     int           `mapstructure:"event_buffer" validate:"gte=1"`
}

type FetcherConfig struct {
	Driver            string        `mapstructure:"driver" validate:"required,oneof=browser http"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" validate:"gt=0"`
	SelectorTimeout   time.Duration `mapstructure:"selector_timeout" validate:"gt=0"`
	MaxPages          int           `mapstructure:"max_pages" validate:"gte=1"`
	ChromePath        string        `mapstructure:"chrome_path"`
	Headless          bool          `mapstructure:"headless"`
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	UserAgent         string        `mapstructure:"user_agent"`
	CookieFile        string        `mapstructure:"cookie_file"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

type NotifierConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type ArtifactConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// ResultConfig sizes the check-outcome processor.
type ResultConfig struct {
	SuccessWorkers int `mapstructure:"success_workers" validate:"gte=1"`
	FailureWorkers int `mapstructure:"failure_workers" validate:"gte=1"`
}

type AuthConfig struct {
	Secret            string `mapstructure:"secret"`
	ExpiryMin         int    `mapstructure:"expiry_min" validate:"gte=1"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

type Config struct {
	Env         string          `mapstructure:"env" validate:"required,oneof=development staging production test"`
	ServiceName string          `mapstructure:"service_name" validate:"required"`
	Port        int             `mapstructure:"port" validate:"required,gt=0,lte=65535"`
	Log         LogConfig       `mapstructure:"log"`
	Store       StoreConfig     `mapstructure:"store"`
	DB          DBConfig        `mapstructure:"db"`
	Redis       RedisConfig     `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig  `mapstructure:"rabbitmq"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Fetcher     FetcherConfig   `mapstructure:"fetcher"`
	Notifier    NotifierConfig  `mapstructure:"notifier"`
	Artifacts   ArtifactConfig  `mapstructure:"artifacts"`
	Result      ResultConfig    `mapstructure:"result"`
	Auth        AuthConfig      `mapstructure:"auth"`
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.Auth.Secret != ""
}
