package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

func LoadConfig(path string) (*Config, error) {
	v := newViper(path)

	// Read File
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return decode(v)
}

func newViper(path string) *viper.Viper {
	v := viper.New()

	// default first
	setDefaults(v)

	// File Config
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Env Config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("service_name", "pagewatch")
	v.SetDefault("port", 8080)

	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/monitors.db")

	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.min_idle_conns", 1)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.conn_max_idle_time", "30m")
	v.SetDefault("db.health_timeout", "5s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.conn_max_lifetime", "2m")
	v.SetDefault("redis.conn_max_idle_time", "30s")
	v.SetDefault("redis.status_ttl", "24h")

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.exchange_name", "pagewatch")
	v.SetDefault("rabbitmq.exchange_type", "topic")
	v.SetDefault("rabbitmq.events_key", "monitor.events")
	v.SetDefault("rabbitmq.command_queue", "pagewatch.commands")
	v.SetDefault("rabbitmq.command_key", "monitor.commands")
	v.SetDefault("rabbitmq.consumer_count", 4)

	v.SetDefault("scheduler.tick_interval", "5s")
	v.SetDefault("scheduler.min_interval_sec", 5)
	v.SetDefault("scheduler.shutdown_timeout", "30s")
	v.SetDefault("scheduler.event_buffer", 256)

	v.SetDefault("fetcher.driver", "browser")
	v.SetDefault("fetcher.timeout", "120s")
	v.SetDefault("fetcher.navigation_timeout", "60s")
	v.SetDefault("fetcher.selector_timeout", "30s")
	v.SetDefault("fetcher.max_pages", 4)
	v.SetDefault("fetcher.headless", true)
	v.SetDefault("fetcher.no_sandbox", true)
	v.SetDefault("fetcher.cookie_file", "data/cookies.json")
	v.SetDefault("fetcher.max_body_bytes", 10<<20)

	v.SetDefault("notifier.base_url", "https://ntfy.sh")
	v.SetDefault("notifier.timeout", "15s")

	v.SetDefault("artifacts.dir", "data/screenshots")

	v.SetDefault("result.success_workers", 4)
	v.SetDefault("result.failure_workers", 2)

	v.SetDefault("auth.expiry_min", 60)
}

func validateConfig(cfg *Config) error {

	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return formatValidationErrors(ve)
		}
		return err
	}

	return validateCrossFields(cfg)
}

// validateCrossFields checks constraints spanning several sections.
func validateCrossFields(cfg *Config) error {
	var problems []string

	minInterval := time.Duration(cfg.Scheduler.MinIntervalSec) * time.Second
	if cfg.Scheduler.TickInterval > minInterval {
		problems = append(problems, fmt.Sprintf("scheduler.tick_interval (%s) must not exceed scheduler.min_interval_sec (%s)", cfg.Scheduler.TickInterval, minInterval))
	}
	if cfg.Store.Driver == "postgres" && cfg.DB.URL == "" {
		problems = append(problems, "db.url is required when store.driver is postgres")
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.SQLitePath == "" {
		problems = append(problems, "store.sqlite_path is required when store.driver is sqlite")
	}
	if cfg.Redis.Enabled && cfg.Redis.URL == "" {
		problems = append(problems, "redis.url is required when redis is enabled")
	}
	if cfg.RabbitMQ.Enabled && cfg.RabbitMQ.BrokerLink == "" {
		problems = append(problems, "rabbitmq.broker_link is required when rabbitmq is enabled")
	}
	if cfg.AuthEnabled() && cfg.Auth.AdminPasswordHash == "" {
		problems = append(problems, "auth.admin_password_hash is required when auth.secret is set")
	}

	if len(problems) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, p := range problems {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	return errors.New(sb.String())
}

func formatValidationErrors(ve validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")

	for _, fe := range ve {
		fmt.Fprintf(&sb, "- field '%s' failed on '%s'\n", fe.Namespace(), fe.Tag())
	}
	return errors.New(sb.String())
}
