package redisstore

import (
	"context"
	"fmt"
	"time"

	"pagewatch/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

type Client struct {
	rdb       *redis.Client
	statusTTL time.Duration
}

func New(cfg *config.RedisConfig) (*Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Timeouts
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout

	// Pool tuning
	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns

	// Connection lifecycle
	opt.ConnMaxLifetime = cfg.ConnMaxLifetime
	opt.ConnMaxIdleTime = cfg.ConnMaxIdleTime

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, statusTTL: cfg.StatusTTL}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func statusKey(id uuid.UUID) string {
	return fmt.Sprintf("monitor:status:%v", id)
}

func failuresKey(id uuid.UUID) string {
	return fmt.Sprintf("monitor:failures:%v", id)
}
