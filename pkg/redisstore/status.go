package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Snapshot is the last check outcome of a monitor as kept in redis.
type Snapshot struct {
	Outcome             string
	Fingerprint         string
	CheckedAt           time.Time
	Error               string
	Notified            bool
	ConsecutiveFailures int64
}

func (s Snapshot) fields() map[string]any {
	return map[string]any{
		"outcome":              s.Outcome,
		"fingerprint":          s.Fingerprint,
		"checked_at":           s.CheckedAt.Unix(),
		"error":                s.Error,
		"notified":             strconv.FormatBool(s.Notified),
		"consecutive_failures": s.ConsecutiveFailures,
	}
}

func (c *Client) StoreStatus(ctx context.Context, monitorID uuid.UUID, snap Snapshot) error {
	key := statusKey(monitorID)

	return retry(ctx, 2, func() error {
		pipe := c.rdb.TxPipeline()
		pipe.HSet(ctx, key, snap.fields())
		if c.statusTTL > 0 {
			pipe.Expire(ctx, key, c.statusTTL)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
}

// GetStatus returns the raw snapshot fields, nil when none is stored.
func (c *Client) GetStatus(ctx context.Context, monitorID uuid.UUID) (map[string]string, error) {
	res, err := c.rdb.HGetAll(ctx, statusKey(monitorID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return res, err
}

// DelStatus drops everything kept for the monitor.
func (c *Client) DelStatus(ctx context.Context, monitorID uuid.UUID) error {
	return c.rdb.Del(ctx, statusKey(monitorID), failuresKey(monitorID)).Err()
}
