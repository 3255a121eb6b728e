package redisstore

import (
	"context"

	"github.com/google/uuid"
)

// IncrementFailures bumps the consecutive failure streak and returns it.
func (c *Client) IncrementFailures(ctx context.Context, monitorID uuid.UUID) (int64, error) {
	key := failuresKey(monitorID)

	var count int64
	err := retry(ctx, 2, func() error {
		var err error
		count, err = c.rdb.Incr(ctx, key).Result()
		if err != nil {
			return err
		}
		if c.statusTTL > 0 {
			c.rdb.Expire(ctx, key, c.statusTTL)
		}
		return nil
	})

	return count, err
}

func (c *Client) ClearFailures(ctx context.Context, monitorID uuid.UUID) error {
	key := failuresKey(monitorID)

	return retry(ctx, 2, func() error {
		return c.rdb.Del(ctx, key).Err()
	})
}
