package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter keeps windows in Redis. INCR and EXPIRE NX run in one
// MULTI/EXEC, so a key never outlives its window without a TTL.
type RedisCounter struct {
	client *redis.Client
}

var _ CounterStore = (*RedisCounter)(nil)

func NewRedisCounter(client *redis.Client) *RedisCounter {
	if client == nil {
		panic("ratelimit: redis client cannot be nil")
	}
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// NX leaves a running window alone and repairs keys that lost their TTL.
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ratelimit: incr: %w", err)
	}
	return incr.Val(), nil
}
