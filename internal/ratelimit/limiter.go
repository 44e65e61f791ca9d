package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter shared through Redis.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewLimiter builds a limiter allowing limit hits per window per key.
// A nil client or non-positive limit disables limiting.
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow counts one hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true, nil
	}

	bucket := time.Now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= int64(l.limit), nil
}
