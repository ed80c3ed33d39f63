package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisFixedWindowLimiter shares one counting window per key across
// all replicas. The window key carries its own TTL, so no sweeper is
// needed.
func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) Limiter {
	if prefix == "" {
		prefix = "rate_limit"
	}
	return &redisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *redisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := time.Now()
	bucket := now.UnixNano() / int64(window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)
	resetAt := time.Unix(0, (bucket+1)*int64(window))

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(incr.Val())
	if count > limit {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: resetAt.Sub(now),
			ResetAt:    resetAt,
		}, nil
	}
	return Decision{
		Allowed:   true,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}
