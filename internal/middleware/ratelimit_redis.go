// ratelimit_redis.go implements the Redis-backed rate limiter. It uses the
// GCRA-based redis_rate limiter so that all replicas of the API share one
// per-client budget instead of each instance granting its own.
package middleware

import (
	"context"
	"fmt"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/freelancehub/freelancehub/internal/config"
)

// RedisRateLimiter enforces a shared per-client budget through Redis.
type RedisRateLimiter struct {
	client  *redis.Client
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisRateLimiter connects to Redis and verifies the connection before
// returning; an API that silently rate-limits nothing is worse than one that
// refuses to start.
func NewRedisRateLimiter(cfg config.RateLimitingConfig) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}

	return &RedisRateLimiter{
		client:  client,
		limiter: redis_rate.NewLimiter(client),
		limit: redis_rate.Limit{
			Rate:   cfg.RequestsPerMinute,
			Burst:  burst,
			Period: time.Minute,
		},
	}, nil
}

// Allow reports whether the key may proceed, consuming one request on success.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	res, err := rl.limiter.Allow(ctx, "ratelimit:"+key, rl.limit)
	if err != nil {
		return false, 0, fmt.Errorf("failed to check rate limit: %w", err)
	}
	return res.Allowed > 0, res.Remaining, nil
}

// Limit returns the configured requests-per-minute ceiling.
func (rl *RedisRateLimiter) Limit() int {
	return rl.limit.Rate
}

// Stop closes the Redis connection.
func (rl *RedisRateLimiter) Stop() {
	_ = rl.client.Close()
}
