package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Amar2502/portfolio-backend/config"
	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisRateLimiter is a fixed window counter per key: INCR, and EXPIRE when the window opens.
type RedisRateLimiter struct {
	client *redis.Client
	name   string
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter returns nil, nil when REDIS_URL is not set.
func NewRedisRateLimiter(cfg map[string]string, name string) (*RedisRateLimiter, error) {
	redisURL := config.GetString(cfg, "REDIS_URL", "")
	if redisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return NewRedisRateLimiterWithClient(
		redis.NewClient(opt),
		name,
		int64(config.GetInt(cfg, "CONTACT_RATE_LIMIT", 5)),
		config.GetSeconds(cfg, "CONTACT_RATE_WINDOW_SECONDS", time.Hour),
	), nil
}

func NewRedisRateLimiterWithClient(client *redis.Client, name string, limit int64, window time.Duration) *RedisRateLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RedisRateLimiter{client: client, name: name, limit: limit, window: window}
}

// Allow counts one hit for key and returns a 429 ApiErr once the window's limit is passed.
// Redis being unreachable lets the request through.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.name, key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("limiter", l.name).Msg("rate limiter unavailable, allowing request")
		return nil
	}

	retryAfter := ttl.Val()
	if retryAfter < 0 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			log.Warn().Err(err).Str("limiter", l.name).Msg("failed to set rate limit window")
		}
		retryAfter = l.window
	}

	if incr.Val() > l.limit {
		return errs.NewRateLimitError(l.name, retryAfter)
	}
	return nil
}

func (l *RedisRateLimiter) Close() error {
	return l.client.Close()
}
