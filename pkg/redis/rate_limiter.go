package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/BailinYe/Resume-Modifier-sub002/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter is the Redis-backed rate limiter used when the
// service runs as multiple instances. Counters live in Redis under
// "ratelimit:<scope>:<key>" with a TTL equal to the window; INCR makes
// the count atomic across instances.
type FixedWindowLimiter struct {
	client *redis.Client
}

func NewFixedWindowLimiter(client *redis.Client) *FixedWindowLimiter {
	return &FixedWindowLimiter{client: client}
}

// CheckAndIncrement counts this request against the (scope, key) window
// and reports whether it is allowed. When denied, retryAfterSeconds is
// the remaining window time.
func (l *FixedWindowLimiter) CheckAndIncrement(scope, key string, limit, windowSeconds int) (bool, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	redisKey := fmt.Sprintf("ratelimit:%s:%s", scope, key)
	window := time.Duration(windowSeconds) * time.Second

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First request in a window starts its TTL. The TTL<0 check repairs
	// a key left without expiry by a crash between INCR and EXPIRE.
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	} else if ttl, err := l.client.TTL(ctx, redisKey).Result(); err == nil && ttl < 0 {
		l.client.Expire(ctx, redisKey, window)
	}

	if int(count) <= limit {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}

	logger.Debug("Rate limit exceeded", map[string]interface{}{
		"scope":       scope,
		"count":       count,
		"limit":       limit,
		"retry_after": ttl.String(),
	})

	return false, int(ttl.Seconds()), nil
}
