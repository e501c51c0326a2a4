package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript increments the counter and starts its expiry on the first hit
// of a window, atomically. Returns {count, remaining ttl in ms}.
var windowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// RedisLimiter is a fixed-window limiter whose counters live in Redis, so
// every replica sees the same counts.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter allows limit requests per key per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "promptshelf:ratelimit:",
		limit:  int64(limit),
		window: window,
	}
}

// Allow counts one request for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	raw, err := windowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("running rate limit script: %w", err)
	}
	if len(raw) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit script result %v", raw)
	}

	count, ttl := raw[0], raw[1]
	res := Result{Allowed: count <= l.limit, Count: count, Limit: l.limit}
	if !res.Allowed && ttl > 0 {
		res.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return res, nil
}
