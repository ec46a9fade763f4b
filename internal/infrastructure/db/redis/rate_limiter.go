package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit"

// fixedWindowScript increments the counter of a window and starts its expiry
// on the first hit. It returns 1 while the count is within the limit.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RateLimiter is a fixed window counter shared by every API instance.
// Key format: ratelimit:<key>
type RateLimiter struct {
	client *redis.Client
	script *redis.Script
}

// NewRateLimiter creates a RateLimiter wrapping the given Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, script: redis.NewScript(fixedWindowScript)}
}

// Allow records a hit for key and reports whether it is within limit for the
// current window. A non positive limit or window disables limiting.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 || key == "" {
		return true, nil
	}

	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	allowed, err := l.script.Run(ctx, l.client, []string{l.key(key)}, ttl, limit).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return allowed == 1, nil
}

func (l *RateLimiter) key(key string) string {
	return rateLimitPrefix + ":" + strings.ToLower(strings.TrimSpace(key))
}
