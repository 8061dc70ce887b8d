package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// tokenBucketScript refills and takes one token atomically. Returns 1 when
// the request is allowed.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local refill_per_ms = tonumber(ARGV[3])
if refill_per_ms <= 0 then
  refill_per_ms = 0.000001
end

local tokens = tonumber(redis.call("HGET", key, "tokens"))
local last_ms = tonumber(redis.call("HGET", key, "last_ms"))
if not tokens then
  tokens = burst
end
if not last_ms or now_ms < last_ms then
  last_ms = now_ms
end
tokens = math.min(burst, tokens + ((now_ms - last_ms) * refill_per_ms))

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", key, "tokens", tostring(tokens), "last_ms", tostring(now_ms))
local ttl_ms = math.ceil(burst / refill_per_ms)
if ttl_ms < 1000 then
  ttl_ms = 1000
end
if ttl_ms > 3600000 then
  ttl_ms = 3600000
end
redis.call("PEXPIRE", key, ttl_ms)
return allowed
`)

// RedisRateLimiter is a per-IP token bucket shared by every API instance
// through Redis. When Redis is unreachable requests are let through.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	r      rate.Limit
	burst  int
	now    func() time.Time
}

func NewRedisRateLimiter(client redis.UniversalClient, prefix string, r rate.Limit, burst int) *RedisRateLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisRateLimiter{client: client, prefix: prefix, r: r, burst: burst, now: time.Now}
}

// Allow takes one token from key's bucket.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		key = "unknown"
	}
	res, err := tokenBucketScript.Run(ctx, rl.client,
		[]string{fmt.Sprintf("%s:%s", rl.prefix, key)},
		rl.now().UnixMilli(),
		rl.burst,
		float64(rl.r)/1000.0,
	).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
