package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/nexusclub/member-gate/internal/config"
)

// tokenBucket is the Lua side of the limiter.  The whole
// refill-then-take step runs atomically inside Redis, so concurrent
// requests against the same bucket never double-spend a token.  State is a
// hash of the token count and the last refill timestamp; one token comes
// back per refill interval.
var tokenBucket = redis.NewScript(`
    local tokens, last = unpack(redis.call('HMGET', KEYS[1], 'tokens', 'last_ms'))
    local now_ms = tonumber(ARGV[1])
    local burst = tonumber(ARGV[2])
    local refill_ms = tonumber(ARGV[3])

    tokens = tonumber(tokens)
    last = tonumber(last)
    if tokens == nil or last == nil then
        tokens = burst
        last = now_ms
    end

    local earned = math.floor(math.max(0, now_ms - last) / refill_ms)
    if earned > 0 then
        tokens = math.min(burst, tokens + earned)
        last = last + earned * refill_ms
    end

    local allowed = 0
    local wait_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        wait_ms = math.max(0, refill_ms - (now_ms - last))
    end

    redis.call('HMSET', KEYS[1], 'tokens', tokens, 'last_ms', last)
    redis.call('EXPIRE', KEYS[1], tonumber(ARGV[4]))
    return { allowed, tokens, wait_ms }
`)

// NewTokenBucket returns a Redis-backed rate limiting middleware.  Every
// limited route sits behind JWT auth, so buckets key on the authenticated
// user by default.  A nil Redis client or any runtime Redis failure degrades
// to pass-through: limiting is protection, not a dependency.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg, c)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Burst,
				cfg.RefillEvery.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}

			res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
			if err != nil || len(res) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: script failed for %s: %v", key, err)
				}
				return next(c)
			}
			allowed, remaining, waitMs := res[0] == 1, res[1], res[2]

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				c.Response().Header().Set("X-RateLimit-Key", key)
			}

			if !allowed {
				secs := int(math.Ceil(float64(waitMs) / 1000.0))
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// bucketKey derives the Redis key for the caller under the configured scope.
// Unauthenticated callers fall back to their IP so they cannot share (or
// exhaust) a user's bucket.
func bucketKey(cfg config.RateLimitConfig, c echo.Context) string {
	subject := "ip:" + c.RealIP()
	if cfg.Scope == "user" || cfg.Scope == "user_route" {
		if uid, ok := c.Get("user_id").(string); ok && uid != "" {
			subject = "user:" + uid
		}
	}
	if cfg.Scope == "user" || cfg.Scope == "ip" {
		return cfg.Prefix + ":" + subject
	}
	return cfg.Prefix + ":" + subject + ":" + c.Request().Method + ":" + c.Path()
}
