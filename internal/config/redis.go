package config

// Redis backs the distributed rate limiter in front of the picker routes.
// Nothing else is stored there: availability answers are never cached, so a
// missing Redis only costs rate limiting, not correctness.  When the server
// cannot be reached at startup the constructor returns nil and the limiter
// degrades to a pass-through.

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from the environment.
//
//	REDIS_URL      – full connection URL (redis:// or rediss://); wins when set
//	REDIS_ADDR     – host:port, default localhost:6379
//	REDIS_PASSWORD – optional password
//
// Returns nil when the server does not answer a ping within two seconds.
func NewRedisClient() *redis.Client {
	var opts *redis.Options
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			return nil
		}
		opts = parsed
	} else {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		opts = &redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
