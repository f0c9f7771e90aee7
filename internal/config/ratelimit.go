package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig drives the Redis token bucket in front of the picker and
// paywall routes.  The picker's input endpoint sees one request per
// keystroke, so the defaults allow short typing bursts while still capping a
// runaway client.
type RateLimitConfig struct {
	Enabled     bool          // master switch; disabled buckets pass everything through
	Burst       int           // bucket capacity, i.e. how many requests a burst may spend
	RefillEvery time.Duration // one token is returned per interval
	TTL         time.Duration // idle bucket expiry in Redis
	Scope       string        // key scope: user, ip, user_route or ip_route
	Prefix      string        // Redis key namespace
	Debug       bool          // verbose logging plus the key echoed in a header
}

// LoadRateLimitConfig reads the bucket parameters from the environment and
// clamps them to sane values.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Burst:       envInt("RATE_LIMIT_BURST", 120),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", 500*time.Millisecond),
		TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Scope:       envStr("RATE_LIMIT_SCOPE", "user_route"),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "mg:rl"),
		Debug:       envBool("RATE_LIMIT_DEBUG", false),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillEvery <= 0 {
		cfg.RefillEvery = 500 * time.Millisecond
	}
	// A bucket must outlive a few refill intervals or it resets to full
	// between requests and the limit never bites.
	if min := 5 * cfg.RefillEvery; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
