package config

import "time"

// RateLimitConfig tunes the Redis token-bucket limiter applied to /api.
// KeyStrategy decides how buckets are scoped: "ip" (default), "user"
// (falls back to ip for anonymous callers) or "route_ip".
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig builds a RateLimitConfig from the environment with
// defaults suited to a public catalogue API: 60 requests burst, one token
// back per second.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       atoi(getenv("RATE_LIMIT_CAPACITY", "60")),
		RefillTokens:   atoi(getenv("RATE_LIMIT_REFILL_TOKENS", "1")),
		RefillInterval: parseDur(getenv("RATE_LIMIT_REFILL_INTERVAL", "1s")),
		TTL:            parseDur(getenv("RATE_LIMIT_TTL", "10m")),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
}
