package session

import "time"

// DefaultCookieName is used when no cookie name is configured.
const DefaultCookieName = "sid"

// Config holds session configuration.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE" envDefault:"sid"`

	// TTL is the sliding lifetime of a session.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// MaxLifetime caps a session's total age regardless of activity.
	MaxLifetime time.Duration `env:"SESSION_MAX_LIFETIME" envDefault:"720h"`

	// CleanupInterval for the in-memory store (0 to disable).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"5m"`

	// SecureCookies sets the Secure flag on the session cookie.
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// RedisKeyPrefix namespaces keys when sessions live in Redis.
	RedisKeyPrefix string `env:"SESSION_REDIS_PREFIX" envDefault:"session:"`
}

// DefaultConfig returns the defaults used by New.
func DefaultConfig() Config {
	return Config{
		CookieName:      DefaultCookieName,
		TTL:             24 * time.Hour,
		MaxLifetime:     30 * 24 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		RedisKeyPrefix:  DefaultRedisKeyPrefix,
	}
}
