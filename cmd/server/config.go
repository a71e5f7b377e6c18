package main

import (
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/environment"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/redis"
	"github.com/dmitrymomot/tenantkit/pkg/session"
)

type appConfig struct {
	Env         environment.Environment `env:"APP_ENV" envDefault:"development"`
	ServiceName string                  `env:"SERVICE_NAME" envDefault:"tenantkit"`
	// LogLevel overrides the level of the APP_ENV preset, e.g. "debug".
	LogLevel string `env:"LOG_LEVEL"`

	JWTSecret string `env:"JWT_SECRET,required"`

	TenantClaim     string        `env:"TENANT_CLAIM" envDefault:"tenant_id"`
	TenantCacheTTL  time.Duration `env:"TENANT_CACHE_TTL" envDefault:"30s"`
	TenantCacheSize int           `env:"TENANT_CACHE_SIZE" envDefault:"1000"`
	RolesFile       string        `env:"ROLES_FILE"`

	// MONGODB_* is read only when audit records go to MongoDB.
	AuditMongoEnabled bool `env:"AUDIT_MONGO_ENABLED" envDefault:"false"`

	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`

	HTTP    httpserver.Config
	Session session.Config
	PG      pg.Config
	Redis   redis.Config
}
