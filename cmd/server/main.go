package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/jwt"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/mongo"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/rbac"
	"github.com/dmitrymomot/tenantkit/pkg/redis"
	"github.com/dmitrymomot/tenantkit/pkg/requestid"
	"github.com/dmitrymomot/tenantkit/pkg/session"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
	"github.com/dmitrymomot/tenantkit/svc/tenancy/pgstore"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			identity.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	}
	if cfg.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
		logOpts = append(logOpts, logger.WithLevel(level))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Infrastructure

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if cfg.PG.AutoMigrate {
		if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg.PG, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	probes := map[string]httpserver.Probe{
		"postgres": pg.Healthcheck(pool),
		"redis":    redis.Healthcheck(rdb),
	}

	auditStorage, closeAudit, err := openAuditStorage(ctx, cfg, probes)
	if err != nil {
		return err
	}
	defer closeAudit()

	hierarchy, err := loadHierarchy(ctx, cfg.RolesFile)
	if err != nil {
		return fmt.Errorf("roles: %w", err)
	}

	jwtSvc, err := jwt.NewFromString(cfg.JWTSecret, jwt.WithIssuer(cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	// Stores

	cache := tenant.NewInMemoryCache(tenant.WithMaxSize(cfg.TenantCacheSize))
	defer func() { _ = cache.Close() }()
	tenantStore := pgstore.NewTenants(pool)
	tenants := tenant.NewCachedRepository(tenantStore, cache, cfg.TenantCacheTTL)
	principals := pgstore.NewPrincipals(pool, hierarchy)

	sessions := session.NewFromConfig(cfg.Session,
		session.WithStore(session.NewRedisStore(rdb, cfg.Session.RedisKeyPrefix)),
		session.WithLogger(log),
	)
	defer func() { _ = sessions.Close() }()

	trail := audit.NewLogger(auditStorage,
		audit.WithRequestIDExtractor(requestid.Lookup),
		audit.WithAsync(audit.AsyncOptions{
			BufferSize:     1024,
			BatchSize:      100,
			BatchTimeout:   time.Second,
			StorageTimeout: 5 * time.Second,
		}),
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := trail.Close(closeCtx); err != nil {
			log.Error("audit flush failed", logger.Error(err))
		}
	}()

	// Tenancy

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	resolver := tenancy.NewResolver(tenants,
		tenancy.WithLogger(log),
		tenancy.WithAuditRecorder(trail),
		tenancy.WithMetrics(tenancy.NewMetrics(reg)),
		tenancy.WithClaimName(cfg.TenantClaim),
		tenancy.WithTestMode(cfg.Env.IsTest()),
	)
	decider := tenancy.NewDecider(resolver)

	// HTTP

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/health", httpserver.HealthCheckHandler(log, cfg.HealthTimeout, probes))
	r.Get("/health/live", httpserver.HealthCheckHandler(log, cfg.HealthTimeout, nil))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Use(jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{Service: jwtSvc, Optional: true}))
		r.Use(identity.Middleware(principals,
			identity.ChainExtractors(
				identity.FromSubject(jwtSubject),
				identity.FromContextValue(session.UserIDFromContext),
			),
			identity.WithLogger(log),
		))
		r.Use(tenancy.Middleware)

		tenancy.NewHandler(resolver, log).Register(r)
		newProjectHandler(resolver, decider, pgstore.NewProjects(pool), log).Register(r)
		newTimesheetHandler(resolver, decider, pgstore.NewTimesheets(pool), log).Register(r)
		newTenantAdminHandler(tenantStore, tenants, log).Register(r)
	})

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

// openAuditStorage picks MongoDB when enabled and process memory otherwise.
// The returned func releases the client.
func openAuditStorage(ctx context.Context, cfg appConfig, probes map[string]httpserver.Probe) (audit.Storage, func(), error) {
	if !cfg.AuditMongoEnabled {
		return audit.NewMemoryStorage(), func() {}, nil
	}

	var mcfg mongo.Config
	if err := config.Load(&mcfg); err != nil {
		return nil, nil, fmt.Errorf("mongo config: %w", err)
	}
	client, err := mongo.New(ctx, mcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: %w", err)
	}
	release := func() { _ = client.Disconnect(context.WithoutCancel(ctx)) }

	storage := audit.NewMongoStorageFromDB(client.Database(mcfg.Database))
	if err := storage.EnsureIndexes(ctx); err != nil {
		release()
		return nil, nil, fmt.Errorf("audit indexes: %w", err)
	}
	probes["mongo"] = mongo.Healthcheck(client)
	return storage, release, nil
}

// loadHierarchy reads role definitions from a YAML file, or returns the
// built-in hierarchy when path is empty.
func loadHierarchy(ctx context.Context, path string) (*rbac.Hierarchy, error) {
	if path == "" {
		return rbac.Default(), nil
	}
	src := rbac.NewYAMLRoleSource(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	return rbac.NewHierarchy(ctx, src)
}

func jwtSubject(ctx context.Context) (string, bool) {
	claims, ok := jwt.ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.Subject(), true
}
