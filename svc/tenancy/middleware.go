package tenancy

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/jwt"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/session"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Middleware builds a fresh Request for every HTTP request from the
// principal, verified JWT claims and session already in the context. It
// must run after the session, jwt and identity middlewares.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal, _ := identity.FromContext(ctx)
		var opts []RequestOption
		if claims, ok := jwt.ClaimsFromContext(ctx); ok {
			opts = append(opts, WithClaims(claims))
		}
		if sess, ok := session.FromContext(ctx); ok {
			opts = append(opts, WithSession(sess))
		}

		req := NewRequest(principal, opts...)
		next.ServeHTTP(w, r.WithContext(WithRequest(ctx, req)))
	})
}

// RequireTenant resolves the tenant eagerly and rejects the request when
// resolution fails. The tenant is added to the context for handlers and log
// extractors.
func RequireTenant(resolver *Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			t, err := resolver.Current(ctx)
			if err != nil {
				logResolveError(log, r, err)
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(tenant.WithTenant(ctx, t)))
		})
	}
}

// logResolveError logs isolation failures at warn and everything else at
// error.
func logResolveError(log *slog.Logger, r *http.Request, err error) {
	ctx := r.Context()
	if errorKind(err) == "internal" {
		log.ErrorContext(ctx, "tenant resolution failed", logger.Error(err))
		return
	}
	log.WarnContext(ctx, "tenant resolution rejected",
		slog.String("path", r.URL.Path),
		slog.String("kind", errorKind(err)),
		logger.Error(err),
	)
}
