package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// IDExtractor finds the authenticated principal id of a request.
// It returns false when the request carries no identity.
type IDExtractor func(r *http.Request) (int64, bool)

// ChainExtractors tries extractors in order and returns the first hit.
func ChainExtractors(extractors ...IDExtractor) IDExtractor {
	return func(r *http.Request) (int64, bool) {
		for _, ex := range extractors {
			if id, ok := ex(r); ok {
				return id, true
			}
		}
		return 0, false
	}
}

// FromContextValue builds an extractor over any context lookup, e.g.
// session.UserIDFromContext.
func FromContextValue(lookup func(ctx context.Context) (int64, bool)) IDExtractor {
	return func(r *http.Request) (int64, bool) {
		return lookup(r.Context())
	}
}

// FromSubject builds an extractor over a string subject such as the JWT
// "sub" claim.
func FromSubject(lookup func(ctx context.Context) (string, bool)) IDExtractor {
	return func(r *http.Request) (int64, bool) {
		sub, ok := lookup(r.Context())
		if !ok || sub == "" {
			return 0, false
		}
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
}

type middlewareConfig struct {
	logger   *slog.Logger
	required bool
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithLogger sets the logger for lookup failures.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequired rejects requests that carry no principal with 401.
func WithRequired() MiddlewareOption {
	return func(c *middlewareConfig) { c.required = true }
}

// Middleware loads the principal of the request and stores it in the
// context. Unknown ids are treated as unauthenticated.
func Middleware(provider Provider, extract IDExtractor, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, ok := extract(r)
			if !ok {
				if cfg.required {
					http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			p, err := provider.FindByID(ctx, id)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, p)))
			case errors.Is(err, ErrPrincipalNotFound):
				cfg.logger.WarnContext(ctx, "principal not found", slog.Int64("principal_id", id))
				if cfg.required {
					http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			default:
				cfg.logger.ErrorContext(ctx, "principal lookup failed",
					slog.Int64("principal_id", id),
					slog.Any("error", err),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
	}
}

// RequirePrincipal rejects requests without a principal in context.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
