package session

import (
	"log/slog"
	"net/http"
	"sync"
)

// Middleware loads the session into the request context and persists it if
// the handler modified it. The commit happens right before the first byte of
// the response so the token header or cookie still makes it to the client.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		session, err := m.Load(ctx, r)
		if err != nil {
			m.logger.ErrorContext(ctx, "session load failed", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		cw := &committingWriter{ResponseWriter: w}
		cw.commit = func() {
			if err := m.Save(ctx, w, session); err != nil {
				m.logger.ErrorContext(ctx, "session save failed", slog.Any("error", err))
			}
		}

		next.ServeHTTP(cw, r.WithContext(WithSession(ctx, session)))
		cw.once.Do(cw.commit)
	})
}

// RequireAuth rejects requests whose session has no authenticated user.
// It must run after Middleware.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type committingWriter struct {
	http.ResponseWriter
	commit func()
	once   sync.Once
}

func (cw *committingWriter) WriteHeader(code int) {
	cw.once.Do(cw.commit)
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *committingWriter) Write(b []byte) (int, error) {
	cw.once.Do(cw.commit)
	return cw.ResponseWriter.Write(b)
}

func (cw *committingWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
