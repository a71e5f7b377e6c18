package session

import "context"

type sessionContextKey struct{}

// WithSession adds a session to the context.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// FromContext retrieves the session placed by the middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*Session)
	return session, ok && session != nil
}

// UserIDFromContext returns the authenticated user id of the session in ctx.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	session, ok := FromContext(ctx)
	if !ok || !session.IsAuthenticated() {
		return 0, false
	}
	return session.UserID, true
}
