// Package session provides server-side sessions with pluggable storage and
// token transports.
//
// A Manager loads the session referenced by a request (or starts a fresh
// anonymous one), and persists it only when it was modified. Stores ship for
// process memory (MemoryStore) and Redis (RedisStore). Tokens travel in a
// cookie (CookieTransport, default) or a header (HeaderTransport).
//
//	manager := session.New(
//		session.WithStore(session.NewRedisStore(rdb, "")),
//		session.WithTTL(12*time.Hour),
//	)
//	router.Use(manager.Middleware)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		sess, _ := session.FromContext(r.Context())
//		sess.Set("current_tenant_id", int64(42))
//	}
//
// Session exposes Has, Get, Set and Remove, and tracks whether it changed.
// The middleware writes a changed session back right before the response
// headers go out.
//
// After login call Authenticate, which rotates the token.
package session
