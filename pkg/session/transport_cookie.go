package session

import (
	"net/http"
	"time"
)

// CookieTransport carries the session token in an HttpOnly cookie.
type CookieTransport struct {
	name   string
	path   string
	domain string
	secure bool
}

// NewCookieTransport creates a cookie transport. Secure should be enabled
// outside of local development.
func NewCookieTransport(name string, secure bool) *CookieTransport {
	if name == "" {
		name = DefaultCookieName
	}
	return &CookieTransport{name: name, path: "/", secure: secure}
}

// WithDomain returns a copy of the transport that scopes the cookie to domain.
func (t *CookieTransport) WithDomain(domain string) *CookieTransport {
	cp := *t
	cp.domain = domain
	return &cp
}

// GetToken reads the session token from the cookie.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	c, err := r.Cookie(t.name)
	if err != nil || c.Value == "" {
		return "", ErrSessionNotFound
	}
	return c.Value, nil
}

// SetToken writes the session cookie.
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    token,
		Path:     t.path,
		Domain:   t.domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearToken expires the session cookie.
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	http.SetCookie(w, &http.Cookie{
		Name:     t.name,
		Value:    "",
		Path:     t.path,
		Domain:   t.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
