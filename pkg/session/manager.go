package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Manager loads, persists and rotates sessions.
type Manager struct {
	store     Store
	transport Transport
	config    Config
	logger    *slog.Logger
	ownStore  bool
}

// New creates a manager. Without options it keeps sessions in memory and
// carries the token in a cookie.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
		m.ownStore = true
	}
	if m.transport == nil {
		m.transport = NewCookieTransport(m.config.CookieName, m.config.SecureCookies)
	}

	return m
}

// NewFromConfig creates a manager from cfg plus extra options.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}

// Load returns the session referenced by the request, or a fresh anonymous
// session when there is none. Fresh sessions are persisted by Save only once
// something is written to them.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err == nil {
		session, err := m.store.Get(ctx, token)
		switch {
		case err == nil:
			return session, nil
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		default:
			return nil, err
		}
	}
	return m.newSession()
}

// Save persists a modified session and refreshes the client token.
// Unmodified sessions are left alone.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}
	if !session.Modified() {
		return nil
	}

	session.ExpiresAt = m.expiry(session.CreatedAt, time.Now())
	session.Touch()

	var err error
	if session.fresh {
		err = m.store.Create(ctx, session)
	} else {
		err = m.store.Update(ctx, session)
		if errors.Is(err, ErrSessionNotFound) {
			err = m.store.Create(ctx, session)
		}
	}
	if err != nil {
		return err
	}

	session.fresh = false
	session.modified = false
	return m.transport.SetToken(w, session.Token, time.Until(session.ExpiresAt))
}

// Authenticate binds userID to the session under a new token so a token
// issued before login cannot be replayed afterwards.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, session *Session, userID int64) error {
	if session == nil {
		return ErrInvalidSession
	}

	if !session.fresh {
		_ = m.store.Delete(ctx, session.Token)
	}

	token, err := generateToken()
	if err != nil {
		return err
	}
	session.Token = token
	session.UserID = userID
	session.fresh = true
	session.modified = true

	return m.Save(ctx, w, session)
}

// Destroy deletes the session and clears the client token.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, session *Session) error {
	if session != nil && !session.fresh {
		if err := m.store.Delete(ctx, session.Token); err != nil {
			return err
		}
	}
	return m.transport.ClearToken(w)
}

// Close releases the in-memory store when the manager created it.
func (m *Manager) Close() error {
	if ms, ok := m.store.(*MemoryStore); ok && m.ownStore {
		return ms.Close()
	}
	return nil
}

func (m *Manager) newSession() (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	session := NewSession(token, m.config.TTL)
	session.fresh = true
	return session, nil
}

// expiry is the earlier of the sliding TTL and the absolute max lifetime.
func (m *Manager) expiry(createdAt, now time.Time) time.Time {
	idle := now.Add(m.config.TTL)
	if m.config.MaxLifetime <= 0 {
		return idle
	}
	if limit := createdAt.Add(m.config.MaxLifetime); limit.Before(idle) {
		return limit
	}
	return idle
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
