package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/session"
)

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	return nil
}

func TestManager_MiddlewarePersistsOnlyModifiedSessions(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(0)
	m := session.New(session.WithStore(store))

	readOnly := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		require.True(t, ok)
		assert.True(t, s.IsNew())
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	readOnly.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, sessionCookie(t, rec))
	assert.Equal(t, 0, store.Len())

	writer := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := session.FromContext(r.Context())
		s.Set("current_tenant_id", int64(3))
		w.WriteHeader(http.StatusNoContent)
	}))

	rec = httptest.NewRecorder()
	writer.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 1, store.Len())

	reader := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := session.FromContext(r.Context())
		assert.False(t, s.IsNew())
		id, ok := s.GetInt64("current_tenant_id")
		assert.True(t, ok)
		assert.Equal(t, int64(3), id)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	reader.ServeHTTP(rec, req)
	assert.Nil(t, sessionCookie(t, rec))
}

func TestManager_AuthenticateRotatesToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	m := session.New(session.WithStore(store), session.WithTransport(session.NewHeaderTransport("")))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s, err := m.Load(ctx, req)
	require.NoError(t, err)
	s.Set("k", "v")
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), s))
	oldToken := s.Token

	rec := httptest.NewRecorder()
	require.NoError(t, m.Authenticate(ctx, rec, s, 42))

	assert.NotEqual(t, oldToken, s.Token)
	assert.Equal(t, s.Token, rec.Header().Get(session.DefaultHeaderName))

	_, err = store.Get(ctx, oldToken)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	loaded, err := store.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), loaded.UserID)
	v, _ := loaded.GetString("k")
	assert.Equal(t, "v", v)
}

func TestManager_DestroyClearsToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(0)
	m := session.New(session.WithStore(store))

	s, err := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	s.Set("k", "v")
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), s))
	require.Equal(t, 1, store.Len())

	rec := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, rec, s))
	assert.Equal(t, 0, store.Len())
	c := sessionCookie(t, rec)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	h := session.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s := session.NewSession("tok", 0)
	s.UserID = 9
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(session.WithSession(req.Context(), s))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
