package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/httpserver"
)

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	decode := func(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
		t.Helper()
		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		return body
	}

	t.Run("liveness without probes", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.HealthCheckHandler(nil, time.Second, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "alive", decode(t, rec)["status"])
	})

	t.Run("all probes up", func(t *testing.T) {
		t.Parallel()
		h := httpserver.HealthCheckHandler(nil, time.Second, map[string]httpserver.Probe{"postgres": up, "redis": up})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, map[string]any{"postgres": "up", "redis": "up"}, body["checks"])
	})

	t.Run("one probe down", func(t *testing.T) {
		t.Parallel()
		h := httpserver.HealthCheckHandler(nil, time.Second, map[string]httpserver.Probe{"postgres": up, "mongo": down})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, map[string]any{"postgres": "up", "mongo": "down"}, body["checks"])
	})

	t.Run("probe sees deadline", func(t *testing.T) {
		t.Parallel()
		var hasDeadline bool
		probe := func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}
		h := httpserver.HealthCheckHandler(nil, 50*time.Millisecond, map[string]httpserver.Probe{"redis": probe})
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.True(t, hasDeadline)
	})
}
