package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/environment"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("production is json at info", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(environment.Production, "svc"))
		log.Debug("hidden")
		assert.Zero(t, buf.Len())

		log.Info("msg")
		entry := decode(t, buf)
		assert.Equal(t, "svc", entry["service"])
		assert.Equal(t, "production", entry["env"])
	})

	t.Run("development is text at debug", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(environment.Development, "svc"))
		log.Debug("msg")
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "service=svc")
	})

	t.Run("test is quiet", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(environment.Test, "svc"))
		log.Info("msg")
		assert.Zero(t, buf.Len())
		log.Warn("msg")
		assert.Contains(t, buf.String(), "env=test")
	})
}

func TestWithContextExtractors(t *testing.T) {
	t.Parallel()

	type key struct{}
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
			if v, ok := ctx.Value(key{}).(int64); ok {
				return logger.TenantID(v), true
			}
			return slog.Attr{}, false
		}),
	)

	log.InfoContext(context.WithValue(context.Background(), key{}, int64(42)), "msg")
	entry := decode(t, buf)
	assert.Equal(t, float64(42), entry["tenant_id"])

	buf.Reset()
	log.With(slog.String("extra", "x")).InfoContext(context.WithValue(context.Background(), key{}, int64(7)), "msg")
	entry = decode(t, buf)
	assert.Equal(t, float64(7), entry["tenant_id"])
	assert.Equal(t, "x", entry["extra"])
}

func TestSecurity(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.Security(logger.New(logger.WithOutput(buf)))
	log.Error("SECURITY: violation", logger.PrincipalID(1), logger.AttemptedTenantID(2))

	entry := decode(t, buf)
	assert.Equal(t, "security", entry["component"])
	assert.Equal(t, float64(1), entry["principal_id"])
	assert.Equal(t, float64(2), entry["attempted_tenant_id"])
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("x")).Key)
	assert.Equal(t, slog.Attr{}, logger.ResourceID(nil))
	assert.Equal(t, slog.Attr{}, logger.RequestID(""))
	assert.Equal(t, "request_id", logger.RequestID("r1").Key)
	assert.Equal(t, "event", logger.Event("tenant_switch").Key)
	assert.Equal(t, slog.KindDuration, logger.Duration(time.Second).Value.Kind())
}

func TestWithFormatPanicsOnUnknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}
