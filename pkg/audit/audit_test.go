package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
)

func crossTenant(principal, current, attempted int64) audit.Record {
	return audit.Record{
		Kind:              audit.KindCrossTenantAttempt,
		PrincipalID:       principal,
		CurrentTenantID:   current,
		AttemptedTenantID: attempted,
		Action:            "COMPANY_VIEW",
		ResourceKind:      "project",
		ResourceID:        "12",
		Decision:          audit.DecisionDenied,
	}
}

func TestLogger_Record(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := audit.NewMemoryStorage()

	type reqKey struct{}
	l := audit.NewLogger(store,
		audit.WithClock(func() time.Time { return fixed }),
		audit.WithRequestIDExtractor(func(ctx context.Context) (string, bool) {
			id, ok := ctx.Value(reqKey{}).(string)
			return id, ok
		}),
	)

	require.NoError(t, l.Record(context.WithValue(ctx, reqKey{}, "req-1"), crossTenant(1, 10, 20)))

	records, err := store.Query(ctx, audit.Criteria{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, fixed, r.CreatedAt)
	assert.Equal(t, "req-1", r.RequestID)
	assert.True(t, audit.Verify(audit.NewSHA256Hasher(), r))

	r.AttemptedTenantID = 99
	assert.False(t, audit.Verify(audit.NewSHA256Hasher(), r))
}

func TestLogger_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	l := audit.NewLogger(audit.NewMemoryStorage())

	tests := []struct {
		name   string
		record audit.Record
	}{
		{"missing kind", audit.Record{Action: "COMPANY_VIEW", Decision: audit.DecisionDenied}},
		{"missing action", audit.Record{Kind: audit.KindCrossTenantAttempt, Decision: audit.DecisionDenied}},
		{"unknown decision", audit.Record{Kind: audit.KindCrossTenantAttempt, Action: "COMPANY_VIEW", Decision: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := l.Record(context.Background(), tt.record)
			assert.ErrorIs(t, err, audit.ErrInvalidRecord)
		})
	}
}

func TestMemoryStorage_QueryAndCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := audit.NewMemoryStorage()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, r := range []audit.Record{
		crossTenant(1, 10, 20),
		crossTenant(2, 10, 30),
		crossTenant(1, 30, 10),
	} {
		r.ID = string(rune('a' + i))
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Store(ctx, r))
	}
	override := crossTenant(3, 10, 20)
	override.Kind = audit.KindSuperAdminOverride
	override.Decision = audit.DecisionAllowed
	override.CreatedAt = base.Add(5 * time.Hour)
	require.NoError(t, store.Store(ctx, override))

	t.Run("newest first", func(t *testing.T) {
		records, err := store.Query(ctx, audit.Criteria{Kind: audit.KindCrossTenantAttempt})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "c", records[0].ID)
		assert.Equal(t, "a", records[2].ID)
	})

	t.Run("tenant matches current or attempted", func(t *testing.T) {
		n, err := store.Count(ctx, audit.Criteria{TenantID: 30})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("principal and decision", func(t *testing.T) {
		n, err := store.Count(ctx, audit.Criteria{PrincipalID: 1, Decision: audit.DecisionDenied})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("time range is half open", func(t *testing.T) {
		records, err := store.Query(ctx, audit.Criteria{StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour)})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "b", records[0].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		records, err := store.Query(ctx, audit.Criteria{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "c", records[0].ID)

		records, err = store.Query(ctx, audit.Criteria{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("reader", func(t *testing.T) {
		r := audit.NewReader(store)
		n, err := r.Count(ctx, audit.Criteria{Kind: audit.KindSuperAdminOverride})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

type recordingBatchStorage struct {
	*audit.MemoryStorage
	mu      sync.Mutex
	batches int
	fail    error
}

func (s *recordingBatchStorage) StoreBatch(ctx context.Context, records []audit.Record) error {
	s.mu.Lock()
	s.batches++
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return fail
	}
	return s.MemoryStorage.StoreBatch(ctx, records)
}

func TestAsyncWriter(t *testing.T) {
	t.Parallel()

	t.Run("batches concurrent writes", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := &recordingBatchStorage{MemoryStorage: audit.NewMemoryStorage()}
		aw := audit.NewAsyncWriter(store, audit.AsyncOptions{BatchSize: 10, BatchTimeout: 20 * time.Millisecond})

		var wg sync.WaitGroup
		for i := range 25 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, aw.Store(ctx, crossTenant(int64(i+1), 1, 2)))
			}()
		}
		wg.Wait()
		require.NoError(t, aw.Close(ctx))

		assert.Equal(t, 25, store.Len())
		store.mu.Lock()
		assert.Less(t, store.batches, 25)
		store.mu.Unlock()
	})

	t.Run("reports batch errors to waiting callers", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		boom := errors.New("boom")
		store := &recordingBatchStorage{MemoryStorage: audit.NewMemoryStorage(), fail: boom}
		aw := audit.NewAsyncWriter(store, audit.AsyncOptions{BatchTimeout: 5 * time.Millisecond})
		defer aw.Close(ctx)

		assert.ErrorIs(t, aw.Store(ctx, crossTenant(1, 1, 2)), boom)
	})

	t.Run("no wait flushes on close", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := audit.NewMemoryStorage()
		aw := audit.NewAsyncWriter(store, audit.AsyncOptions{NoWait: true, BatchTimeout: time.Hour})

		for i := range 5 {
			require.NoError(t, aw.Store(ctx, crossTenant(int64(i+1), 1, 2)))
		}
		require.NoError(t, aw.Close(ctx))
		assert.Equal(t, 5, store.Len())

		assert.ErrorIs(t, aw.Store(ctx, crossTenant(9, 1, 2)), audit.ErrStorageNotAvailable)
	})

	t.Run("logger with async", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		store := audit.NewMemoryStorage()
		l := audit.NewLogger(store, audit.WithAsync(audit.AsyncOptions{BatchTimeout: 5 * time.Millisecond}))

		require.NoError(t, l.Record(ctx, crossTenant(1, 1, 2)))
		require.NoError(t, l.Close(ctx))
		assert.Equal(t, 1, store.Len())
	})
}
