package tenancy_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/rbac"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newTenant(id int64, name string, status tenant.Status) *tenant.Tenant {
	return &tenant.Tenant{ID: id, Name: name, Slug: name, Status: status}
}

// fixture tenants:
//
//	10 Acme    active
//	20 Beta    active
//	30 Gamma   suspended
//	40 Delta   trial until tomorrow
//	50 Epsilon trial expired yesterday
//	60 Zeta    cancelled
func fixtureTenants() []*tenant.Tenant {
	delta := newTenant(40, "Delta", tenant.StatusTrial)
	delta.TrialEndsAt = ptr(testNow.Add(24 * time.Hour))
	epsilon := newTenant(50, "Epsilon", tenant.StatusTrial)
	epsilon.TrialEndsAt = ptr(testNow.Add(-24 * time.Hour))

	return []*tenant.Tenant{
		newTenant(10, "Acme", tenant.StatusActive),
		newTenant(20, "Beta", tenant.StatusActive),
		newTenant(30, "Gamma", tenant.StatusSuspended),
		delta,
		epsilon,
		newTenant(60, "Zeta", tenant.StatusCancelled),
	}
}

func newRepo() *tenant.MemoryRepository {
	return tenant.NewMemoryRepository(language.English, fixtureTenants()...)
}

func principal(id int64, home *tenant.Tenant, roles ...rbac.Role) *identity.Principal {
	return &identity.Principal{
		ID:         id,
		Email:      fmt.Sprintf("user%d@example.com", id),
		HomeTenant: home,
		Roles:      roles,
	}
}

// recordingHandler keeps every log record for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level, msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level && r.Message == msg {
			n++
		}
	}
	return n
}

func (h *recordingHandler) countLevel(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

// attrs returns the attributes of the first record with msg.
func (h *recordingHandler) attrs(msg string) map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Message != msg {
			continue
		}
		out := make(map[string]any)
		r.Attrs(func(a slog.Attr) bool {
			out[a.Key] = a.Value.Any()
			return true
		})
		return out
	}
	return nil
}

type testResource struct {
	owner       *tenant.Tenant
	kind        tenancy.ResourceKind
	id          any
	contributor *int64
}

func (r *testResource) OwningTenant() *tenant.Tenant       { return r.owner }
func (r *testResource) SetOwningTenant(t *tenant.Tenant)   { r.owner = t }
func (r *testResource) ResourceKind() tenancy.ResourceKind { return r.kind }
func (r *testResource) ResourceID() any                    { return r.id }

func (r *testResource) ContributorPrincipalID() (int64, bool) {
	if r.contributor == nil {
		return 0, false
	}
	return *r.contributor, true
}

// mockRepository is a testify mock of tenant.Repository.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, filter tenant.Filter) ([]*tenant.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tenant.Tenant), args.Error(1)
}

type env struct {
	repo     *tenant.MemoryRepository
	logs     *recordingHandler
	trail    *audit.MemoryStorage
	resolver *tenancy.Resolver
	decider  *tenancy.Decider
}

func newEnv(t *testing.T, opts ...tenancy.Option) *env {
	t.Helper()
	e := &env{
		repo:  newRepo(),
		logs:  &recordingHandler{},
		trail: audit.NewMemoryStorage(),
	}
	base := []tenancy.Option{
		tenancy.WithLogger(slog.New(e.logs)),
		tenancy.WithClock(func() time.Time { return testNow }),
		tenancy.WithAuditRecorder(audit.NewLogger(e.trail)),
	}
	e.resolver = tenancy.NewResolver(e.repo, append(base, opts...)...)
	e.decider = tenancy.NewDecider(e.resolver, tenancy.WithDecisionClock(func() time.Time { return testNow }))
	return e
}

func (e *env) tenant(t *testing.T, id int64) *tenant.Tenant {
	t.Helper()
	tn, err := e.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tn
}
