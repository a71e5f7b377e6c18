package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

const (
	// DefaultClaimName is the token claim holding the tenant id.
	DefaultClaimName = "tenant_id"
	// DefaultSessionKey is the session key written by SwitchTenant.
	DefaultSessionKey = "current_tenant_id"
)

// Values of the "event" log attribute.
const (
	EventTenantSwitch       = "tenant_switch"
	EventTenantSwitchDenied = "tenant_switch_denied"
	EventCrossTenantAttempt = "cross_tenant_attempt"
	EventSuperAdminOverride = "super_admin_override"
)

// AuditRecorder persists authorization audit records. *audit.Logger
// satisfies it.
type AuditRecorder interface {
	Record(ctx context.Context, record audit.Record) error
}

// Resolver determines the single tenant a request acts in. It holds no
// per-request state and is safe for concurrent use.
type Resolver struct {
	tenants    tenant.Repository
	log        *slog.Logger
	audit      AuditRecorder
	metrics    *Metrics
	now        func() time.Time
	claimName  string
	sessionKey string
	testMode   bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Security events are tagged with the
// "security" component.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithAuditRecorder persists tenant switches.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(r *Resolver) { r.audit = a }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithClock overrides the time source used for trial expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithClaimName overrides DefaultClaimName.
func WithClaimName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.claimName = name
		}
	}
}

// WithSessionKey overrides DefaultSessionKey.
func WithSessionKey(key string) Option {
	return func(r *Resolver) {
		if key != "" {
			r.sessionKey = key
		}
	}
}

// WithTestMode lets SwitchTenant target unusable tenants. Resolution still
// enforces tenant status.
func WithTestMode(enabled bool) Option {
	return func(r *Resolver) { r.testMode = enabled }
}

// NewResolver creates a resolver over the tenant repository.
func NewResolver(tenants tenant.Repository, opts ...Option) *Resolver {
	if tenants == nil {
		panic("tenancy: tenant repository cannot be nil")
	}
	r := &Resolver{
		tenants:    tenants,
		log:        slog.Default(),
		now:        time.Now,
		claimName:  DefaultClaimName,
		sessionKey: DefaultSessionKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.Security(r.log)
	return r
}

// Resolve returns the tenant of req. The first success is memoized on req
// and later calls return it without any lookup.
//
// Order: tenant claim, then the tenant stored in the session by
// SwitchTenant, then the principal's home tenant. A claim naming an unknown
// tenant fails; a stale or forbidden session value is removed and skipped.
// The result must be usable and accessible to the principal.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (*tenant.Tenant, error) {
	if req == nil {
		return nil, &ContextMissingError{Reason: "no tenancy request in context"}
	}
	if t, ok := req.memoized(); ok {
		return t, nil
	}

	start := time.Now()
	t, source, err := r.resolve(ctx, req)
	r.metrics.observeResolve(source, err, start)
	if err != nil {
		return nil, err
	}

	req.memoize(t)
	r.log.DebugContext(ctx, "tenant resolved",
		logger.TenantID(t.ID),
		slog.String("source", string(source)),
		logger.Duration(time.Since(start)),
	)
	return t, nil
}

// ResolveID returns the id of the resolved tenant.
func (r *Resolver) ResolveID(ctx context.Context, req *Request) (int64, error) {
	t, err := r.Resolve(ctx, req)
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

// Current resolves the tenant of the Request stored in ctx.
func (r *Resolver) Current(ctx context.Context) (*tenant.Tenant, error) {
	req, _ := RequestFromContext(ctx)
	return r.Resolve(ctx, req)
}

// CurrentID resolves the tenant id of the Request stored in ctx.
func (r *Resolver) CurrentID(ctx context.Context) (int64, error) {
	req, _ := RequestFromContext(ctx)
	return r.ResolveID(ctx, req)
}

func (r *Resolver) resolve(ctx context.Context, req *Request) (*tenant.Tenant, Source, error) {
	p := req.principal
	if p == nil {
		return nil, SourceNone, &ContextMissingError{Reason: "principal not authenticated"}
	}

	t, source, err := r.candidate(ctx, req)
	if err != nil {
		return nil, source, err
	}

	if !t.IsUsable(r.now()) {
		return nil, source, &InactiveError{TenantID: t.ID, Status: t.Status, PrincipalID: p.ID}
	}

	if !r.HasAccessTo(p, t) {
		home, _ := p.HomeTenantID()
		return nil, source, &CrossTenantError{
			PrincipalID:       p.ID,
			HomeTenantID:      home,
			AttemptedTenantID: t.ID,
		}
	}

	return t, source, nil
}

// candidate picks the tenant before status and access checks.
func (r *Resolver) candidate(ctx context.Context, req *Request) (*tenant.Tenant, Source, error) {
	p := req.principal

	if req.claims != nil && req.claims.HasClaim(r.claimName) {
		id, ok := parseTenantID(req.claims.Claim(r.claimName))
		if !ok {
			return nil, SourceClaim, &ContextMissingError{
				Reason:      "tenant claim is not a valid id",
				Source:      SourceClaim,
				PrincipalID: p.ID,
			}
		}
		t, err := r.tenants.FindByID(ctx, id)
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return nil, SourceClaim, &ContextMissingError{
				Reason:            "tenant from claim not found",
				Source:            SourceClaim,
				PrincipalID:       p.ID,
				AttemptedTenantID: id,
			}
		}
		if err != nil {
			return nil, SourceClaim, fmt.Errorf("tenancy: find claimed tenant %d: %w", id, err)
		}
		return t, SourceClaim, nil
	}

	if req.session != nil && req.session.Has(r.sessionKey) {
		t, err := r.fromSession(ctx, req)
		if err != nil {
			return nil, SourceSession, err
		}
		if t != nil {
			return t, SourceSession, nil
		}
	}

	if p.HomeTenant == nil {
		return nil, SourceHome, &ContextMissingError{
			Reason:      "principal has no home tenant",
			Source:      SourceHome,
			PrincipalID: p.ID,
		}
	}
	return p.HomeTenant, SourceHome, nil
}

// fromSession returns the session tenant, or nil after dropping a stale or
// forbidden value.
func (r *Resolver) fromSession(ctx context.Context, req *Request) (*tenant.Tenant, error) {
	raw, _ := req.session.Get(r.sessionKey)
	id, ok := parseTenantID(raw)
	if !ok {
		r.dropSessionTenant(ctx, req, 0, "invalid value")
		return nil, nil
	}

	t, err := r.tenants.FindByID(ctx, id)
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		r.dropSessionTenant(ctx, req, id, "tenant not found")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("tenancy: find session tenant %d: %w", id, err)
	case !r.HasAccessTo(req.principal, t):
		r.dropSessionTenant(ctx, req, id, "access revoked")
		return nil, nil
	}
	return t, nil
}

func (r *Resolver) dropSessionTenant(ctx context.Context, req *Request, id int64, reason string) {
	req.session.Remove(r.sessionKey)
	r.log.InfoContext(ctx, "stale tenant removed from session",
		logger.PrincipalID(req.principal.ID),
		logger.AttemptedTenantID(id),
		slog.String("reason", reason),
	)
}

// HasAccessTo reports whether p may act within t. Super-admins may act
// anywhere; everyone else only in their home tenant.
func (r *Resolver) HasAccessTo(p *identity.Principal, t *tenant.Tenant) bool {
	if p == nil || t == nil {
		return false
	}
	if p.IsSuperAdmin() {
		return true
	}
	home, ok := p.HomeTenantID()
	return ok && home == t.ID
}

// ListAccessible returns the tenants p may switch to: every active or trial
// tenant by name for a super-admin, the home tenant otherwise.
func (r *Resolver) ListAccessible(ctx context.Context, p *identity.Principal) ([]*tenant.Tenant, error) {
	if p == nil {
		return []*tenant.Tenant{}, nil
	}
	if !p.IsSuperAdmin() {
		if p.HomeTenant == nil {
			return []*tenant.Tenant{}, nil
		}
		return []*tenant.Tenant{p.HomeTenant}, nil
	}

	list, err := r.tenants.List(ctx, tenant.Filter{
		Statuses: []tenant.Status{tenant.StatusActive, tenant.StatusTrial},
		Order:    tenant.OrderByName,
	})
	if err != nil {
		return nil, fmt.Errorf("tenancy: list tenants: %w", err)
	}
	return list, nil
}

// SwitchTenant makes target the tenant of req.
//
// Background requests are pinned to target without checks. Interactive
// requests need a super-admin principal and a usable target; the choice is
// stored in the session and the memo is cleared so the next resolution
// re-validates it. On error neither the session nor the memo change.
func (r *Resolver) SwitchTenant(ctx context.Context, req *Request, target *tenant.Tenant) error {
	if req == nil {
		return &ContextMissingError{Reason: "no tenancy request in context"}
	}
	if target == nil {
		return &ContextMissingError{Reason: "no target tenant"}
	}

	if !req.interactive {
		req.memoize(target)
		r.log.DebugContext(ctx, "background tenant pinned", logger.TenantID(target.ID))
		return nil
	}

	if err := r.checkSwitch(req, target); err != nil {
		r.metrics.observeSwitch(Deny)
		r.log.WarnContext(ctx, "tenant switch rejected",
			logger.Event(EventTenantSwitchDenied),
			principalAttr(req.principal),
			logger.AttemptedTenantID(target.ID),
			logger.Error(err),
		)
		r.recordSwitch(ctx, req.principal, target, audit.DecisionDenied)
		return err
	}

	req.session.Set(r.sessionKey, target.ID)
	req.Clear()

	r.metrics.observeSwitch(Allow)
	r.log.InfoContext(ctx, "tenant switched",
		logger.Event(EventTenantSwitch),
		logger.PrincipalID(req.principal.ID),
		logger.TenantID(target.ID),
		logger.TenantName(target.Name),
	)
	r.recordSwitch(ctx, req.principal, target, audit.DecisionAllowed)
	return nil
}

func (r *Resolver) checkSwitch(req *Request, target *tenant.Tenant) error {
	p := req.principal
	if p == nil {
		return &AccessDeniedError{TargetTenantID: target.ID, Reason: "not authenticated"}
	}
	if !p.IsSuperAdmin() {
		return &AccessDeniedError{
			PrincipalID:    p.ID,
			TargetTenantID: target.ID,
			Reason:         "only super-admins may switch tenants",
		}
	}
	if !r.testMode && !target.IsUsable(r.now()) {
		return &InactiveError{TenantID: target.ID, Status: target.Status, PrincipalID: p.ID}
	}
	if req.session == nil {
		return &ContextMissingError{Reason: "no session to store the tenant", PrincipalID: p.ID}
	}
	return nil
}

func (r *Resolver) recordSwitch(ctx context.Context, p *identity.Principal, target *tenant.Tenant, d audit.Decision) {
	if r.audit == nil {
		return
	}
	rec := audit.Record{
		Kind:              audit.KindTenantSwitch,
		AttemptedTenantID: target.ID,
		Action:            "TENANT_SWITCH",
		Decision:          d,
	}
	if p != nil {
		rec.PrincipalID = p.ID
		rec.PrincipalEmail = p.Email
		rec.CurrentTenantID, _ = p.HomeTenantID()
	}
	if err := r.audit.Record(ctx, rec); err != nil {
		r.metrics.observeAuditError()
		r.log.ErrorContext(ctx, "failed to record tenant switch", logger.Error(err))
	}
}

// Stamp assigns the current tenant to a resource that has none. A resource
// already owned by another tenant is rejected unless the principal is a
// super-admin.
func (r *Resolver) Stamp(ctx context.Context, req *Request, res Resource) error {
	if res == nil {
		return nil
	}
	current, err := r.Resolve(ctx, req)
	if err != nil {
		return err
	}

	owner := res.OwningTenant()
	if owner == nil {
		res.SetOwningTenant(current)
		return nil
	}
	if owner.ID == current.ID || req.principal.IsSuperAdmin() {
		return nil
	}

	var pid int64
	if req.principal != nil {
		pid = req.principal.ID
	}
	return &CrossTenantError{
		PrincipalID:       pid,
		HomeTenantID:      current.ID,
		AttemptedTenantID: owner.ID,
	}
}

func principalAttr(p *identity.Principal) slog.Attr {
	if p == nil {
		return slog.Attr{}
	}
	return logger.PrincipalID(p.ID)
}

// parseTenantID accepts the numeric shapes a claim or session value takes
// after decoding.
func parseTenantID(v any) (int64, bool) {
	var id int64
	switch n := v.(type) {
	case int64:
		id = n
	case int:
		id = int64(n)
	case int32:
		id = int64(n)
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		id = int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		id = parsed
	default:
		return 0, false
	}
	return id, id > 0
}
