package tenancy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/audit"
	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/logger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Decision is the outcome of an access check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

func (d Decision) auditDecision() audit.Decision {
	if d {
		return audit.DecisionAllowed
	}
	return audit.DecisionDenied
}

// Log messages of cross-tenant events.
const (
	MsgIsolationViolation = "SECURITY: Tenant isolation violation detected"
	MsgSuperAdminOverride = "SUPERADMIN cross-tenant access (allowed)"
)

// Decider answers whether a principal may act on a tenant-owned resource.
type Decider struct {
	resolver *Resolver
	log      *slog.Logger
	audit    AuditRecorder
	metrics  *Metrics
	now      func() time.Time
}

// DeciderOption configures a Decider.
type DeciderOption func(*Decider)

// WithDecisionLogger sets the logger for security events.
func WithDecisionLogger(l *slog.Logger) DeciderOption {
	return func(d *Decider) {
		if l != nil {
			d.log = logger.Security(l)
		}
	}
}

// WithDecisionAudit persists cross-tenant attempts and overrides.
func WithDecisionAudit(a AuditRecorder) DeciderOption {
	return func(d *Decider) { d.audit = a }
}

// WithDecisionMetrics enables Prometheus instrumentation.
func WithDecisionMetrics(m *Metrics) DeciderOption {
	return func(d *Decider) { d.metrics = m }
}

// WithDecisionClock overrides the timestamp source of security logs.
func WithDecisionClock(now func() time.Time) DeciderOption {
	return func(d *Decider) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDecider creates a decider that resolves the current tenant through
// resolver. Logger, audit and metrics default to the resolver's.
func NewDecider(resolver *Resolver, opts ...DeciderOption) *Decider {
	if resolver == nil {
		panic("tenancy: resolver cannot be nil")
	}
	d := &Decider{
		resolver: resolver,
		log:      resolver.log,
		audit:    resolver.audit,
		metrics:  resolver.metrics,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decide reports whether the principal of req may perform action on res.
//
// A resource of another tenant is always logged at error level and
// recorded. Super-admins are then let through with an extra warning; all
// others are denied. Within the current tenant VIEW is open, DELETE needs
// a manager and EDIT follows the per-kind policy.
//
// Unsupported actions, nil resources and anonymous requests are denied
// without error. Errors come only from tenant resolution.
func (d *Decider) Decide(ctx context.Context, req *Request, action Action, res Resource) (Decision, error) {
	if !action.Supported() || res == nil || req == nil {
		return Deny, nil
	}
	p := req.principal
	if p == nil {
		return Deny, nil
	}

	current, err := d.resolver.Resolve(ctx, req)
	if err != nil {
		return Deny, err
	}

	owner := res.OwningTenant()
	if owner == nil {
		d.log.WarnContext(ctx, "resource has no owning tenant",
			logger.PrincipalID(p.ID),
			logger.Action(action.String()),
			logger.ResourceKind(res.ResourceKind().String()),
			logger.ResourceID(res.ResourceID()),
		)
		d.metrics.observeDecision(action, res.ResourceKind(), Deny)
		return Deny, nil
	}

	if owner.ID != current.ID {
		decision := d.crossTenant(ctx, p, current, owner, action, res)
		d.metrics.observeDecision(action, res.ResourceKind(), decision)
		return decision, nil
	}

	decision := decideWithinTenant(p, action, res)
	d.metrics.observeDecision(action, res.ResourceKind(), decision)
	return decision, nil
}

// Authorize is Decide for handlers: nil when allowed, *AccessDeniedError
// when denied, resolution errors unchanged.
func (d *Decider) Authorize(ctx context.Context, req *Request, action Action, res Resource) error {
	decision, err := d.Decide(ctx, req, action, res)
	if err != nil {
		return err
	}
	if decision == Allow {
		return nil
	}
	var pid int64
	if req != nil && req.principal != nil {
		pid = req.principal.ID
	}
	var kind ResourceKind
	if res != nil {
		kind = res.ResourceKind()
	}
	return &AccessDeniedError{
		PrincipalID: pid,
		Reason:      fmt.Sprintf("%s on %s", action, kind),
	}
}

// crossTenant logs and records an access to another tenant's resource and
// returns the override decision.
func (d *Decider) crossTenant(
	ctx context.Context,
	p *identity.Principal,
	current, owner *tenant.Tenant,
	action Action,
	res Resource,
) Decision {
	attrs := []any{
		logger.PrincipalID(p.ID),
		logger.PrincipalEmail(p.Email),
		logger.TenantID(current.ID),
		logger.TenantName(current.Name),
		logger.AttemptedTenantID(owner.ID),
		logger.Action(action.String()),
		logger.ResourceKind(res.ResourceKind().String()),
		logger.ResourceID(res.ResourceID()),
		slog.Time("timestamp", d.now()),
	}
	d.log.ErrorContext(ctx, MsgIsolationViolation, append(attrs, logger.Event(EventCrossTenantAttempt))...)

	decision := Deny
	if p.IsSuperAdmin() {
		decision = Allow
		d.log.WarnContext(ctx, MsgSuperAdminOverride, append(attrs, logger.Event(EventSuperAdminOverride))...)
	}
	d.metrics.observeCrossTenant(decision)

	rec := audit.Record{
		Kind:              audit.KindCrossTenantAttempt,
		PrincipalID:       p.ID,
		PrincipalEmail:    p.Email,
		CurrentTenantID:   current.ID,
		CurrentTenantName: current.Name,
		AttemptedTenantID: owner.ID,
		Action:            action.String(),
		ResourceKind:      res.ResourceKind().String(),
		ResourceID:        formatResourceID(res.ResourceID()),
		Decision:          decision.auditDecision(),
	}
	d.record(ctx, rec)
	if decision == Allow {
		rec.Kind = audit.KindSuperAdminOverride
		d.record(ctx, rec)
	}
	return decision
}

func (d *Decider) record(ctx context.Context, rec audit.Record) {
	if d.audit == nil {
		return
	}
	if err := d.audit.Record(ctx, rec); err != nil {
		d.metrics.observeAuditError()
		d.log.ErrorContext(ctx, "failed to record authorization audit",
			slog.String("audit_kind", string(rec.Kind)),
			logger.Error(err),
		)
	}
}

func decideWithinTenant(p *identity.Principal, action Action, res Resource) Decision {
	switch action {
	case ActionView:
		return Allow
	case ActionDelete:
		return Decision(p.HasAnyRole(deleteRoles...))
	case ActionEdit:
		rule := ruleFor(res.ResourceKind())
		if rule.allowOwner && ownsResource(p, res) {
			return Allow
		}
		return Decision(p.HasAnyRole(rule.roles...))
	}
	return Deny
}

func ownsResource(p *identity.Principal, res Resource) bool {
	owned, ok := res.(ContributorOwned)
	if !ok {
		return false
	}
	id, ok := owned.ContributorPrincipalID()
	return ok && id == p.ID
}

func formatResourceID(id any) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id)
}
