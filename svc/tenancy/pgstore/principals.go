package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/rbac"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Principals implements identity.Provider on PostgreSQL. The home tenant
// is loaded in the same query.
type Principals struct {
	db        DB
	hierarchy *rbac.Hierarchy
}

// NewPrincipals creates the provider. Loaded principals resolve roles
// through h; nil means rbac.Default().
func NewPrincipals(db DB, h *rbac.Hierarchy) *Principals {
	return &Principals{db: db, hierarchy: h}
}

func (s *Principals) FindByID(ctx context.Context, id int64) (*identity.Principal, error) {
	var (
		p     identity.Principal
		roles []string

		tenantID    *int64
		name, slug  *string
		status      *string
		trialEndsAt *time.Time
		createdAt   *time.Time
		updatedAt   *time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT p.id, p.email, p.roles,
		        t.id, t.name, t.slug, t.status, t.trial_ends_at, t.created_at, t.updated_at
		 FROM principals p
		 LEFT JOIN tenants t ON t.id = p.home_tenant_id
		 WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.Email, &roles,
		&tenantID, &name, &slug, &status, &trialEndsAt, &createdAt, &updatedAt)
	if pg.IsNotFoundError(err) {
		return nil, identity.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get principal %d: %w", id, err)
	}

	p.Roles = make([]rbac.Role, len(roles))
	for i, r := range roles {
		p.Roles[i] = rbac.Role(r)
	}
	p.Hierarchy = s.hierarchy

	if tenantID != nil {
		p.HomeTenant = &tenant.Tenant{
			ID:          *tenantID,
			Name:        deref(name),
			Slug:        deref(slug),
			Status:      tenant.Status(deref(status)),
			TrialEndsAt: trialEndsAt,
			CreatedAt:   deref(createdAt),
			UpdatedAt:   deref(updatedAt),
		}
	}
	return &p, nil
}

// Create inserts p. HomeTenant may be nil.
func (s *Principals) Create(ctx context.Context, p *identity.Principal) error {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	var home *int64
	if id, ok := p.HomeTenantID(); ok {
		home = &id
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO principals (email, home_tenant_id, roles)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		p.Email, home, roles,
	).Scan(&p.ID)
	switch {
	case pg.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", identity.ErrDuplicatePrincipal, p.Email)
	case pg.IsForeignKeyViolationError(err):
		return fmt.Errorf("create principal: %w", tenant.ErrTenantNotFound)
	case err != nil:
		return fmt.Errorf("create principal: %w", err)
	}
	return nil
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
