package identity

import (
	"context"
	"slices"

	"github.com/dmitrymomot/tenantkit/pkg/rbac"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	ID         int64          `json:"id"`
	Email      string         `json:"email"`
	HomeTenant *tenant.Tenant `json:"home_tenant,omitempty"`
	Roles      []rbac.Role    `json:"roles"`

	// Hierarchy resolves inherited roles. Nil means rbac.Default().
	Hierarchy *rbac.Hierarchy `json:"-"`
}

// HasRole reports whether the principal holds role directly or through
// inheritance. Every principal holds rbac.RoleUser.
func (p *Principal) HasRole(role rbac.Role) bool {
	if p == nil {
		return false
	}
	if role == rbac.RoleUser {
		return true
	}
	return p.hierarchy().Grants(p.Roles, role)
}

// HasAnyRole reports whether at least one of roles is held.
func (p *Principal) HasAnyRole(roles ...rbac.Role) bool {
	return slices.ContainsFunc(roles, p.HasRole)
}

// IsSuperAdmin reports whether the principal may cross tenant boundaries.
func (p *Principal) IsSuperAdmin() bool {
	return p.HasRole(rbac.RoleSuperAdmin)
}

// HomeTenantID returns the id of the principal's home tenant.
func (p *Principal) HomeTenantID() (int64, bool) {
	if p == nil || p.HomeTenant == nil {
		return 0, false
	}
	return p.HomeTenant.ID, true
}

// EffectiveRoles lists held and inherited roles, base roles first.
func (p *Principal) EffectiveRoles() []rbac.Role {
	if p == nil {
		return nil
	}
	h := p.hierarchy()
	seen := map[rbac.Role]struct{}{rbac.RoleUser: {}}
	out := []rbac.Role{rbac.RoleUser}
	for _, held := range p.Roles {
		for _, r := range h.Implied(held) {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func (p *Principal) hierarchy() *rbac.Hierarchy {
	if p.Hierarchy != nil {
		return p.Hierarchy
	}
	return rbac.Default()
}

// Provider loads principals by id.
type Provider interface {
	FindByID(ctx context.Context, id int64) (*Principal, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, id int64) (*Principal, error)

func (f ProviderFunc) FindByID(ctx context.Context, id int64) (*Principal, error) {
	return f(ctx, id)
}
