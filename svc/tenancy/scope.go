package tenancy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrymomot/tenantkit/pkg/identity"
)

// Scope restricts a query to one tenant.
type Scope struct {
	TenantID int64
}

// Where renders "column = $n" with arg as the tenant id.
func (s Scope) Where(column string, n int) (clause string, arg int64) {
	return column + " = $" + strconv.Itoa(n), s.TenantID
}

// Scope returns the scope of the current tenant of req.
func (r *Resolver) Scope(ctx context.Context, req *Request) (Scope, error) {
	id, err := r.ResolveID(ctx, req)
	if err != nil {
		return Scope{}, err
	}
	return Scope{TenantID: id}, nil
}

// ScopeFor returns the scope of an explicit tenant. Only super-admins may
// scope to a tenant other than their home tenant.
func (r *Resolver) ScopeFor(p *identity.Principal, tenantID int64) (Scope, error) {
	if p == nil {
		return Scope{}, &ContextMissingError{Reason: "principal not authenticated"}
	}
	if tenantID <= 0 {
		return Scope{}, &ContextMissingError{
			Reason:      fmt.Sprintf("invalid tenant id %d", tenantID),
			PrincipalID: p.ID,
		}
	}
	home, _ := p.HomeTenantID()
	if !p.IsSuperAdmin() && home != tenantID {
		return Scope{}, &CrossTenantError{
			PrincipalID:       p.ID,
			HomeTenantID:      home,
			AttemptedTenantID: tenantID,
		}
	}
	return Scope{TenantID: tenantID}, nil
}
