package tenancy

import (
	"github.com/dmitrymomot/tenantkit/pkg/rbac"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// ResourceKind tags a tenant-owned resource type for policy lookup.
// Every resource type reports exactly one kind.
type ResourceKind string

const (
	KindProject     ResourceKind = "project"
	KindOrder       ResourceKind = "order"
	KindClient      ResourceKind = "client"
	KindUser        ResourceKind = "user"
	KindContributor ResourceKind = "contributor"
	KindTimesheet   ResourceKind = "timesheet"
	KindOther       ResourceKind = "other"
)

// Kinds lists every known resource kind.
var Kinds = []ResourceKind{
	KindProject, KindOrder, KindClient,
	KindUser, KindContributor,
	KindTimesheet, KindOther,
}

func (k ResourceKind) String() string { return string(k) }

// Resource is any entity owned by exactly one tenant.
type Resource interface {
	OwningTenant() *tenant.Tenant
	SetOwningTenant(t *tenant.Tenant)
	ResourceKind() ResourceKind
	// ResourceID identifies the resource in audit logs. It may be nil for
	// resources not yet persisted.
	ResourceID() any
}

// ContributorOwned is implemented by resources tied to a contributor, such
// as timesheets. The id is the principal linked to that contributor.
type ContributorOwned interface {
	ContributorPrincipalID() (int64, bool)
}

// Action is what a principal wants to do with a resource.
type Action string

const (
	ActionView   Action = "COMPANY_VIEW"
	ActionEdit   Action = "COMPANY_EDIT"
	ActionDelete Action = "COMPANY_DELETE"
)

// Supported reports whether a is one of the decided actions.
func (a Action) Supported() bool {
	switch a {
	case ActionView, ActionEdit, ActionDelete:
		return true
	}
	return false
}

func (a Action) String() string { return string(a) }

// editRule grants EDIT to holders of any listed role. With allowOwner the
// contributor a resource belongs to may edit it too.
type editRule struct {
	roles      []rbac.Role
	allowOwner bool
}

var editPolicy = map[ResourceKind]editRule{
	KindProject:     {roles: []rbac.Role{rbac.RoleChefProjet, rbac.RoleManager}},
	KindOrder:       {roles: []rbac.Role{rbac.RoleChefProjet, rbac.RoleManager}},
	KindClient:      {roles: []rbac.Role{rbac.RoleChefProjet, rbac.RoleManager}},
	KindUser:        {roles: []rbac.Role{rbac.RoleManager}},
	KindContributor: {roles: []rbac.Role{rbac.RoleManager}},
	KindTimesheet:   {roles: []rbac.Role{rbac.RoleChefProjet, rbac.RoleManager}, allowOwner: true},
	KindOther:       {roles: []rbac.Role{rbac.RoleManager}},
}

// deleteRoles are required to delete any resource.
var deleteRoles = []rbac.Role{rbac.RoleManager}

// EditRoles returns the roles that may edit resources of kind k. Unknown
// kinds follow KindOther.
func EditRoles(k ResourceKind) []rbac.Role {
	return append([]rbac.Role(nil), ruleFor(k).roles...)
}

func ruleFor(k ResourceKind) editRule {
	if rule, ok := editPolicy[k]; ok {
		return rule
	}
	return editPolicy[KindOther]
}
