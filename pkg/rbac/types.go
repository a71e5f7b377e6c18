package rbac

// MaxInheritanceDepth is the maximum allowed depth of role inheritance
// to prevent excessive nesting.
const MaxInheritanceDepth = 10

// Role is a named role as stored on a principal (e.g. "ROLE_MANAGER").
type Role string

// Built-in roles, ordered from the least to the most capable.
const (
	RoleUser        Role = "ROLE_USER"
	RoleIntervenant Role = "ROLE_INTERVENANT"
	RoleChefProjet  Role = "ROLE_CHEF_PROJET"
	RoleManager     Role = "ROLE_MANAGER"
	RoleSuperAdmin  Role = "ROLE_SUPERADMIN"
)

// String returns the role name.
func (r Role) String() string { return string(r) }

// Definition describes a single role in a hierarchy.
// A role implies every role listed in Inherits, transitively.
type Definition struct {
	Inherits []Role `yaml:"inherits" json:"inherits"`
}

// DefaultRoles returns the built-in hierarchy:
// user < intervenant < chef_projet < manager < superadmin.
func DefaultRoles() map[Role]Definition {
	return map[Role]Definition{
		RoleUser:        {},
		RoleIntervenant: {Inherits: []Role{RoleUser}},
		RoleChefProjet:  {Inherits: []Role{RoleIntervenant}},
		RoleManager:     {Inherits: []Role{RoleChefProjet}},
		RoleSuperAdmin:  {Inherits: []Role{RoleManager}},
	}
}
