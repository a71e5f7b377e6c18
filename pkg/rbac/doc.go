// Package rbac models role hierarchies for tenant-scoped authorization.
//
// Roles are plain names (e.g. "ROLE_MANAGER") that may inherit other roles.
// Holding a role implies holding every role it inherits, transitively, so
// a requirement for ROLE_CHEF_PROJET is satisfied by ROLE_MANAGER and by
// ROLE_SUPERADMIN in the built-in hierarchy:
//
//	ROLE_USER < ROLE_INTERVENANT < ROLE_CHEF_PROJET < ROLE_MANAGER < ROLE_SUPERADMIN
//
// Basic usage:
//
//	h := rbac.Default()
//	if h.Grants(user.Roles, rbac.RoleManager) {
//	    // manager or above
//	}
//
// Custom hierarchies can be loaded from memory or from a YAML file:
//
//	src := rbac.NewYAMLRoleSource(os.DirFS("config"), "roles.yaml")
//	h, err := rbac.NewHierarchy(ctx, src)
//
// Inheritance is validated at construction: unknown parents, cycles and
// chains deeper than MaxInheritanceDepth are rejected.
package rbac
