package rbac

import "errors"

// Domain errors for RBAC operations.
var (
	// ErrInvalidRole is returned when a role does not exist in the hierarchy.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrCircularInheritance is returned when roles have circular inheritance.
	ErrCircularInheritance = errors.New("rbac.circular_inheritance")

	// ErrInheritanceTooDeep is returned when an inheritance chain is longer
	// than MaxInheritanceDepth.
	ErrInheritanceTooDeep = errors.New("rbac.inheritance_too_deep")

	// ErrUnknownInheritedRole is returned when a role inherits from an undefined role.
	ErrUnknownInheritedRole = errors.New("rbac.unknown_inherited_role")

	// ErrEmptyHierarchy is returned when a role source yields no roles.
	ErrEmptyHierarchy = errors.New("rbac.empty_hierarchy")

	// ErrInvalidRoleFile is returned when a role file cannot be decoded.
	ErrInvalidRoleFile = errors.New("rbac.invalid_role_file")
)
