package rbac

import (
	"context"
	"slices"
)

// inMemRoleSource serves role definitions from memory.
type inMemRoleSource struct {
	roles map[Role]Definition
}

// NewInMemRoleSource creates a RoleSource from a map of definitions.
// The input is deep-copied so later changes by the caller have no effect.
func NewInMemRoleSource(roles map[Role]Definition) RoleSource {
	rolesCopy := make(map[Role]Definition, len(roles))
	for name, def := range roles {
		rolesCopy[name] = Definition{Inherits: slices.Clone(def.Inherits)}
	}
	return &inMemRoleSource{roles: rolesCopy}
}

// Load returns the map of roles. The authorizer treats it as read-only.
func (s *inMemRoleSource) Load(ctx context.Context) (map[Role]Definition, error) {
	return s.roles, nil
}
