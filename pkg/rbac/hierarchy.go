package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// RoleSource provides role definitions.
type RoleSource interface {
	// Load returns all role definitions keyed by role name.
	Load(ctx context.Context) (map[Role]Definition, error)
}

// Hierarchy answers "does holding role A satisfy a requirement for role B".
// It is immutable after construction and safe for concurrent use.
type Hierarchy struct {
	// implied holds, for every role, the role itself plus everything it inherits.
	implied map[Role]map[Role]struct{}
	// sorted lists roles by inheritance depth (base roles first).
	sorted []Role
}

// NewHierarchy loads roles from source, validates inheritance and precomputes
// the transitive closure of every role.
func NewHierarchy(ctx context.Context, source RoleSource) (*Hierarchy, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, ErrEmptyHierarchy
	}

	if err := validateInheritance(roles); err != nil {
		return nil, err
	}

	implied := make(map[Role]map[Role]struct{}, len(roles))
	for name := range roles {
		set := make(map[Role]struct{})
		collectImplied(name, roles, set, 0)
		implied[name] = set
	}

	return &Hierarchy{
		implied: implied,
		sorted:  sortByDepth(roles),
	}, nil
}

var defaultHierarchy = sync.OnceValue(func() *Hierarchy {
	h, err := NewHierarchy(context.Background(), NewInMemRoleSource(DefaultRoles()))
	if err != nil {
		panic(fmt.Sprintf("rbac: invalid built-in hierarchy: %v", err))
	}
	return h
})

// Default returns the built-in hierarchy built from DefaultRoles.
func Default() *Hierarchy {
	return defaultHierarchy()
}

// Grants reports whether any of the held roles is, or inherits, required.
// Roles unknown to the hierarchy only satisfy themselves.
func (h *Hierarchy) Grants(held []Role, required Role) bool {
	for _, r := range held {
		if r == required {
			return true
		}
		if set, ok := h.implied[r]; ok {
			if _, ok := set[required]; ok {
				return true
			}
		}
	}
	return false
}

// GrantsAny reports whether held roles satisfy at least one of required.
func (h *Hierarchy) GrantsAny(held []Role, required ...Role) bool {
	for _, r := range required {
		if h.Grants(held, r) {
			return true
		}
	}
	return false
}

// Implied returns the role and all roles it inherits, base roles first.
func (h *Hierarchy) Implied(role Role) []Role {
	set, ok := h.implied[role]
	if !ok {
		return []Role{role}
	}
	out := make([]Role, 0, len(set))
	for _, r := range h.sorted {
		if _, ok := set[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Verify returns ErrInvalidRole if role is not part of the hierarchy.
func (h *Hierarchy) Verify(role Role) error {
	if _, ok := h.implied[role]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	return nil
}

// Roles returns all role names sorted by inheritance (base roles first).
func (h *Hierarchy) Roles() []Role {
	return slices.Clone(h.sorted)
}

func collectImplied(name Role, roles map[Role]Definition, into map[Role]struct{}, depth int) {
	if depth > MaxInheritanceDepth {
		return
	}
	if _, seen := into[name]; seen {
		return
	}
	into[name] = struct{}{}
	for _, parent := range roles[name].Inherits {
		collectImplied(parent, roles, into, depth+1)
	}
}

func sortByDepth(roles map[Role]Definition) []Role {
	depths := make(map[Role]int, len(roles))
	for name := range roles {
		roleDepth(name, roles, depths, make(map[Role]bool))
	}

	out := make([]Role, 0, len(roles))
	for name := range roles {
		out = append(out, name)
	}
	slices.SortFunc(out, func(a, b Role) int {
		if d := depths[a] - depths[b]; d != 0 {
			return d
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return out
}

func roleDepth(name Role, roles map[Role]Definition, depths map[Role]int, inProcess map[Role]bool) int {
	if d, ok := depths[name]; ok {
		return d
	}
	if inProcess[name] {
		return 0
	}
	inProcess[name] = true
	defer delete(inProcess, name)

	maxDepth := 0
	for _, parent := range roles[name].Inherits {
		if d := roleDepth(parent, roles, depths, inProcess) + 1; d > maxDepth {
			maxDepth = d
		}
	}
	depths[name] = maxDepth
	return maxDepth
}

// validateInheritance rejects unknown parents, cycles and excessive depth.
func validateInheritance(roles map[Role]Definition) error {
	for name, def := range roles {
		for _, parent := range def.Inherits {
			if _, ok := roles[parent]; !ok {
				return fmt.Errorf("%w: %s inherits %s", ErrUnknownInheritedRole, name, parent)
			}
		}
	}

	for name := range roles {
		if err := checkCircular(name, roles, []Role{name}); err != nil {
			return err
		}
	}

	depths := make(map[Role]int, len(roles))
	for name := range roles {
		if d := roleDepth(name, roles, depths, make(map[Role]bool)); d > MaxInheritanceDepth {
			return fmt.Errorf("%w: %s has depth %d, maximum is %d", ErrInheritanceTooDeep, name, d, MaxInheritanceDepth)
		}
	}
	return nil
}

func checkCircular(name Role, roles map[Role]Definition, path []Role) error {
	for _, parent := range roles[name].Inherits {
		if slices.Contains(path, parent) {
			return errors.Join(ErrCircularInheritance,
				fmt.Errorf("circular inheritance detected: %s -> %s", name, parent))
		}
		if err := checkCircular(parent, roles, append(slices.Clone(path), parent)); err != nil {
			return err
		}
	}
	return nil
}
