package rbac_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/rbac"
)

func TestDefaultHierarchy_Grants(t *testing.T) {
	t.Parallel()

	h := rbac.Default()

	tests := []struct {
		name     string
		held     []rbac.Role
		required rbac.Role
		want     bool
	}{
		{"same role", []rbac.Role{rbac.RoleManager}, rbac.RoleManager, true},
		{"manager implies chef projet", []rbac.Role{rbac.RoleManager}, rbac.RoleChefProjet, true},
		{"superadmin implies manager", []rbac.Role{rbac.RoleSuperAdmin}, rbac.RoleManager, true},
		{"superadmin implies user", []rbac.Role{rbac.RoleSuperAdmin}, rbac.RoleUser, true},
		{"user does not imply chef projet", []rbac.Role{rbac.RoleUser}, rbac.RoleChefProjet, false},
		{"chef projet does not imply manager", []rbac.Role{rbac.RoleChefProjet}, rbac.RoleManager, false},
		{"any held role is enough", []rbac.Role{rbac.RoleUser, rbac.RoleChefProjet}, rbac.RoleIntervenant, true},
		{"no roles", nil, rbac.RoleUser, false},
		{"unknown role satisfies itself", []rbac.Role{"ROLE_AUDITOR"}, "ROLE_AUDITOR", true},
		{"unknown role satisfies nothing else", []rbac.Role{"ROLE_AUDITOR"}, rbac.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, h.Grants(tt.held, tt.required))
		})
	}
}

func TestHierarchy_GrantsAny(t *testing.T) {
	t.Parallel()

	h := rbac.Default()
	assert.True(t, h.GrantsAny([]rbac.Role{rbac.RoleChefProjet}, rbac.RoleManager, rbac.RoleChefProjet))
	assert.False(t, h.GrantsAny([]rbac.Role{rbac.RoleIntervenant}, rbac.RoleManager, rbac.RoleChefProjet))
	assert.False(t, h.GrantsAny([]rbac.Role{rbac.RoleManager}))
}

func TestHierarchy_RolesAndImplied(t *testing.T) {
	t.Parallel()

	h := rbac.Default()
	assert.Equal(t, []rbac.Role{
		rbac.RoleUser,
		rbac.RoleIntervenant,
		rbac.RoleChefProjet,
		rbac.RoleManager,
		rbac.RoleSuperAdmin,
	}, h.Roles())

	assert.Equal(t, []rbac.Role{rbac.RoleUser, rbac.RoleIntervenant, rbac.RoleChefProjet}, h.Implied(rbac.RoleChefProjet))
	assert.Equal(t, []rbac.Role{"ROLE_UNKNOWN"}, h.Implied("ROLE_UNKNOWN"))

	require.NoError(t, h.Verify(rbac.RoleManager))
	assert.ErrorIs(t, h.Verify("ROLE_UNKNOWN"), rbac.ErrInvalidRole)
}

func TestNewHierarchy_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("circular inheritance", func(t *testing.T) {
		t.Parallel()
		src := rbac.NewInMemRoleSource(map[rbac.Role]rbac.Definition{
			"a": {Inherits: []rbac.Role{"b"}},
			"b": {Inherits: []rbac.Role{"c"}},
			"c": {Inherits: []rbac.Role{"a"}},
		})
		_, err := rbac.NewHierarchy(ctx, src)
		assert.ErrorIs(t, err, rbac.ErrCircularInheritance)
	})

	t.Run("self inheritance", func(t *testing.T) {
		t.Parallel()
		src := rbac.NewInMemRoleSource(map[rbac.Role]rbac.Definition{
			"a": {Inherits: []rbac.Role{"a"}},
		})
		_, err := rbac.NewHierarchy(ctx, src)
		assert.ErrorIs(t, err, rbac.ErrCircularInheritance)
	})

	t.Run("chain deeper than maximum", func(t *testing.T) {
		t.Parallel()
		roles := make(map[rbac.Role]rbac.Definition, rbac.MaxInheritanceDepth+2)
		roles["r0"] = rbac.Definition{}
		for i := 1; i <= rbac.MaxInheritanceDepth+1; i++ {
			roles[rbac.Role(fmt.Sprintf("r%d", i))] = rbac.Definition{
				Inherits: []rbac.Role{rbac.Role(fmt.Sprintf("r%d", i-1))},
			}
		}
		_, err := rbac.NewHierarchy(ctx, rbac.NewInMemRoleSource(roles))
		assert.ErrorIs(t, err, rbac.ErrInheritanceTooDeep)
		assert.NotErrorIs(t, err, rbac.ErrCircularInheritance)
	})

	t.Run("chain at maximum", func(t *testing.T) {
		t.Parallel()
		roles := make(map[rbac.Role]rbac.Definition, rbac.MaxInheritanceDepth+1)
		roles["r0"] = rbac.Definition{}
		for i := 1; i <= rbac.MaxInheritanceDepth; i++ {
			roles[rbac.Role(fmt.Sprintf("r%d", i))] = rbac.Definition{
				Inherits: []rbac.Role{rbac.Role(fmt.Sprintf("r%d", i-1))},
			}
		}
		h, err := rbac.NewHierarchy(ctx, rbac.NewInMemRoleSource(roles))
		require.NoError(t, err)
		assert.True(t, h.Grants([]rbac.Role{rbac.Role(fmt.Sprintf("r%d", rbac.MaxInheritanceDepth))}, "r0"))
	})

	t.Run("unknown parent", func(t *testing.T) {
		t.Parallel()
		src := rbac.NewInMemRoleSource(map[rbac.Role]rbac.Definition{
			"a": {Inherits: []rbac.Role{"ghost"}},
		})
		_, err := rbac.NewHierarchy(ctx, src)
		assert.ErrorIs(t, err, rbac.ErrUnknownInheritedRole)
	})

	t.Run("empty source", func(t *testing.T) {
		t.Parallel()
		_, err := rbac.NewHierarchy(ctx, rbac.NewInMemRoleSource(nil))
		assert.ErrorIs(t, err, rbac.ErrEmptyHierarchy)
	})

	t.Run("source error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		_, err := rbac.NewHierarchy(ctx, failingSource{err: boom})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("input is copied", func(t *testing.T) {
		t.Parallel()
		roles := map[rbac.Role]rbac.Definition{
			"base": {},
			"top":  {Inherits: []rbac.Role{"base"}},
		}
		src := rbac.NewInMemRoleSource(roles)
		roles["top"].Inherits[0] = "mutated"

		h, err := rbac.NewHierarchy(ctx, src)
		require.NoError(t, err)
		assert.True(t, h.Grants([]rbac.Role{"top"}, "base"))
	})
}

func TestYAMLRoleSource(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"roles.yaml": &fstest.MapFile{Data: []byte(`
roles:
  ROLE_USER: {}
  ROLE_AUDITOR:
    inherits: [ROLE_USER]
  ROLE_MANAGER:
    inherits: [ROLE_AUDITOR]
`)},
		"broken.yaml": &fstest.MapFile{Data: []byte("roles: [not, a, map")},
		"empty.yaml":  &fstest.MapFile{Data: []byte("roles: {}")},
	}

	t.Run("loads hierarchy", func(t *testing.T) {
		t.Parallel()
		h, err := rbac.NewHierarchy(context.Background(), rbac.NewYAMLRoleSource(fsys, "roles.yaml"))
		require.NoError(t, err)
		assert.True(t, h.Grants([]rbac.Role{rbac.RoleManager}, rbac.RoleUser))
		assert.True(t, h.Grants([]rbac.Role{rbac.RoleManager}, "ROLE_AUDITOR"))
		assert.False(t, h.Grants([]rbac.Role{"ROLE_AUDITOR"}, rbac.RoleManager))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := rbac.NewYAMLRoleSource(fsys, "nope.yaml").Load(context.Background())
		assert.ErrorIs(t, err, rbac.ErrInvalidRoleFile)
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()
		_, err := rbac.NewYAMLRoleSource(fsys, "broken.yaml").Load(context.Background())
		assert.ErrorIs(t, err, rbac.ErrInvalidRoleFile)
	})

	t.Run("no roles", func(t *testing.T) {
		t.Parallel()
		_, err := rbac.NewYAMLRoleSource(fsys, "empty.yaml").Load(context.Background())
		assert.ErrorIs(t, err, rbac.ErrInvalidRoleFile)
	})
}

func TestHierarchy_ConcurrentGrants(t *testing.T) {
	t.Parallel()

	h := rbac.Default()

	const numGoroutines = 50
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.True(t, h.Grants([]rbac.Role{rbac.RoleSuperAdmin}, rbac.RoleChefProjet))
				assert.False(t, h.Grants([]rbac.Role{rbac.RoleUser}, rbac.RoleManager))
			}
		}()
	}

	wg.Wait()
}

type failingSource struct{ err error }

func (f failingSource) Load(context.Context) (map[rbac.Role]rbac.Definition, error) {
	return nil, f.err
}
