package pgstore_test

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/identity"
	"github.com/dmitrymomot/tenantkit/pkg/rbac"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
	"github.com/dmitrymomot/tenantkit/svc/tenancy/pgstore"
)

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	row   rowFunc
	tag   pgconn.CommandTag
	err   error
	calls []call
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	return f.tag, f.err
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.err == nil {
		return nil, errors.New("fakeDB: Query needs err")
	}
	return nil, f.err
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{sql, args})
	return f.row
}

func noRows(...any) error { return pgx.ErrNoRows }

func TestMigrations(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(pgstore.Migrations(), "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_tenancy.sql", "00002_projects_timesheets.sql"}, names)

	for _, name := range names {
		raw, err := fs.ReadFile(pgstore.Migrations(), name)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "-- +goose Up", name)
		assert.Contains(t, string(raw), "-- +goose Down", name)
	}
}

func TestListTenantsQuery(t *testing.T) {
	t.Parallel()

	t.Run("no filter", func(t *testing.T) {
		t.Parallel()
		q, args := pgstore.ListTenantsQuery(tenant.Filter{})
		assert.NotContains(t, q, "WHERE")
		assert.True(t, strings.HasSuffix(q, "ORDER BY name ASC, id ASC"))
		assert.Empty(t, args)
	})

	t.Run("statuses by id", func(t *testing.T) {
		t.Parallel()
		q, args := pgstore.ListTenantsQuery(tenant.Filter{
			Statuses: []tenant.Status{tenant.StatusActive, tenant.StatusTrial},
			Order:    tenant.OrderByID,
		})
		assert.Contains(t, q, "WHERE status = ANY($1)")
		assert.True(t, strings.HasSuffix(q, "ORDER BY id ASC"))
		require.Len(t, args, 1)
		assert.Equal(t, []string{"active", "trial"}, args[0])
	})
}

func TestTenants(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("find missing", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: noRows}
		_, err := pgstore.NewTenants(db).FindByID(ctx, 99)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		require.Len(t, db.calls, 1)
		assert.Equal(t, []any{int64(99)}, db.calls[0].args)
	})

	t.Run("find scans status", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(dest ...any) error {
			*dest[0].(*int64) = 10
			*dest[1].(*string) = "Acme"
			*dest[2].(*string) = "acme"
			*dest[3].(*string) = "suspended"
			return nil
		}}
		got, err := pgstore.NewTenants(db).FindByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), got.ID)
		assert.Equal(t, "Acme", got.Name)
		assert.Equal(t, tenant.StatusSuspended, got.Status)
		assert.False(t, got.IsUsable(time.Now()))
	})

	t.Run("find other error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		db := &fakeDB{row: func(...any) error { return boom }}
		_, err := pgstore.NewTenants(db).FindByID(ctx, 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, tenant.ErrTenantNotFound)
	})

	t.Run("list error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		_, err := pgstore.NewTenants(&fakeDB{err: boom}).List(ctx, tenant.Filter{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("create duplicate slug", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(...any) error { return &pgconn.PgError{Code: "23505"} }}
		err := pgstore.NewTenants(db).Create(ctx, &tenant.Tenant{Name: "Acme", Slug: "acme"})
		assert.ErrorIs(t, err, tenant.ErrDuplicateTenant)
	})

	t.Run("update missing", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
		err := pgstore.NewTenants(db).UpdateStatus(ctx, 5, tenant.StatusCancelled)
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	})
}

func TestPrincipals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := pgstore.NewPrincipals(&fakeDB{row: noRows}, nil).FindByID(ctx, 1)
		assert.ErrorIs(t, err, identity.ErrPrincipalNotFound)
	})

	t.Run("with home tenant", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(dest ...any) error {
			*dest[0].(*int64) = 7
			*dest[1].(*string) = "ana@example.com"
			*dest[2].(*[]string) = []string{string(rbac.RoleManager)}
			home, name, status := int64(10), "Acme", "active"
			*dest[3].(**int64) = &home
			*dest[4].(**string) = &name
			*dest[6].(**string) = &status
			return nil
		}}
		p, err := pgstore.NewPrincipals(db, nil).FindByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", p.Email)
		assert.True(t, p.HasRole(rbac.RoleManager))
		id, ok := p.HomeTenantID()
		assert.True(t, ok)
		assert.Equal(t, int64(10), id)
		assert.Equal(t, tenant.StatusActive, p.HomeTenant.Status)
	})

	t.Run("without home tenant", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(dest ...any) error {
			*dest[0].(*int64) = 8
			return nil
		}}
		p, err := pgstore.NewPrincipals(db, nil).FindByID(ctx, 8)
		require.NoError(t, err)
		assert.Nil(t, p.HomeTenant)
		assert.Empty(t, p.Roles)
	})

	t.Run("create unknown home tenant", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(...any) error { return &pgconn.PgError{Code: "23503"} }}
		err := pgstore.NewPrincipals(db, nil).Create(ctx, &identity.Principal{
			Email:      "x@example.com",
			HomeTenant: &tenant.Tenant{ID: 404},
		})
		assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
		assert.Equal(t, int64(404), *db.calls[0].args[1].(*int64))
	})
}

func TestProjects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	scope := tenancy.Scope{TenantID: 10}

	t.Run("get is scoped", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: noRows}
		_, err := pgstore.NewProjects(db).Get(ctx, scope, 3)
		assert.ErrorIs(t, err, pgstore.ErrNotFound)
		require.Len(t, db.calls, 1)
		assert.Contains(t, db.calls[0].sql, "WHERE id = $1 AND tenant_id = $2")
		assert.Equal(t, []any{int64(3), int64(10)}, db.calls[0].args)
	})

	t.Run("get sets owner", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(dest ...any) error {
			*dest[0].(*int64) = 3
			*dest[1].(*int64) = 10
			*dest[2].(*string) = "Roadmap"
			return nil
		}}
		p, err := pgstore.NewProjects(db).Get(ctx, scope, 3)
		require.NoError(t, err)
		require.NotNil(t, p.OwningTenant())
		assert.Equal(t, int64(10), p.OwningTenant().ID)
		assert.Equal(t, tenancy.KindProject, p.ResourceKind())
		assert.Equal(t, int64(3), p.ResourceID())
	})

	t.Run("create needs owner", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{}
		err := pgstore.NewProjects(db).Create(ctx, &pgstore.Project{Name: "x"})
		assert.ErrorIs(t, err, pgstore.ErrUnowned)
		assert.Empty(t, db.calls)
	})

	t.Run("delete outside scope", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{tag: pgconn.NewCommandTag("DELETE 0")}
		err := pgstore.NewProjects(db).Delete(ctx, scope, 3)
		assert.ErrorIs(t, err, pgstore.ErrNotFound)
		assert.Contains(t, db.calls[0].sql, "tenant_id = $2")
	})
}

func TestTimesheets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("contributor", func(t *testing.T) {
		t.Parallel()
		ts := &pgstore.Timesheet{}
		_, ok := ts.ContributorPrincipalID()
		assert.False(t, ok)

		id := int64(7)
		ts.Contributor = &id
		got, ok := ts.ContributorPrincipalID()
		assert.True(t, ok)
		assert.Equal(t, int64(7), got)

		var _ tenancy.ContributorOwned = ts
		assert.Equal(t, tenancy.KindTimesheet, ts.ResourceKind())
	})

	t.Run("update is scoped", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
		err := pgstore.NewTimesheets(db).UpdateMinutes(ctx, tenancy.Scope{TenantID: 20}, 4, 90)
		require.NoError(t, err)
		assert.Contains(t, db.calls[0].sql, "tenant_id = $3")
		assert.Equal(t, []any{int64(4), 90, int64(20)}, db.calls[0].args)
	})

	t.Run("create needs owner", func(t *testing.T) {
		t.Parallel()
		err := pgstore.NewTimesheets(&fakeDB{}).Create(ctx, &pgstore.Timesheet{Minutes: 30})
		assert.ErrorIs(t, err, pgstore.ErrUnowned)
	})
}

func TestTenants_CreateSlug(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("derived from name", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(dest ...any) error {
			*dest[0].(*int64) = 1
			return nil
		}}
		tn := &tenant.Tenant{Name: "Café Acme", Status: tenant.StatusActive}
		require.NoError(t, pgstore.NewTenants(db).Create(ctx, tn))
		assert.Equal(t, "cafe-acme", tn.Slug)
		assert.Equal(t, int64(1), tn.ID)
		require.Len(t, db.calls, 1)
		assert.Equal(t, "cafe-acme", db.calls[0].args[1])
	})

	t.Run("suffix on collision", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		db := &fakeDB{row: func(...any) error {
			attempts++
			if attempts == 1 {
				return &pgconn.PgError{Code: "23505"}
			}
			return nil
		}}
		tn := &tenant.Tenant{Name: "Acme"}
		require.NoError(t, pgstore.NewTenants(db).Create(ctx, tn))
		assert.Len(t, db.calls, 2)
		assert.Regexp(t, `^acme-[a-z0-9]{6}$`, tn.Slug)
	})

	t.Run("explicit slug is not rewritten", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{row: func(...any) error { return &pgconn.PgError{Code: "23505"} }}
		tn := &tenant.Tenant{Name: "Acme", Slug: "acme"}
		err := pgstore.NewTenants(db).Create(ctx, tn)
		assert.ErrorIs(t, err, tenant.ErrDuplicateTenant)
		assert.Len(t, db.calls, 1)
		assert.Equal(t, "acme", tn.Slug)
	})
}
