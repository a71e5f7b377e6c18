package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/slug"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

const maxSlugLength = 48

const tenantColumns = `id, name, slug, status, trial_ends_at, created_at, updated_at`

// Tenants implements tenant.Repository on PostgreSQL.
type Tenants struct {
	db DB
}

// NewTenants creates the repository.
func NewTenants(db DB) *Tenants {
	return &Tenants{db: db}
}

func (s *Tenants) FindByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant %d: %w", id, err)
	}
	return t, nil
}

func (s *Tenants) List(ctx context.Context, filter tenant.Filter) ([]*tenant.Tenant, error) {
	query, args := listTenantsQuery(filter)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	out := []*tenant.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return out, nil
}

// Create inserts t and fills in its id and timestamps. An empty slug is
// derived from the name, with a random suffix if the plain one is taken.
// A taken explicit slug returns tenant.ErrDuplicateTenant.
func (s *Tenants) Create(ctx context.Context, t *tenant.Tenant) error {
	if t.Slug != "" {
		return s.insert(ctx, t)
	}

	if t.Slug = slug.Make(t.Name, slug.MaxLength(maxSlugLength)); t.Slug != "" {
		err := s.insert(ctx, t)
		if !errors.Is(err, tenant.ErrDuplicateTenant) {
			return err
		}
	}
	t.Slug = slug.Make(t.Name, slug.MaxLength(maxSlugLength), slug.WithSuffix(6))
	return s.insert(ctx, t)
}

func (s *Tenants) insert(ctx context.Context, t *tenant.Tenant) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO tenants (name, slug, status, trial_ends_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		t.Name, t.Slug, string(t.Status), t.TrialEndsAt,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: slug %q", tenant.ErrDuplicateTenant, t.Slug)
	}
	if err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// UpdateStatus changes the status of a tenant.
func (s *Tenants) UpdateStatus(ctx context.Context, id int64, status tenant.Status) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("update tenant %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

func listTenantsQuery(filter tenant.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + tenantColumns + ` FROM tenants`)

	var args []any
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		b.WriteString(` WHERE status = ANY($1)`)
	}

	switch filter.Order {
	case tenant.OrderByID:
		b.WriteString(` ORDER BY id ASC`)
	default:
		b.WriteString(` ORDER BY name ASC, id ASC`)
	}
	return b.String(), args
}

func scanTenant(row scannable) (*tenant.Tenant, error) {
	var (
		t      tenant.Tenant
		status string
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &status, &t.TrialEndsAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = tenant.Status(status)
	return &t, nil
}
