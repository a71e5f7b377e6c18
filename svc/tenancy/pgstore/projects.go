package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
)

// ErrNotFound is returned when a row does not exist within the scope.
var ErrNotFound = errors.New("pgstore: not found")

// ErrUnowned is returned when saving a resource without an owning tenant.
var ErrUnowned = errors.New("pgstore: resource has no owning tenant")

// Project is a tenant-owned project.
type Project struct {
	ID        int64          `json:"id"`
	Tenant    *tenant.Tenant `json:"-"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
}

func (p *Project) OwningTenant() *tenant.Tenant       { return p.Tenant }
func (p *Project) SetOwningTenant(t *tenant.Tenant)   { p.Tenant = t }
func (p *Project) ResourceKind() tenancy.ResourceKind { return tenancy.KindProject }
func (p *Project) ResourceID() any                    { return p.ID }

// Projects stores projects. Reads take a tenancy.Scope so no query can
// run without a tenant filter.
type Projects struct {
	db DB
}

// NewProjects creates the store.
func NewProjects(db DB) *Projects {
	return &Projects{db: db}
}

// List returns the projects of the scoped tenant, newest first.
func (s *Projects) List(ctx context.Context, scope tenancy.Scope) ([]*Project, error) {
	where, tenantID := scope.Where("tenant_id", 1)
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, name, created_at FROM projects
		 WHERE `+where+` ORDER BY created_at DESC, id DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// Get returns a project of the scoped tenant.
func (s *Projects) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Project, error) {
	where, tenantID := scope.Where("tenant_id", 2)
	row := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, name, created_at FROM projects
		 WHERE id = $1 AND `+where, id, tenantID)
	p, err := scanProject(row)
	if pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// Create inserts a project. Stamp it with Resolver.Stamp first.
func (s *Projects) Create(ctx context.Context, p *Project) error {
	if p.Tenant == nil {
		return ErrUnowned
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO projects (tenant_id, name) VALUES ($1, $2)
		 RETURNING id, created_at`,
		p.Tenant.ID, p.Name,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Delete removes a project of the scoped tenant.
func (s *Projects) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	where, tenantID := scope.Where("tenant_id", 2)
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND `+where, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanProject(row scannable) (*Project, error) {
	var (
		p        Project
		tenantID int64
	)
	if err := row.Scan(&p.ID, &tenantID, &p.Name, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Tenant = &tenant.Tenant{ID: tenantID}
	return &p, nil
}
