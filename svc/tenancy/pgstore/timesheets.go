package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
	"github.com/dmitrymomot/tenantkit/svc/tenancy"
)

// Timesheet is time a contributor spent on a project.
type Timesheet struct {
	ID          int64          `json:"id"`
	Tenant      *tenant.Tenant `json:"-"`
	ProjectID   int64          `json:"project_id"`
	Contributor *int64         `json:"contributor_principal_id,omitempty"`
	WorkDate    time.Time      `json:"work_date"`
	Minutes     int            `json:"minutes"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (t *Timesheet) OwningTenant() *tenant.Tenant       { return t.Tenant }
func (t *Timesheet) SetOwningTenant(tn *tenant.Tenant)  { t.Tenant = tn }
func (t *Timesheet) ResourceKind() tenancy.ResourceKind { return tenancy.KindTimesheet }
func (t *Timesheet) ResourceID() any                    { return t.ID }

// ContributorPrincipalID returns the principal the timesheet belongs to.
func (t *Timesheet) ContributorPrincipalID() (int64, bool) {
	if t.Contributor == nil {
		return 0, false
	}
	return *t.Contributor, true
}

// Timesheets stores timesheets.
type Timesheets struct {
	db DB
}

// NewTimesheets creates the store.
func NewTimesheets(db DB) *Timesheets {
	return &Timesheets{db: db}
}

// Get returns a timesheet of the scoped tenant.
func (s *Timesheets) Get(ctx context.Context, scope tenancy.Scope, id int64) (*Timesheet, error) {
	where, tenantID := scope.Where("tenant_id", 2)
	var (
		ts  Timesheet
		tid int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, project_id, contributor_principal_id, work_date, minutes, created_at
		 FROM timesheets WHERE id = $1 AND `+where, id, tenantID,
	).Scan(&ts.ID, &tid, &ts.ProjectID, &ts.Contributor, &ts.WorkDate, &ts.Minutes, &ts.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, fmt.Errorf("timesheet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get timesheet %d: %w", id, err)
	}
	ts.Tenant = &tenant.Tenant{ID: tid}
	return &ts, nil
}

// Create inserts a stamped timesheet.
func (s *Timesheets) Create(ctx context.Context, ts *Timesheet) error {
	if ts.Tenant == nil {
		return ErrUnowned
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO timesheets (tenant_id, project_id, contributor_principal_id, work_date, minutes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		ts.Tenant.ID, ts.ProjectID, ts.Contributor, ts.WorkDate, ts.Minutes,
	).Scan(&ts.ID, &ts.CreatedAt)
	if err != nil {
		return fmt.Errorf("create timesheet: %w", err)
	}
	return nil
}

// UpdateMinutes changes the logged time of a timesheet of the scoped tenant.
func (s *Timesheets) UpdateMinutes(ctx context.Context, scope tenancy.Scope, id int64, minutes int) error {
	where, tenantID := scope.Where("tenant_id", 3)
	tag, err := s.db.Exec(ctx,
		`UPDATE timesheets SET minutes = $2 WHERE id = $1 AND `+where, id, minutes, tenantID)
	if err != nil {
		return fmt.Errorf("update timesheet %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("timesheet %d: %w", id, ErrNotFound)
	}
	return nil
}
