package tenant

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Status is the subscription state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every known status.
var Statuses = []Status{StatusActive, StatusTrial, StatusSuspended, StatusCancelled}

// ParseStatus validates a raw status value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(Statuses, st) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Tenant is the isolation boundary for a customer organization's data.
type Tenant struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Status      Status     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsActive reports whether the tenant has a paid, active subscription.
func (t *Tenant) IsActive() bool {
	return t != nil && t.Status == StatusActive
}

// IsTrialActive reports whether the tenant is on a trial that has not
// expired at now. A trial without an end date is never active.
func (t *Tenant) IsTrialActive(now time.Time) bool {
	return t != nil &&
		t.Status == StatusTrial &&
		t.TrialEndsAt != nil &&
		t.TrialEndsAt.After(now)
}

// IsUsable reports whether the tenant's data may be accessed at now.
func (t *Tenant) IsUsable(now time.Time) bool {
	return t.IsActive() || t.IsTrialActive(now)
}

// Order selects the sort order of List results.
type Order int

const (
	// OrderByName sorts by name ascending, then by id.
	OrderByName Order = iota
	// OrderByID sorts by id ascending.
	OrderByID
)

// Filter narrows List results. A zero Filter returns every tenant by name.
type Filter struct {
	Statuses []Status
	Order    Order
}

// Matches reports whether t passes the status filter.
func (f Filter) Matches(t *Tenant) bool {
	return len(f.Statuses) == 0 || slices.Contains(f.Statuses, t.Status)
}

// Repository loads tenants from a data source.
type Repository interface {
	// FindByID returns ErrTenantNotFound if no tenant has the id.
	FindByID(ctx context.Context, id int64) (*Tenant, error)

	// List returns tenants matching filter in the requested order.
	List(ctx context.Context, filter Filter) ([]*Tenant, error)
}
