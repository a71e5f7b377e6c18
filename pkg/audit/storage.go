package audit

import (
	"context"
	"time"
)

// Storage persists and queries audit records.
type Storage interface {
	Store(ctx context.Context, record Record) error
	Query(ctx context.Context, criteria Criteria) ([]Record, error)
}

// BatchStorage is implemented by storages that can insert many records at once.
type BatchStorage interface {
	StoreBatch(ctx context.Context, records []Record) error
}

// Counter is implemented by storages with a native count.
type Counter interface {
	Count(ctx context.Context, criteria Criteria) (int64, error)
}

// Criteria filters audit records. Zero fields match everything.
type Criteria struct {
	Kind        Kind
	PrincipalID int64
	// TenantID matches records whose current or attempted tenant is TenantID.
	TenantID  int64
	Decision  Decision
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Matches reports whether r satisfies every set criterion.
func (c Criteria) Matches(r Record) bool {
	if c.Kind != "" && r.Kind != c.Kind {
		return false
	}
	if c.PrincipalID != 0 && r.PrincipalID != c.PrincipalID {
		return false
	}
	if c.TenantID != 0 && r.CurrentTenantID != c.TenantID && r.AttemptedTenantID != c.TenantID {
		return false
	}
	if c.Decision != "" && r.Decision != c.Decision {
		return false
	}
	if !c.StartTime.IsZero() && r.CreatedAt.Before(c.StartTime) {
		return false
	}
	if !c.EndTime.IsZero() && !r.CreatedAt.Before(c.EndTime) {
		return false
	}
	return true
}
