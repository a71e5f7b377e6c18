package audit

import (
	"fmt"
	"time"
)

// Kind classifies an authorization audit record.
type Kind string

const (
	// KindCrossTenantAttempt is written for every access to a resource owned
	// by a tenant other than the request's current tenant.
	KindCrossTenantAttempt Kind = "cross_tenant_attempt"
	// KindSuperAdminOverride is written when a super-admin is let through.
	KindSuperAdminOverride Kind = "superadmin_override"
	// KindTenantSwitch is written when a principal changes its current tenant.
	KindTenantSwitch Kind = "tenant_switch"
)

// Decision is the outcome recorded for an authorization check.
type Decision string

const (
	DecisionAllowed Decision = "allowed"
	DecisionDenied  Decision = "denied"
)

// Record is a single authorization audit entry.
type Record struct {
	ID                string         `json:"id" bson:"_id"`
	Kind              Kind           `json:"kind" bson:"kind"`
	PrincipalID       int64          `json:"principal_id" bson:"principal_id"`
	PrincipalEmail    string         `json:"principal_email,omitempty" bson:"principal_email,omitempty"`
	CurrentTenantID   int64          `json:"current_tenant_id" bson:"current_tenant_id"`
	CurrentTenantName string         `json:"current_tenant_name,omitempty" bson:"current_tenant_name,omitempty"`
	AttemptedTenantID int64          `json:"attempted_tenant_id" bson:"attempted_tenant_id"`
	Action            string         `json:"action" bson:"action"`
	ResourceKind      string         `json:"resource_kind,omitempty" bson:"resource_kind,omitempty"`
	ResourceID        string         `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Decision          Decision       `json:"decision" bson:"decision"`
	RequestID         string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Checksum          string         `json:"checksum,omitempty" bson:"checksum,omitempty"`
	CreatedAt         time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks the fields every record must carry.
func (r *Record) Validate() error {
	switch {
	case r.Kind == "":
		return fmt.Errorf("%w: kind is required", ErrInvalidRecord)
	case r.Action == "":
		return fmt.Errorf("%w: action is required", ErrInvalidRecord)
	case r.Decision != DecisionAllowed && r.Decision != DecisionDenied:
		return fmt.Errorf("%w: unknown decision %q", ErrInvalidRecord, r.Decision)
	}
	return nil
}
