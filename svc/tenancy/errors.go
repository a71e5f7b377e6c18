package tenancy

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// ErrIsolationViolation matches every tenancy failure kind.
var ErrIsolationViolation = errors.New("tenant isolation violation")

// Kind sentinels. Each typed error matches exactly one of them.
var (
	ErrContextMissing    = errors.New("tenant context missing")
	ErrTenantInactive    = errors.New("tenant inactive")
	ErrCrossTenantAccess = errors.New("cross-tenant access")
	ErrAccessDenied      = errors.New("tenant access denied")
)

// Source names where a tenant id came from.
type Source string

const (
	SourceNone       Source = ""
	SourceClaim      Source = "claim"
	SourceSession    Source = "session"
	SourceHome       Source = "home"
	SourceBackground Source = "background"
)

// ContextMissingError is returned when no tenant can be determined: no
// authenticated principal, or a claim pointing at a tenant that does not
// exist.
type ContextMissingError struct {
	Reason            string
	Source            Source
	PrincipalID       int64
	AttemptedTenantID int64
}

func (e *ContextMissingError) Error() string {
	msg := "tenant context missing: " + e.Reason
	if e.Source != SourceNone {
		msg += fmt.Sprintf(" (source=%s", e.Source)
		if e.AttemptedTenantID != 0 {
			msg += fmt.Sprintf(", tenant=%d", e.AttemptedTenantID)
		}
		msg += ")"
	}
	return msg
}

func (e *ContextMissingError) Is(target error) bool {
	return target == ErrContextMissing || target == ErrIsolationViolation
}

// InactiveError is returned when the resolved or requested tenant is
// suspended, cancelled, or past its trial.
type InactiveError struct {
	TenantID    int64
	Status      tenant.Status
	PrincipalID int64
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("tenant %d is not usable (status=%s)", e.TenantID, e.Status)
}

func (e *InactiveError) Is(target error) bool {
	return target == ErrTenantInactive || target == ErrIsolationViolation
}

// CrossTenantError is returned when a principal reaches for a tenant other
// than the one it is allowed to act in.
type CrossTenantError struct {
	PrincipalID       int64
	HomeTenantID      int64
	AttemptedTenantID int64
}

func (e *CrossTenantError) Error() string {
	return fmt.Sprintf("principal %d (tenant %d) may not access tenant %d",
		e.PrincipalID, e.HomeTenantID, e.AttemptedTenantID)
}

func (e *CrossTenantError) Is(target error) bool {
	return target == ErrCrossTenantAccess || target == ErrIsolationViolation
}

// AccessDeniedError is returned when a principal may not switch tenants or
// perform an action.
type AccessDeniedError struct {
	PrincipalID    int64
	TargetTenantID int64
	Reason         string
}

func (e *AccessDeniedError) Error() string {
	if e.PrincipalID == 0 {
		return "tenant access denied: " + e.Reason
	}
	return fmt.Sprintf("tenant access denied for principal %d: %s", e.PrincipalID, e.Reason)
}

func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied || target == ErrIsolationViolation
}
