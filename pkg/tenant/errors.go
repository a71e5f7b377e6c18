package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidStatus is returned for an unknown tenant status value.
	ErrInvalidStatus = errors.New("invalid tenant status")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrStatusUpdateUnsupported is returned when the backing repository
	// cannot change tenant status.
	ErrStatusUpdateUnsupported = errors.New("tenant status update not supported")

	// ErrDuplicateTenant is returned when adding a tenant whose id is taken.
	ErrDuplicateTenant = errors.New("tenant already exists")
)
