package core

import "errors"

var (
	// ErrTenantNotFound means the registry has no tenant with the given id.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrRegistryUnavailable means the platform database itself could not be
	// reached, so the tenant list cannot be determined. This is the only
	// failure that aborts a whole aggregation.
	ErrRegistryUnavailable = errors.New("tenant registry unavailable")
)
