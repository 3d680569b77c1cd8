package plugin

import "errors"

var (
	// ErrNotFound is returned when a lookup by plugin ID finds nothing
	// registered.
	ErrNotFound = errors.New("plugin: not found")

	// ErrCapabilityMissing is returned when a caller invokes a function
	// belonging to a capability the target plugin doesn't have.
	ErrCapabilityMissing = errors.New("plugin: capability not supported")
)
