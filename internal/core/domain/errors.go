package domain

import "errors"

// Domain errors represent conversion failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested record or element does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a native type with no registered mapper,
	// or an unknown fitting part type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Conversion Errors.

	// ErrValidation indicates a record cannot be converted as authored.
	// Fatal for the record, never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNoTopology indicates a layered record has neither member nor element references.
	ErrNoTopology = errors.New("record has no usable topology")

	// ErrDependencyNotReady indicates a referenced element has not been created yet.
	// Only the deferred work queue handles it.
	ErrDependencyNotReady = errors.New("dependency not ready")

	// ErrCacheConsistency indicates a second, different object was inserted for a cache key.
	ErrCacheConsistency = errors.New("cache consistency fault")

	// ErrReentrantMaterialization indicates a mapper re-entered a key it is materializing.
	ErrReentrantMaterialization = errors.New("re-entrant materialization")

	// ErrInvalidGeometry indicates the host rejected the geometry of a create call.
	ErrInvalidGeometry = errors.New("invalid geometry")
)
