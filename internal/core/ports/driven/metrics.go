package driven

import "github.com/custodia-labs/bimlink/internal/core/domain"

// Metrics records engine counters. Optional; services accept nil.
type Metrics interface {
	// CacheHit records a conversion cache hit.
	CacheHit()

	// CacheMiss records a conversion cache miss that ran a mapper.
	CacheMiss()

	// Outcome records one materialization outcome for a native type.
	Outcome(t domain.NativeType, o domain.Outcome)

	// Retry records one deferred retry attempt.
	Retry()

	// Fallback records one degraded fallback.
	Fallback()
}
