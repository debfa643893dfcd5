// Package domain defines the core entities of the materialization engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - NativeRecord: A read-only record from the host object model
//   - ConvertedObject: The output-graph form of a record on one layer
//   - Result: The Success, Skip, Failure or NotReady outcome of a conversion
//   - Network: Elements and index-based links rebuilt from connectors
//   - DeferredFault: A fitting waiting for a neighbour to be created
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
