// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - NativeStore: The host object model (records, connectors, element creation)
//   - Mapper: Converts one kind of native record
//   - MapperRegistry: Dispatches native types to mappers
//   - DiagnosticsSink: Per-batch skip, substitution and downgrade notices
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Metrics: Engine counters. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or mapper package
package driven
