// Package services implements the driving port interfaces.
// Services contain the conversion engine and orchestrate
// calls to driven ports (adapters).
//
// The engine is single-threaded and synchronous: one batch owns its
// conversion cache, diagnostics sink and deferred queue.
package services
