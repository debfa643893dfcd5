package driven

import "github.com/custodia-labs/bimlink/internal/core/domain"

// DiagnosticsSink receives skip, substitution, downgrade and fault notices
// for one batch. A sink is passed explicitly to each component.
type DiagnosticsSink interface {
	// Report records a diagnostic. Never fails.
	Report(d domain.Diagnostic)
}
