package diagnostics

import (
	"sync"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/logger"
)

// Ensure Collector implements the interface.
var _ driven.DiagnosticsSink = (*Collector)(nil)

// Collector keeps every diagnostic of one batch and logs it at the
// matching level. Create one per batch.
type Collector struct {
	mu          sync.Mutex
	diagnostics []domain.Diagnostic
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report records and logs a diagnostic.
func (c *Collector) Report(d domain.Diagnostic) {
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()

	switch d.Severity {
	case domain.SeverityError:
		logger.Error("%s", d)
	case domain.SeverityWarning:
		logger.Warn("%s", d)
	default:
		logger.Debug("%s", d)
	}
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []domain.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Diagnostic(nil), c.diagnostics...)
}

// Count returns the number of diagnostics with the given severity.
func (c *Collector) Count(sev domain.Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasErrors returns true if any error diagnostic was reported.
func (c *Collector) HasErrors() bool {
	return c.Count(domain.SeverityError) > 0
}

// ForRecord returns the diagnostics reported against one record.
func (c *Collector) ForRecord(recordID string) []domain.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Diagnostic
	for _, d := range c.diagnostics {
		if d.RecordID == recordID {
			out = append(out, d)
		}
	}
	return out
}
