package domain

import "fmt"

// Severity grades a diagnostic.
type Severity int

const (
	// SeverityInfo is used for skips and substitution notes.
	SeverityInfo Severity = iota

	// SeverityWarning is used for degraded fallbacks and mismatched connectors.
	SeverityWarning

	// SeverityError is used for validation failures and cache consistency faults.
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is one notice emitted during a batch.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	RecordID string   `json:"recordId"`
	Message  string   `json:"message"`
}

// Infof builds an info diagnostic.
func Infof(recordID, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, RecordID: recordID, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning diagnostic.
func Warnf(recordID, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, RecordID: recordID, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error diagnostic.
func Errorf(recordID, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, RecordID: recordID, Message: fmt.Sprintf(format, args...)}
}

// String returns "[severity] record: message".
func (d Diagnostic) String() string {
	if d.RecordID == "" {
		return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.RecordID, d.Message)
}
