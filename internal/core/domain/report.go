package domain

import "time"

// RecordFailure is a per-record validation failure surfaced to the caller.
type RecordFailure struct {
	RecordID string `json:"recordId"`
	Reason   string `json:"reason"`
}

// DegradedFallback records a fitting created without connectivity after its
// retry budget ran out.
type DegradedFallback struct {
	RequestID           string `json:"requestId"`
	MissingDependencyID string `json:"missingDependencyId"`
	NativeID            string `json:"nativeId,omitempty"`
	Attempts            int    `json:"attempts"`
}

// BatchReport is the result of converting one batch of native records.
// Only validation failures and degraded fallbacks are aggregated; skips
// are counted but never listed.
type BatchReport struct {
	Objects   []*ConvertedObject `json:"objects"`
	Networks  []*Network         `json:"networks"`
	Converted int                `json:"converted"`
	Skipped   int                `json:"skipped"`
	Failures  []RecordFailure    `json:"failures"`
	Degraded  []DegradedFallback `json:"degraded"`
	Duration  time.Duration      `json:"duration"`
}

// HasErrors returns true if any record failed.
func (r *BatchReport) HasErrors() bool {
	return len(r.Failures) > 0
}

// ReceiveReport is the result of creating a network in the host store.
type ReceiveReport struct {
	// Created maps element application IDs to created native IDs.
	Created map[string]string `json:"created"`

	// Fittings counts fittings created with full connectivity.
	Fittings int `json:"fittings"`

	// Passes counts creation passes.
	Passes int `json:"passes"`

	// Retries counts deferred retry attempts.
	Retries int `json:"retries"`

	Failures []RecordFailure    `json:"failures"`
	Degraded []DegradedFallback `json:"degraded"`
}

// NewReceiveReport creates an empty report.
func NewReceiveReport() *ReceiveReport {
	return &ReceiveReport{Created: make(map[string]string)}
}
