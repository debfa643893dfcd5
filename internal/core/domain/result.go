package domain

import "fmt"

// Outcome is the state of a materialization call.
type Outcome int

const (
	// OutcomeSuccess means objects were produced (or a native element created).
	OutcomeSuccess Outcome = iota

	// OutcomeSkip means the record was intentionally not converted. Not an error.
	OutcomeSkip

	// OutcomeFailure means the record could not be converted and will not be retried.
	OutcomeFailure

	// OutcomeNotReady means a dependency has not materialized yet. Retryable.
	OutcomeNotReady
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkip:
		return "skip"
	case OutcomeFailure:
		return "failure"
	case OutcomeNotReady:
		return "not-ready"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is returned by every materialization call. Callers must branch on
// Outcome; Skip is not an error and NotReady is only handled by the
// deferred work queue.
type Result struct {
	Outcome Outcome

	// Objects holds converted objects on success.
	Objects []*ConvertedObject

	// NativeID holds the created host element on success of a create call.
	NativeID string

	// Reason explains a skip.
	Reason string

	// Err holds the cause of a failure.
	Err error

	// MissingDependencyID names the dependency a NotReady result waits for.
	MissingDependencyID string
}

// Success builds a successful result carrying objects.
func Success(objects ...*ConvertedObject) Result {
	return Result{Outcome: OutcomeSuccess, Objects: objects}
}

// Created builds a successful result carrying a created native ID.
func Created(nativeID string) Result {
	return Result{Outcome: OutcomeSuccess, NativeID: nativeID}
}

// Skip builds a skip result.
func Skip(reason string) Result {
	return Result{Outcome: OutcomeSkip, Reason: reason}
}

// Failure builds a failure result.
func Failure(err error) Result {
	return Result{Outcome: OutcomeFailure, Err: err}
}

// Failuref builds a failure wrapping a sentinel with a formatted message.
func Failuref(sentinel error, format string, args ...any) Result {
	return Failure(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

// NotReady builds a retryable result waiting for missingID.
func NotReady(missingID string) Result {
	return Result{
		Outcome:             OutcomeNotReady,
		MissingDependencyID: missingID,
		Err:                 fmt.Errorf("%w: %s", ErrDependencyNotReady, missingID),
	}
}

// OK returns true on success.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// First returns the first object, or nil.
func (r Result) First() *ConvertedObject {
	if len(r.Objects) == 0 {
		return nil
	}
	return r.Objects[0]
}
