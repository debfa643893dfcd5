package services

import (
	"context"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/logger"
)

// RetryFunc re-attempts the work behind a fault.
type RetryFunc func(ctx context.Context, fault *domain.DeferredFault) domain.Result

// FallbackFunc creates the degraded replacement for an exhausted fault and
// returns its native ID.
type FallbackFunc func(ctx context.Context, fault *domain.DeferredFault) (string, error)

// ReadyFunc reports whether a missing dependency now exists.
type ReadyFunc func(dependencyID string) bool

// DeferredQueue holds faults that returned NotReady and re-drives them.
// It is the only component that handles NotReady.
//
// Each fault is retried at most budget times. A fault still not ready
// after its last retry is converted to a degraded fallback exactly once.
type DeferredQueue struct {
	budget   int
	retry    RetryFunc
	fallback FallbackFunc
	ready    ReadyFunc
	sink     driven.DiagnosticsSink
	metrics  driven.Metrics

	pending  []*domain.DeferredFault
	resolved int
	retries  int
	degraded []domain.DegradedFallback
	failures []domain.RecordFailure
}

// NewDeferredQueue creates a queue. A negative budget is treated as zero.
// ready may be nil, in which case every pending fault is retried on each
// RetryPending call.
func NewDeferredQueue(
	budget int,
	retry RetryFunc,
	fallback FallbackFunc,
	ready ReadyFunc,
	sink driven.DiagnosticsSink,
	metrics driven.Metrics,
) *DeferredQueue {
	if budget < 0 {
		budget = 0
	}
	return &DeferredQueue{
		budget:   budget,
		retry:    retry,
		fallback: fallback,
		ready:    ready,
		sink:     sinkOrNop(sink),
		metrics:  metricsOrNop(metrics),
	}
}

// Defer queues a fault. A fault whose RequestID is already pending is ignored.
func (q *DeferredQueue) Defer(fault *domain.DeferredFault) {
	for _, f := range q.pending {
		if f.RequestID == fault.RequestID {
			return
		}
	}
	logger.Debug("deferred %s until %s exists", fault.RequestID, fault.MissingDependencyID)
	q.pending = append(q.pending, fault)
}

// RetryPending retries every pending fault whose missing dependency now
// resolves and returns how many succeeded. Call it after a pass that
// created elements, never during one.
func (q *DeferredQueue) RetryPending(ctx context.Context) int {
	return q.run(ctx, false)
}

// Drain retries every pending fault until it succeeds, fails or exhausts
// its budget. Nothing is pending afterwards.
func (q *DeferredQueue) Drain(ctx context.Context) {
	for len(q.pending) > 0 {
		if ctx.Err() != nil {
			return
		}
		q.run(ctx, true)
	}
}

func (q *DeferredQueue) run(ctx context.Context, force bool) int {
	succeeded := 0
	var keep []*domain.DeferredFault

	for _, f := range q.pending {
		if ctx.Err() != nil {
			keep = append(keep, f)
			continue
		}
		if f.AttemptCount >= q.budget {
			q.degrade(ctx, f)
			continue
		}
		if !force && q.ready != nil && !q.ready(f.MissingDependencyID) {
			keep = append(keep, f)
			continue
		}

		f.AttemptCount++
		q.retries++
		q.metrics.Retry()
		res := q.retry(ctx, f)

		switch res.Outcome {
		case domain.OutcomeSuccess:
			succeeded++
			q.resolved++
			logger.Debug("deferred %s resolved on retry %d", f.RequestID, f.AttemptCount)
		case domain.OutcomeNotReady:
			f.MissingDependencyID = res.MissingDependencyID
			if f.AttemptCount >= q.budget {
				q.degrade(ctx, f)
				continue
			}
			keep = append(keep, f)
		case domain.OutcomeFailure:
			q.fail(f.RequestID, res.Err.Error())
		case domain.OutcomeSkip:
			q.sink.Report(domain.Infof(f.RequestID, "skipped on retry: %s", res.Reason))
		}
	}

	q.pending = keep
	return succeeded
}

func (q *DeferredQueue) degrade(ctx context.Context, f *domain.DeferredFault) {
	q.metrics.Fallback()
	id, err := q.fallback(ctx, f)
	if err != nil {
		q.fail(f.RequestID, err.Error())
		return
	}
	q.sink.Report(domain.Warnf(f.RequestID, "created without connectivity after %d retries, %s never materialized",
		f.AttemptCount, f.MissingDependencyID))
	q.degraded = append(q.degraded, domain.DegradedFallback{
		RequestID:           f.RequestID,
		MissingDependencyID: f.MissingDependencyID,
		NativeID:            id,
		Attempts:            f.AttemptCount,
	})
}

func (q *DeferredQueue) fail(requestID, reason string) {
	q.sink.Report(domain.Errorf(requestID, "%s", reason))
	q.failures = append(q.failures, domain.RecordFailure{RecordID: requestID, Reason: reason})
}

// Len returns the number of pending faults.
func (q *DeferredQueue) Len() int { return len(q.pending) }

// Resolved returns how many faults succeeded on retry.
func (q *DeferredQueue) Resolved() int { return q.resolved }

// Retries returns the total number of retry attempts.
func (q *DeferredQueue) Retries() int { return q.retries }

// Degraded returns the fallbacks created so far.
func (q *DeferredQueue) Degraded() []domain.DegradedFallback { return q.degraded }

// Failures returns faults that failed on retry or whose fallback failed.
func (q *DeferredQueue) Failures() []domain.RecordFailure { return q.failures }
