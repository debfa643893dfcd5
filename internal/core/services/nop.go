package services

import (
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

type nopSink struct{}

func (nopSink) Report(domain.Diagnostic) {}

type nopMetrics struct{}

func (nopMetrics) CacheHit()                                 {}
func (nopMetrics) CacheMiss()                                {}
func (nopMetrics) Outcome(domain.NativeType, domain.Outcome) {}
func (nopMetrics) Retry()                                    {}
func (nopMetrics) Fallback()                                 {}

func sinkOrNop(s driven.DiagnosticsSink) driven.DiagnosticsSink {
	if s == nil {
		return nopSink{}
	}
	return s
}

func metricsOrNop(m driven.Metrics) driven.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
