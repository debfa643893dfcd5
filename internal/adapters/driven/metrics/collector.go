package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// Ensure Collector implements the interface.
var _ driven.Metrics = (*Collector)(nil)

// Collector holds the conversion counters on a private registry.
type Collector struct {
	registry *prometheus.Registry

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	Outcomes    *prometheus.CounterVec
	Retries     prometheus.Counter
	Fallbacks   prometheus.Counter
}

// NewCollector creates a collector with the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Conversions answered from the conversion cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Conversions that ran a mapper",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Top-level results by native type and outcome",
		}, []string{"type", "outcome"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deferred_retries_total",
			Help:      "Retries of deferred fittings",
		}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_fallbacks_total",
			Help:      "Fittings created without connectivity",
		}),
	}

	registry.MustRegister(c.CacheHits, c.CacheMisses, c.Outcomes, c.Retries, c.Fallbacks)
	return c
}

// CacheHit counts a cache hit.
func (c *Collector) CacheHit() { c.CacheHits.Inc() }

// CacheMiss counts a cache miss.
func (c *Collector) CacheMiss() { c.CacheMisses.Inc() }

// Outcome counts one top-level result.
func (c *Collector) Outcome(t domain.NativeType, o domain.Outcome) {
	c.Outcomes.WithLabelValues(string(t), o.String()).Inc()
}

// Retry counts a deferred retry.
func (c *Collector) Retry() { c.Retries.Inc() }

// Fallback counts a degraded fallback.
func (c *Collector) Fallback() { c.Fallbacks.Inc() }

// Snapshot returns every non-zero counter keyed by its name and labels,
// e.g. "bimlink_outcomes_total{outcome=skip,type=GridSurface}".
func (c *Collector) Snapshot() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	out := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)
			name := family.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			out[name] = value
		}
	}
	return out, nil
}
