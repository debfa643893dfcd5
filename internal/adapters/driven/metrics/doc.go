// Package metrics provides a Prometheus-backed driven.Metrics.
//
// Each Collector registers its counters on a private registry, so a new
// collector per command starts from zero. Snapshot flattens the non-zero
// series into "name{labels}" keys for the convert --metrics output.
package metrics
