// Package metrics exposes Prometheus metrics for the synthesis pipeline:
// rule counters by type, diagnostic counters by code, comparison counters by
// classification, snapshot store gauges, and a synthesis duration histogram.
package metrics
