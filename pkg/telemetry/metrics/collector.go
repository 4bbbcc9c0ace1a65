package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"acuity-hq/palisade/pkg/config"
	"acuity-hq/palisade/pkg/diffpol"
	"acuity-hq/palisade/pkg/rules"
)

// Collector registers and records all palisade Prometheus metrics.
//
// Metrics:
//   - palisade_rules_synthesized_total: synthesized rules by rule type
//   - palisade_diagnostics_total: diagnostics by code
//   - palisade_comparison_records_total: comparison records by classification
//   - palisade_snapshots_stored: snapshots currently in the store
//   - palisade_snapshot_last_saved_timestamp_seconds: last snapshot save time
//   - palisade_synthesis_duration_seconds: synthesis duration histogram
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	rulesTotal        *prometheus.CounterVec
	diagnosticsTotal  *prometheus.CounterVec
	comparisonTotal   *prometheus.CounterVec
	snapshotsStored   prometheus.Gauge
	snapshotLastSaved prometheus.Gauge
	synthesisDuration prometheus.Histogram
}

// NewCollector creates a collector and registers its metrics. A nil registry
// gets a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		rulesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "palisade",
				Name:      "rules_synthesized_total",
				Help:      "Total number of synthesized rules by rule type",
			},
			[]string{"rule_type"},
		),

		diagnosticsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "palisade",
				Name:      "diagnostics_total",
				Help:      "Total number of recoverable diagnostics by code",
			},
			[]string{"code"},
		),

		comparisonTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "palisade",
				Name:      "comparison_records_total",
				Help:      "Total number of comparison report records by classification",
			},
			[]string{"classification"},
		),

		snapshotsStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "palisade",
				Name:      "snapshots_stored",
				Help:      "Number of policy snapshots currently stored",
			},
		),

		snapshotLastSaved: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "palisade",
				Name:      "snapshot_last_saved_timestamp_seconds",
				Help:      "Unix time of the most recent snapshot save",
			},
		),

		synthesisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "palisade",
				Name:      "synthesis_duration_seconds",
				Help:      "Duration of a full synthesis pass in seconds",
				// Synthesis is CPU-bound over inventories of a few
				// thousand records (1ms - 10s).
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
	}

	registry.MustRegister(
		c.rulesTotal,
		c.diagnosticsTotal,
		c.comparisonTotal,
		c.snapshotsStored,
		c.snapshotLastSaved,
		c.synthesisDuration,
	)

	return c
}

// RecordRules adds n synthesized rules of the given type.
func (c *Collector) RecordRules(ruleType rules.RuleType, n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.rulesTotal.WithLabelValues(string(ruleType)).Add(float64(n))
}

// RecordDiagnostics counts every accumulated diagnostic by code.
func (c *Collector) RecordDiagnostics(diags *rules.Diagnostics) {
	if !c.config.Enabled || diags == nil {
		return
	}
	for _, item := range diags.Items {
		c.diagnosticsTotal.WithLabelValues(string(item.Code)).Inc()
	}
}

// RecordComparison counts comparison report records by classification.
func (c *Collector) RecordComparison(records []diffpol.Record) {
	if !c.config.Enabled {
		return
	}
	for _, rec := range records {
		c.comparisonTotal.WithLabelValues(string(rec.Classification)).Inc()
	}
}

// SetSnapshotsStored updates the stored snapshot count gauge.
func (c *Collector) SetSnapshotsStored(count int64) {
	if !c.config.Enabled {
		return
	}
	c.snapshotsStored.Set(float64(count))
}

// RecordSnapshotSaved marks a snapshot save at the given time.
func (c *Collector) RecordSnapshotSaved(at time.Time) {
	if !c.config.Enabled {
		return
	}
	c.snapshotLastSaved.Set(float64(at.Unix()))
}

// ObserveSynthesisDuration records the duration of one synthesis pass.
func (c *Collector) ObserveSynthesisDuration(d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.synthesisDuration.Observe(d.Seconds())
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
