package config

import "time"

// Default values for configuration fields.
const (
	// Scan defaults
	DefaultInventoryPath  = "data/inventory.csv"
	DefaultExclusionsPath = "data/exclusions.txt"
	DefaultWatchDebounce  = 250 * time.Millisecond

	// Synthesis defaults
	DefaultPolicyName  = "palisade"
	DefaultGranularity = "publisher-product-binary"
	DefaultPrincipal   = "S-1-1-0" // Everyone

	// Snapshot defaults
	DefaultSnapshotEnabled   = true
	DefaultSnapshotDBPath    = "data/snapshots.db"
	DefaultRetentionDays     = 90
	DefaultRetentionMax      = int64(0)
	DefaultRetentionSchedule = "0 3 * * *"

	// Baseline defaults
	DefaultBaselineSource    = "file"
	DefaultBaselineGitBranch = "main"
	DefaultBaselineGitPath   = "policies"

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
	DefaultMetricsListen = "127.0.0.1:9090"
	DefaultMetricsPath   = "/metrics"
)

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Scan.InventoryPath == "" {
		cfg.Scan.InventoryPath = DefaultInventoryPath
	}
	if cfg.Scan.ExclusionsPath == "" {
		cfg.Scan.ExclusionsPath = DefaultExclusionsPath
	}
	if cfg.Scan.Watch.Debounce == 0 {
		cfg.Scan.Watch.Debounce = DefaultWatchDebounce
	}

	if cfg.Synthesis.PolicyName == "" {
		cfg.Synthesis.PolicyName = DefaultPolicyName
	}
	if cfg.Synthesis.Granularity == "" {
		cfg.Synthesis.Granularity = DefaultGranularity
	}
	if cfg.Synthesis.Principal == "" {
		cfg.Synthesis.Principal = DefaultPrincipal
	}

	if cfg.Snapshot.DBPath == "" {
		cfg.Snapshot.DBPath = DefaultSnapshotDBPath
	}
	if cfg.Snapshot.Retention.Days == 0 {
		cfg.Snapshot.Retention.Days = DefaultRetentionDays
	}
	if cfg.Snapshot.Retention.Schedule == "" {
		cfg.Snapshot.Retention.Schedule = DefaultRetentionSchedule
	}

	if cfg.Baseline.Source == "" {
		cfg.Baseline.Source = DefaultBaselineSource
	}
	if cfg.Baseline.Git.Branch == "" {
		cfg.Baseline.Git.Branch = DefaultBaselineGitBranch
	}
	if cfg.Baseline.Git.Path == "" {
		cfg.Baseline.Git.Path = DefaultBaselineGitPath
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListen
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
