package config

import (
	"time"

	"acuity-hq/palisade/pkg/gitsource"
)

// Config is the root configuration for palisade.
type Config struct {
	Scan      ScanConfig      `yaml:"scan"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Baseline  BaselineConfig  `yaml:"baseline"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ScanConfig locates the scanner outputs the synthesizer consumes.
type ScanConfig struct {
	// InventoryPath is the scan inventory CSV.
	InventoryPath string `yaml:"inventory_path"`

	// ExclusionsPath is the user-writable directory exclusion list.
	ExclusionsPath string `yaml:"exclusions_path"`

	Watch WatchConfig `yaml:"watch"`
}

// WatchConfig controls re-synthesis on scan input changes.
type WatchConfig struct {
	// Enabled turns on the file watcher.
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period before reacting to a burst of writes.
	Debounce time.Duration `yaml:"debounce"`
}

// SynthesisConfig controls rule generation.
type SynthesisConfig struct {
	// PolicyName names the assembled policy and its snapshots.
	PolicyName string `yaml:"policy_name"`

	// Granularity is the publisher rule granularity: "publisher",
	// "publisher-product", "publisher-product-binary", or
	// "publisher-product-binary-version".
	Granularity string `yaml:"granularity"`

	// Principal is the security identifier synthesized rules apply to.
	Principal string `yaml:"principal"`
}

// SnapshotConfig controls the policy snapshot store.
type SnapshotConfig struct {
	// Enabled turns on snapshot persistence.
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig controls snapshot pruning.
type RetentionConfig struct {
	// Days is the age cutoff in days. 0 keeps snapshots forever.
	Days int `yaml:"days"`

	// MaxSnapshots caps the stored snapshot count. 0 means unlimited.
	MaxSnapshots int64 `yaml:"max_snapshots"`

	// Schedule is a cron expression for automatic pruning. Empty disables it.
	Schedule string `yaml:"schedule"`
}

// BaselineConfig locates the reference policies diffs run against.
type BaselineConfig struct {
	// Source is "file" or "git".
	Source string `yaml:"source"`

	// FilePath is the reference policy XML when Source is "file".
	FilePath string `yaml:"file_path"`

	// Git is the reference repository when Source is "git".
	Git gitsource.Config `yaml:"git"`
}

// TelemetryConfig groups logging and metrics settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`

	// AddSource includes the source position in every log record.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns on the metrics listener.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the host:port the metrics server binds.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path metrics are served on.
	Path string `yaml:"path"`
}
