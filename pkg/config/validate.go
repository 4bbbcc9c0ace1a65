package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"acuity-hq/palisade/pkg/synth"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "synthesis.granularity").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the entire configuration and returns a ValidationError
// listing every violation, or nil when the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateScan(&cfg.Scan)...)
	errs = append(errs, validateSynthesis(&cfg.Synthesis)...)
	errs = append(errs, validateSnapshot(&cfg.Snapshot)...)
	errs = append(errs, validateBaseline(&cfg.Baseline)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateScan(cfg *ScanConfig) []FieldError {
	var errs []FieldError

	if cfg.InventoryPath == "" {
		errs = append(errs, FieldError{"scan.inventory_path", "cannot be empty"})
	}
	if cfg.Watch.Enabled && cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{"scan.watch.debounce", "cannot be negative"})
	}

	return errs
}

func validateSynthesis(cfg *SynthesisConfig) []FieldError {
	var errs []FieldError

	if cfg.PolicyName == "" {
		errs = append(errs, FieldError{"synthesis.policy_name", "cannot be empty"})
	}
	if _, err := synth.ParseGranularity(cfg.Granularity); err != nil {
		errs = append(errs, FieldError{"synthesis.granularity", err.Error()})
	}
	if !strings.HasPrefix(cfg.Principal, "S-") {
		errs = append(errs, FieldError{"synthesis.principal",
			fmt.Sprintf("%q is not a security identifier", cfg.Principal)})
	}

	return errs
}

func validateSnapshot(cfg *SnapshotConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}
	if cfg.DBPath == "" {
		errs = append(errs, FieldError{"snapshot.db_path", "cannot be empty"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{"snapshot.retention.days", "cannot be negative"})
	}
	if cfg.Retention.MaxSnapshots < 0 {
		errs = append(errs, FieldError{"snapshot.retention.max_snapshots", "cannot be negative"})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{"snapshot.retention.schedule", err.Error()})
		}
	}

	return errs
}

func validateBaseline(cfg *BaselineConfig) []FieldError {
	var errs []FieldError

	switch cfg.Source {
	case "file":
		// FilePath may be supplied per invocation on the command line.
	case "git":
		if cfg.Git.Repository == "" {
			errs = append(errs, FieldError{"baseline.git.repository", "cannot be empty"})
		}
		if cfg.Git.Branch == "" {
			errs = append(errs, FieldError{"baseline.git.branch", "cannot be empty"})
		}
	default:
		errs = append(errs, FieldError{"baseline.source",
			fmt.Sprintf("must be \"file\" or \"git\", got %q", cfg.Source)})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("must be debug, info, warn, or error, got %q", cfg.Logging.Level)})
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("must be text or json, got %q", cfg.Logging.Format)})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{"telemetry.metrics.listen_address", "cannot be empty"})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
		}
	}

	return errs
}
