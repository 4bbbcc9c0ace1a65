package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// PALISADE_SECTION_FIELD (e.g., PALISADE_SYNTHESIS_GRANULARITY) and always
// take precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies PALISADE_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// Scan overrides
	if val := os.Getenv("PALISADE_SCAN_INVENTORY_PATH"); val != "" {
		cfg.Scan.InventoryPath = val
	}
	if val := os.Getenv("PALISADE_SCAN_EXCLUSIONS_PATH"); val != "" {
		cfg.Scan.ExclusionsPath = val
	}
	if val := os.Getenv("PALISADE_SCAN_WATCH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Scan.Watch.Enabled = b
		}
	}
	if val := os.Getenv("PALISADE_SCAN_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Scan.Watch.Debounce = d
		}
	}

	// Synthesis overrides
	if val := os.Getenv("PALISADE_SYNTHESIS_POLICY_NAME"); val != "" {
		cfg.Synthesis.PolicyName = val
	}
	if val := os.Getenv("PALISADE_SYNTHESIS_GRANULARITY"); val != "" {
		cfg.Synthesis.Granularity = val
	}
	if val := os.Getenv("PALISADE_SYNTHESIS_PRINCIPAL"); val != "" {
		cfg.Synthesis.Principal = val
	}

	// Snapshot overrides
	if val := os.Getenv("PALISADE_SNAPSHOT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Snapshot.Enabled = b
		}
	}
	if val := os.Getenv("PALISADE_SNAPSHOT_DB_PATH"); val != "" {
		cfg.Snapshot.DBPath = val
	}
	if val := os.Getenv("PALISADE_SNAPSHOT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Snapshot.Retention.Days = i
		}
	}
	if val := os.Getenv("PALISADE_SNAPSHOT_RETENTION_MAX_SNAPSHOTS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Snapshot.Retention.MaxSnapshots = i
		}
	}
	if val := os.Getenv("PALISADE_SNAPSHOT_RETENTION_SCHEDULE"); val != "" {
		cfg.Snapshot.Retention.Schedule = val
	}

	// Baseline overrides
	if val := os.Getenv("PALISADE_BASELINE_SOURCE"); val != "" {
		cfg.Baseline.Source = val
	}
	if val := os.Getenv("PALISADE_BASELINE_FILE_PATH"); val != "" {
		cfg.Baseline.FilePath = val
	}
	if val := os.Getenv("PALISADE_BASELINE_GIT_REPOSITORY"); val != "" {
		cfg.Baseline.Git.Repository = val
	}
	if val := os.Getenv("PALISADE_BASELINE_GIT_BRANCH"); val != "" {
		cfg.Baseline.Git.Branch = val
	}
	if val := os.Getenv("PALISADE_BASELINE_GIT_PATH"); val != "" {
		cfg.Baseline.Git.Path = val
	}
	if val := os.Getenv("PALISADE_BASELINE_GIT_TOKEN"); val != "" {
		cfg.Baseline.Git.Auth.Type = "token"
		cfg.Baseline.Git.Auth.Token = val
	}

	// Telemetry overrides
	if val := os.Getenv("PALISADE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("PALISADE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("PALISADE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("PALISADE_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("PALISADE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
