package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"acuity-hq/palisade/pkg/config"
	"acuity-hq/palisade/pkg/render"
	"acuity-hq/palisade/pkg/telemetry/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "palisade",
	Short: "Execution-control policy toolkit",
	Long: `Palisade turns filesystem scan output into application
execution-control policies.

It reduces writable-directory scans to exclusion lists, synthesizes
publisher and hash rules from signed-file inventories, assembles rule
fragments into audit and enforce artifacts, and compares policies across
revisions. Assembled policies can be snapshotted to a local store and
diffed against file or git baselines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "palisade.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// loadConfig reads the file named by --config with environment overrides
// applied. When the flag is left at its default and no such file exists, the
// built-in defaults are used so subcommands work without a config file.
func loadConfig() (*config.Config, error) {
	if !rootCmd.PersistentFlags().Changed("config") {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, nil
		}
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}

// setupLogging installs the process-wide logger. --verbose overrides the
// configured level.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging
	if verbose {
		lc.Level = "debug"
	}
	return logging.Setup(lc, nil)
}

// rendererFor maps a format name to its renderer.
func rendererFor(format string) (render.Renderer, error) {
	switch format {
	case "applocker", "":
		return render.NewAppLockerRenderer(), nil
	case "sipolicy":
		return render.NewSIPolicyRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want applocker or sipolicy)", format)
	}
}

// openOutput opens the output destination. An empty path or "-" means stdout.
func openOutput(path string) (io.WriteCloser, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output %q: %w", path, err)
	}
	return f, f.Close, nil
}
