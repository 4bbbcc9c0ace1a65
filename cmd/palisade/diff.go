package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"acuity-hq/palisade/pkg/config"
	"acuity-hq/palisade/pkg/diffpol"
	"acuity-hq/palisade/pkg/export"
	"acuity-hq/palisade/pkg/gitsource"
	"acuity-hq/palisade/pkg/render"
	"acuity-hq/palisade/pkg/rules"
	"acuity-hq/palisade/pkg/snapshot"
	"acuity-hq/palisade/pkg/telemetry/metrics"
)

var diffFlags struct {
	reference    string
	comparison   string
	snapshotID   string
	baselineFile string
	format       string
	output       string
	suppressSame bool
	pretty       bool
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare a policy against a baseline",
	Long: `Diff canonicalizes two policies and reports every collection and
rule as identical, changed, or present on one side only.

The reference side comes from --reference, from a stored snapshot via
--snapshot, or from the configured baseline (a file or a git
repository). The comparison side is always a policy XML file.`,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffFlags.reference, "reference", "", "reference policy XML (default: configured baseline)")
	diffCmd.Flags().StringVar(&diffFlags.comparison, "comparison", "", "comparison policy XML (required)")
	diffCmd.Flags().StringVar(&diffFlags.snapshotID, "snapshot", "", "use a stored snapshot as the reference: an id, or \"latest\"")
	diffCmd.Flags().StringVar(&diffFlags.baselineFile, "baseline-file", "", "policy file name inside the git baseline")
	diffCmd.Flags().StringVar(&diffFlags.format, "format", "text", "report format: text, csv, or json")
	diffCmd.Flags().StringVarP(&diffFlags.output, "output", "o", "", "report destination (default: stdout)")
	diffCmd.Flags().BoolVar(&diffFlags.suppressSame, "suppress-same", false, "omit rows identical on both sides")
	diffCmd.Flags().BoolVar(&diffFlags.pretty, "pretty", false, "indent JSON output")
	diffCmd.MarkFlagRequired("comparison")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	reference, err := resolveReference(ctx, cfg, logger)
	if err != nil {
		return err
	}
	comparison, err := render.ParseAppLockerFile(diffFlags.comparison)
	if err != nil {
		return err
	}

	records := diffpol.Compare(reference, comparison, diffpol.Options{
		SuppressSame: diffFlags.suppressSame,
	})
	metrics.NewCollector(&cfg.Telemetry.Metrics, nil).RecordComparison(records)

	w, closeOut, err := openOutput(diffFlags.output)
	if err != nil {
		return err
	}
	switch diffFlags.format {
	case "text":
		err = writeTextReport(records, w)
	case "csv":
		err = export.NewCSVExporter(true).Export(records, w)
	case "json":
		err = export.NewJSONExporter(diffFlags.pretty).Export(records, w)
	default:
		err = fmt.Errorf("unknown report format %q (want text, csv, or json)", diffFlags.format)
	}
	if err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	counts := classificationCounts(records)
	logger.Info("comparison complete",
		"same", counts[diffpol.Same],
		"different", counts[diffpol.Different],
		"only_in_reference", counts[diffpol.OnlyInReference],
		"only_in_comparison", counts[diffpol.OnlyInComparison],
	)
	return nil
}

// classificationCounts tallies report rows per classification.
func classificationCounts(records []diffpol.Record) map[diffpol.Classification]int {
	counts := make(map[diffpol.Classification]int, 4)
	for _, rec := range records {
		counts[rec.Classification]++
	}
	return counts
}

// resolveReference loads the reference policy from the snapshot store, an
// explicit file, or the configured baseline, in that precedence order.
func resolveReference(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*rules.Policy, error) {
	if diffFlags.snapshotID != "" {
		store, err := snapshot.Open(cfg.Snapshot.DBPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		var snap *snapshot.Snapshot
		if diffFlags.snapshotID == "latest" {
			snap, err = store.Latest(ctx, cfg.Synthesis.PolicyName)
		} else {
			snap, err = store.Load(ctx, diffFlags.snapshotID)
		}
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, fmt.Errorf("snapshot %q not found", diffFlags.snapshotID)
		}
		return snap.Policy, nil
	}

	if diffFlags.reference != "" {
		return render.ParseAppLockerFile(diffFlags.reference)
	}

	switch cfg.Baseline.Source {
	case "git":
		return gitBaseline(ctx, cfg, logger)
	default:
		if cfg.Baseline.FilePath == "" {
			return nil, fmt.Errorf("no reference policy: pass --reference or --snapshot, or configure a baseline")
		}
		return render.ParseAppLockerFile(cfg.Baseline.FilePath)
	}
}

// gitBaseline syncs the baseline repository and picks the reference policy
// out of it.
func gitBaseline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*rules.Policy, error) {
	src, err := gitsource.NewSource(&cfg.Baseline.Git)
	if err != nil {
		return nil, err
	}
	if err := src.Clone(ctx); err != nil {
		return nil, err
	}
	if _, err := src.Pull(ctx); err != nil {
		logger.Warn("baseline pull failed, using local clone", "error", err)
	}

	files, err := src.ListPolicyFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("baseline repository has no policy files under %q", src.PolicyPath())
	}
	if diffFlags.baselineFile == "" {
		if len(files) == 1 {
			return render.ParseAppLockerFile(files[0])
		}
		return nil, fmt.Errorf("baseline repository has %d policy files, pick one with --baseline-file", len(files))
	}
	for _, f := range files {
		if strings.EqualFold(filepath.Base(f), diffFlags.baselineFile) {
			return render.ParseAppLockerFile(f)
		}
	}
	return nil, fmt.Errorf("policy %q not found in baseline repository", diffFlags.baselineFile)
}

// writeTextReport prints one glyph-prefixed line per record, with changed
// details indented underneath.
func writeTextReport(records []diffpol.Record, w io.Writer) error {
	for _, rec := range records {
		if _, err := fmt.Fprintf(w, "%s %s\n", rec.Classification.Glyph(), rec.Key); err != nil {
			return err
		}
		if rec.Classification != diffpol.Different {
			continue
		}
		for _, side := range []struct{ label, detail string }{
			{"reference", rec.ReferenceDetail},
			{"comparison", rec.ComparisonDetail},
		} {
			detail := strings.ReplaceAll(side.detail, "\n", "\n      ")
			if _, err := fmt.Fprintf(w, "    %s: %s\n", side.label, detail); err != nil {
				return err
			}
		}
	}
	return nil
}
