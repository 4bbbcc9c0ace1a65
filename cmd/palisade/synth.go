package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"acuity-hq/palisade/pkg/assemble"
	"acuity-hq/palisade/pkg/config"
	"acuity-hq/palisade/pkg/render"
	"acuity-hq/palisade/pkg/rules"
	"acuity-hq/palisade/pkg/scan"
	"acuity-hq/palisade/pkg/snapshot"
	"acuity-hq/palisade/pkg/synth"
	"acuity-hq/palisade/pkg/telemetry/metrics"
)

var synthFlags struct {
	inventory   string
	exclusions  string
	granularity string
	principal   string
	name        string
	format      string
	mode        string
	output      string
	save        bool
	label       string
	watch       bool
}

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize a policy from a scan inventory",
	Long: `Synth reads a scan inventory, generates publisher rules for signed
files and hash rules for unsigned ones, merges in path rules from the
exclusion list, and renders the assembled policy.

With --watch the pipeline re-runs whenever the inventory or exclusion
list changes, and the Prometheus endpoint is served if metrics are
enabled.`,
	RunE: runSynth,
}

func init() {
	synthCmd.Flags().StringVar(&synthFlags.inventory, "inventory", "", "scan inventory CSV (default: configured path)")
	synthCmd.Flags().StringVar(&synthFlags.exclusions, "exclusions", "", "path-exclusion list (default: configured path)")
	synthCmd.Flags().StringVar(&synthFlags.granularity, "granularity", "", "publisher rule granularity (default: configured)")
	synthCmd.Flags().StringVar(&synthFlags.principal, "principal", "", "security identifier rules apply to (default: configured)")
	synthCmd.Flags().StringVar(&synthFlags.name, "name", "", "policy name (default: configured)")
	synthCmd.Flags().StringVar(&synthFlags.format, "format", "applocker", "output format: applocker or sipolicy")
	synthCmd.Flags().StringVar(&synthFlags.mode, "mode", "audit", "artifact to emit: audit or enforce")
	synthCmd.Flags().StringVarP(&synthFlags.output, "output", "o", "", "policy destination (default: stdout)")
	synthCmd.Flags().BoolVar(&synthFlags.save, "save", false, "store the emitted artifact as a snapshot")
	synthCmd.Flags().StringVar(&synthFlags.label, "label", "", "label for the stored snapshot")
	synthCmd.Flags().BoolVar(&synthFlags.watch, "watch", false, "re-run on scan input changes")
	rootCmd.AddCommand(synthCmd)
}

func runSynth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	inventory := synthFlags.inventory
	if inventory == "" {
		inventory = cfg.Scan.InventoryPath
	}
	exclusions := synthFlags.exclusions
	if exclusions == "" {
		exclusions = cfg.Scan.ExclusionsPath
	}
	granStr := synthFlags.granularity
	if granStr == "" {
		granStr = cfg.Synthesis.Granularity
	}
	gran, err := synth.ParseGranularity(granStr)
	if err != nil {
		return err
	}
	principal := synthFlags.principal
	if principal == "" {
		principal = cfg.Synthesis.Principal
	}
	name := synthFlags.name
	if name == "" {
		name = cfg.Synthesis.PolicyName
	}
	if synthFlags.mode != "audit" && synthFlags.mode != "enforce" {
		return fmt.Errorf("unknown mode %q (want audit or enforce)", synthFlags.mode)
	}
	renderer, err := rendererFor(synthFlags.format)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	var store *snapshot.Store
	if synthFlags.save {
		if !cfg.Snapshot.Enabled {
			return fmt.Errorf("--save requires snapshot.enabled in the configuration")
		}
		store, err = snapshot.Open(cfg.Snapshot.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	p := &synthPipeline{
		cfg:        cfg,
		logger:     logger,
		collector:  collector,
		store:      store,
		renderer:   renderer,
		inventory:  inventory,
		exclusions: exclusions,
		opts:       synth.Options{Granularity: gran, Principal: principal},
		name:       name,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !synthFlags.watch {
		return p.run(ctx)
	}
	return p.watch(ctx)
}

// synthPipeline is one resolved synthesis configuration, re-runnable in
// watch mode.
type synthPipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	collector  *metrics.Collector
	store      *snapshot.Store
	renderer   render.Renderer
	inventory  string
	exclusions string
	opts       synth.Options
	name       string
}

func (p *synthPipeline) run(ctx context.Context) error {
	start := time.Now()

	records, err := scan.ReadInventoryFile(p.inventory)
	if err != nil {
		return err
	}

	result := synth.NewSynthesizer(p.opts, p.logger).Synthesize(records)
	p.collector.RecordRules(rules.RuleTypePublisher, len(result.PublisherRules))
	p.collector.RecordRules(rules.RuleTypeHash, len(result.HashRules))

	fragments := []assemble.Fragment{
		{Name: "inventory", Rules: result.Rules()},
	}
	if p.exclusions != "" {
		if _, err := os.Stat(p.exclusions); err == nil {
			excl, err := scan.LoadExclusions(p.exclusions)
			if err != nil {
				return err
			}
			pathRules := synth.PathRules(excl, p.opts.Principal)
			frag := assemble.Fragment{Name: "writable-exclusions"}
			for _, pr := range pathRules {
				frag.Rules = append(frag.Rules, pr)
			}
			p.collector.RecordRules(rules.RuleTypePath, len(pathRules))
			fragments = append(fragments, frag)
		} else {
			p.logger.Warn("exclusion list not found, skipping path rules", "path", p.exclusions)
		}
	}

	out := assemble.New(p.logger).Assemble(rules.NewPolicy(p.name), fragments...)

	diags := result.Diagnostics
	diags.Merge(&out.Diagnostics)
	reportDiagnostics(p.logger, &diags)
	p.collector.RecordDiagnostics(&diags)
	p.collector.ObserveSynthesisDuration(time.Since(start))

	artifact := out.Audit
	if synthFlags.mode == "enforce" {
		artifact = out.Enforce
	}

	w, closeOut, err := openOutput(synthFlags.output)
	if err != nil {
		return err
	}
	if err := p.renderer.Render(artifact, w); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	if p.store != nil {
		snap := &snapshot.Snapshot{Name: p.name, Label: synthFlags.label, Policy: artifact}
		if err := p.store.Save(ctx, snap); err != nil {
			return err
		}
		p.collector.RecordSnapshotSaved(snap.CreatedAt)
		if count, err := p.store.Count(ctx); err == nil {
			p.collector.SetSnapshotsStored(count)
		}
		p.logger.Info("snapshot saved", "id", snap.ID, "rules", snap.RuleCount)
	}

	p.logger.Info("synthesis complete",
		"records", len(records),
		"publisher_rules", len(result.PublisherRules),
		"hash_rules", len(result.HashRules),
		"diagnostics", diags.Count(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// watch re-runs the pipeline on inventory or exclusion list changes until
// the context is cancelled.
func (p *synthPipeline) watch(ctx context.Context) error {
	if err := p.run(ctx); err != nil {
		return err
	}

	if p.store != nil {
		pruner := newRetentionPruner(p.cfg, p.store)
		if err := pruner.Start(ctx); err != nil {
			return err
		}
		defer pruner.Stop()
		if next := pruner.NextPruning(); next != nil {
			p.logger.Info("snapshot pruning scheduled", "next_run", next.Format(time.RFC3339))
		}
	}

	if p.cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(p.cfg.Telemetry.Metrics.Path, p.collector.Handler())
		server := &http.Server{Addr: p.cfg.Telemetry.Metrics.ListenAddress, Handler: mux}
		go func() {
			p.logger.Info("metrics server listening",
				"address", p.cfg.Telemetry.Metrics.ListenAddress,
				"path", p.cfg.Telemetry.Metrics.Path,
			)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				p.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	paths := []string{p.inventory}
	if p.exclusions != "" {
		if _, err := os.Stat(p.exclusions); err == nil {
			paths = append(paths, p.exclusions)
		}
	}
	watcher, err := scan.NewWatcher(&scan.WatcherConfig{
		Paths:            paths,
		DebounceInterval: p.cfg.Scan.Watch.Debounce,
	}, p.logger)
	if err != nil {
		return err
	}

	return watcher.Watch(ctx, func() error {
		return p.run(ctx)
	})
}

// reportDiagnostics logs each accumulated diagnostic at warn level.
func reportDiagnostics(logger *slog.Logger, diags *rules.Diagnostics) {
	for _, d := range diags.Items {
		logger.Warn("synthesis diagnostic",
			"code", string(d.Code),
			"source", d.Source,
			"message", d.Message,
		)
	}
}
