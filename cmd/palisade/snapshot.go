package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"acuity-hq/palisade/pkg/config"
	"acuity-hq/palisade/pkg/render"
	"acuity-hq/palisade/pkg/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage stored policy snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	RunE:  runSnapshotList,
}

var snapshotShowFlags struct {
	format string
	output string
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render a stored snapshot's policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

var snapshotSaveFlags struct {
	policy string
	name   string
	label  string
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store a policy XML file as a snapshot",
	RunE:  runSnapshotSave,
}

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots past the configured retention limits",
	RunE:  runSnapshotPrune,
}

func init() {
	snapshotShowCmd.Flags().StringVar(&snapshotShowFlags.format, "format", "applocker", "output format: applocker or sipolicy")
	snapshotShowCmd.Flags().StringVarP(&snapshotShowFlags.output, "output", "o", "", "policy destination (default: stdout)")
	snapshotSaveCmd.Flags().StringVar(&snapshotSaveFlags.policy, "policy", "", "policy XML file to store (required)")
	snapshotSaveCmd.Flags().StringVar(&snapshotSaveFlags.name, "name", "", "snapshot name (default: configured policy name)")
	snapshotSaveCmd.Flags().StringVar(&snapshotSaveFlags.label, "label", "", "label for the stored snapshot")
	snapshotSaveCmd.MarkFlagRequired("policy")

	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotSaveCmd, snapshotPruneCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// newRetentionPruner builds a pruner from the configured retention limits.
// Used by snapshot prune for one-shot runs and by synth --watch for
// scheduled pruning.
func newRetentionPruner(cfg *config.Config, store *snapshot.Store) *snapshot.Pruner {
	return snapshot.NewPruner(store, &snapshot.RetentionConfig{
		RetentionDays: cfg.Snapshot.Retention.Days,
		MaxSnapshots:  cfg.Snapshot.Retention.MaxSnapshots,
		PruneSchedule: cfg.Snapshot.Retention.Schedule,
	})
}

// openSnapshotStore loads the configuration and opens the snapshot database.
func openSnapshotStore() (*config.Config, *snapshot.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if _, err := setupLogging(cfg); err != nil {
		return nil, nil, err
	}
	store, err := snapshot.Open(cfg.Snapshot.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	_, store, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLABEL\tRULES\tCREATED")
	for _, snap := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			snap.ID, snap.Name, snap.Label, snap.RuleCount,
			snap.CreatedAt.Format(time.RFC3339),
		)
	}
	return w.Flush()
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	_, store, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("snapshot %q not found", args[0])
	}

	renderer, err := rendererFor(snapshotShowFlags.format)
	if err != nil {
		return err
	}
	w, closeOut, err := openOutput(snapshotShowFlags.output)
	if err != nil {
		return err
	}
	if err := renderer.Render(snap.Policy, w); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	cfg, store, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer store.Close()

	policy, err := render.ParseAppLockerFile(snapshotSaveFlags.policy)
	if err != nil {
		return err
	}

	name := snapshotSaveFlags.name
	if name == "" {
		name = cfg.Synthesis.PolicyName
	}
	snap := &snapshot.Snapshot{
		Name:   name,
		Label:  snapshotSaveFlags.label,
		Policy: policy,
	}
	if err := store.Save(cmd.Context(), snap); err != nil {
		return err
	}
	fmt.Printf("%s\n", snap.ID)
	return nil
}

func runSnapshotPrune(cmd *cobra.Command, args []string) error {
	cfg, store, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := newRetentionPruner(cfg, store).Prune(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d snapshots\n", deleted)
	return nil
}
