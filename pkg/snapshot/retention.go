package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetentionConfig controls snapshot pruning.
type RetentionConfig struct {
	// RetentionDays is the number of days to keep snapshots.
	// 0 means keep snapshots forever (no age-based pruning).
	RetentionDays int

	// MaxSnapshots is the maximum number of snapshots to keep.
	// 0 means unlimited.
	MaxSnapshots int64

	// PruneSchedule is a cron expression for scheduled pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables scheduling.
	PruneSchedule string
}

// DefaultRetentionConfig returns the default retention configuration.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: 90,
		MaxSnapshots:  0,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention policy on the snapshot store.
type Pruner struct {
	store     *Store
	config    *RetentionConfig
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner for the given store.
func NewPruner(store *Store, config *RetentionConfig) *Pruner {
	if config == nil {
		config = DefaultRetentionConfig()
	}

	pruner := &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "snapshot.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune deletes snapshots older than the retention period, then deletes the
// oldest snapshots beyond the max count. Returns the total deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.store.DeleteBefore(ctx, cutoff)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Info("pruned snapshots by age",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}

	if p.config.MaxSnapshots > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Info("pruned snapshots by count",
			"deleted_count", deleted,
			"max_snapshots", p.config.MaxSnapshots,
		)
	}

	if totalDeleted == 0 {
		p.logger.Debug("no snapshots pruned",
			"retention_days", p.config.RetentionDays,
			"max_snapshots", p.config.MaxSnapshots,
		)
	}

	return totalDeleted, nil
}

// pruneByCount deletes the oldest snapshots while the total exceeds the limit.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	if count <= p.config.MaxSnapshots {
		return 0, nil
	}

	ids, err := p.store.OldestIDs(ctx, count-p.config.MaxSnapshots)
	if err != nil {
		return 0, fmt.Errorf("failed to find oldest snapshots: %w", err)
	}

	var deleted int64
	for _, id := range ids {
		if err := p.store.Delete(ctx, id); err != nil {
			return deleted, fmt.Errorf("failed to delete snapshot %s: %w", id, err)
		}
		deleted++
	}

	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
