package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"acuity-hq/palisade/pkg/rules"

	_ "modernc.org/sqlite" // SQLite driver
)

// Snapshot is one persisted policy with its storage metadata.
type Snapshot struct {
	// ID is the snapshot identifier. Empty until Save stamps one.
	ID string

	// Name is the policy name the snapshot was saved under. Latest-snapshot
	// lookup is scoped by name.
	Name string

	// Label is an optional free-form tag, e.g. "pre-rollout" or a git ref.
	Label string

	// RuleCount is the total rule count at save time.
	RuleCount int

	// CreatedAt is when the snapshot was saved.
	CreatedAt time.Time

	// Policy is the stored policy. Nil in List results, which carry
	// metadata only.
	Policy *rules.Policy
}

// Store persists policy snapshots in SQLite.
//
// The store uses a write-ahead log (WAL) for better concurrent performance
// and periodic checkpointing to balance write performance with durability.
type Store struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	// prepared statements, compiled once at open
	saveStmt   *sql.Stmt
	loadStmt   *sql.Stmt
	latestStmt *sql.Stmt
	listStmt   *sql.Stmt
	deleteStmt *sql.Stmt
	countStmt  *sql.Stmt
	ageStmt    *sql.Stmt
	oldestStmt *sql.Stmt
}

// StoreConfig configures the snapshot store.
type StoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Open opens a snapshot store with default settings.
func Open(dbPath string) (*Store, error) {
	return OpenWithConfig(StoreConfig{DBPath: dbPath})
}

// OpenWithConfig opens a snapshot store with custom configuration.
func OpenWithConfig(cfg StoreConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	_, err := s.db.Exec(InsertSchemaVersion, SchemaVersion)
	return err
}

func (s *Store) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO snapshots (id, name, label, rule_count, created_at, policy)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT id, name, label, rule_count, created_at, policy
		FROM snapshots
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.latestStmt, err = s.db.Prepare(`
		SELECT id, name, label, rule_count, created_at, policy
		FROM snapshots
		WHERE name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare latest statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, name, label, rule_count, created_at
		FROM snapshots
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM snapshots
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.countStmt, err = s.db.Prepare(`
		SELECT COUNT(*) FROM snapshots
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	s.ageStmt, err = s.db.Prepare(`
		DELETE FROM snapshots
		WHERE created_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare age cleanup statement: %w", err)
	}

	s.oldestStmt, err = s.db.Prepare(`
		SELECT id FROM snapshots
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare oldest statement: %w", err)
	}

	return nil
}

// Save persists a snapshot. An empty ID is stamped with a fresh UUID and a
// zero CreatedAt with the current time; both are written back to snap.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if snap.Policy == nil {
		return fmt.Errorf("snapshot policy cannot be nil")
	}
	if snap.Name == "" {
		snap.Name = snap.Policy.Name
	}
	if snap.Name == "" {
		return fmt.Errorf("snapshot name cannot be empty")
	}
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	snap.RuleCount = snap.Policy.RuleCount()

	policyJSON, err := marshalPolicy(snap.Policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.saveStmt.ExecContext(ctx,
		snap.ID,
		snap.Name,
		snap.Label,
		snap.RuleCount,
		snap.CreatedAt.Unix(),
		string(policyJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// Load retrieves one snapshot by ID, including its policy.
// Returns nil without error when no snapshot has that ID.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanSnapshot(s.loadStmt.QueryRowContext(ctx, id))
}

// Latest retrieves the most recent snapshot saved under the given policy
// name, including its policy. Returns nil without error when none exists.
func (s *Store) Latest(ctx context.Context, name string) (*Snapshot, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return scanSnapshot(s.latestStmt.QueryRowContext(ctx, name))
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var (
		snap       Snapshot
		createdAt  int64
		policyJSON string
	)

	err := row.Scan(&snap.ID, &snap.Name, &snap.Label, &snap.RuleCount, &createdAt, &policyJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap.CreatedAt = time.Unix(createdAt, 0)
	snap.Policy, err = unmarshalPolicy([]byte(policyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy for snapshot %s: %w", snap.ID, err)
	}

	return &snap, nil
}

// List returns snapshot metadata for every stored snapshot, newest first.
// Policies are not loaded; use Load for the full snapshot.
func (s *Store) List(ctx context.Context) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		var (
			snap      Snapshot
			createdAt int64
		)
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.Label, &snap.RuleCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		snap.CreatedAt = time.Unix(createdAt, 0)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return snaps, nil
}

// Delete removes one snapshot by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.deleteStmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}

// Count returns the total number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	if err := s.countStmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// DeleteBefore removes snapshots created before the cutoff and returns how
// many were deleted.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.ageStmt.ExecContext(ctx, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// OldestIDs returns the IDs of the n oldest snapshots, oldest first.
func (s *Store) OldestIDs(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.oldestStmt.QueryContext(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query oldest snapshots: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

// Close releases the store's resources.
// Close is idempotent and safe to call multiple times.
func (s *Store) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{
			s.saveStmt, s.loadStmt, s.latestStmt, s.listStmt,
			s.deleteStmt, s.countStmt, s.ageStmt, s.oldestStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			// Run final checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *Store) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
