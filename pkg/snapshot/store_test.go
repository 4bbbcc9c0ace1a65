package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"acuity-hq/palisade/pkg/rules"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testPolicy(t *testing.T, name string) *rules.Policy {
	t.Helper()

	minV, err := rules.ParseVersion("10.0.19041.0")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}

	p := rules.NewPolicy(name)
	exe := p.Collection(rules.CollectionExe)
	exe.Mode = rules.ModeAuditOnly
	exe.Rules = append(exe.Rules,
		&rules.PublisherRule{
			Properties: rules.Properties{
				ID:          "11111111-1111-1111-1111-111111111111",
				Name:        "CONTOSO APP",
				Description: `c:\program files\contoso\app.exe`,
				Principal:   "S-1-1-0",
				Action:      rules.ActionAllow,
				Collections: []rules.CollectionType{rules.CollectionExe},
			},
			Publisher:  "O=CONTOSO, L=REDMOND, S=WASHINGTON, C=US",
			Product:    "CONTOSO SUITE",
			Binary:     "APP.EXE",
			MinVersion: minV,
			MaxVersion: rules.WildcardVersion,
		},
		&rules.HashRule{
			Properties: rules.Properties{
				ID:          "22222222-2222-2222-2222-222222222222",
				Name:        "tool.exe",
				Principal:   "S-1-1-0",
				Action:      rules.ActionAllow,
				Collections: []rules.CollectionType{rules.CollectionExe},
			},
			SourceFile: "tool.exe",
			Hash:       "0xABCDEF",
			Length:     4096,
		},
	)

	script := p.Collection(rules.CollectionScript)
	script.Rules = append(script.Rules, &rules.PathRule{
		Properties: rules.Properties{
			ID:          "33333333-3333-3333-3333-333333333333",
			Name:        "All Windows files",
			Principal:   "S-1-1-0",
			Action:      rules.ActionAllow,
			Collections: []rules.CollectionType{rules.CollectionScript},
		},
		Path:       `%WINDIR%\*`,
		Exceptions: []string{`%WINDIR%\temp\*`, `%WINDIR%\tasks\*`},
	})

	return p
}

// TestSaveLoadRoundTrip tests that all three rule variants survive storage.
func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snap := &Snapshot{Label: "baseline", Policy: testPolicy(t, "workstation")}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("Save did not stamp an ID")
	}
	if snap.Name != "workstation" {
		t.Errorf("name = %q, want policy name", snap.Name)
	}
	if snap.RuleCount != 3 {
		t.Errorf("rule count = %d, want 3", snap.RuleCount)
	}

	loaded, err := store.Load(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for saved snapshot")
	}
	if loaded.Label != "baseline" {
		t.Errorf("label = %q", loaded.Label)
	}
	if loaded.Policy.RuleCount() != 3 {
		t.Fatalf("loaded rule count = %d, want 3", loaded.Policy.RuleCount())
	}

	exe := loaded.Policy.Collection(rules.CollectionExe)
	if exe.Mode != rules.ModeAuditOnly {
		t.Errorf("exe mode = %q, want AuditOnly", exe.Mode)
	}

	pub, ok := exe.Rules[0].(*rules.PublisherRule)
	if !ok {
		t.Fatalf("first exe rule is %T, want *PublisherRule", exe.Rules[0])
	}
	if pub.Binary != "APP.EXE" || pub.MinVersion.String() != "10.0.19041.0" || !pub.MaxVersion.Wildcard {
		t.Errorf("publisher rule mangled: %s", pub.Detail())
	}

	hash, ok := exe.Rules[1].(*rules.HashRule)
	if !ok {
		t.Fatalf("second exe rule is %T, want *HashRule", exe.Rules[1])
	}
	if hash.Hash != "0xABCDEF" || hash.Length != 4096 {
		t.Errorf("hash rule mangled: %s length=%d", hash.Detail(), hash.Length)
	}

	path, ok := loaded.Policy.Collection(rules.CollectionScript).Rules[0].(*rules.PathRule)
	if !ok {
		t.Fatal("script rule is not a *PathRule")
	}
	if len(path.Exceptions) != 2 {
		t.Errorf("path exceptions = %v", path.Exceptions)
	}
}

// TestLoadMissing tests that a missing ID returns nil, nil.
func TestLoadMissing(t *testing.T) {
	store := openTestStore(t)

	snap, err := store.Load(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap != nil {
		t.Errorf("got %+v, want nil", snap)
	}
}

// TestLatest tests latest-snapshot lookup scoped by policy name.
func TestLatest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"first", "second", "third"} {
		snap := &Snapshot{
			Label:     label,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Policy:    testPolicy(t, "workstation"),
		}
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save %s: %v", label, err)
		}
	}
	other := &Snapshot{Label: "other", Policy: testPolicy(t, "server")}
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("Save other: %v", err)
	}

	latest, err := store.Latest(ctx, "workstation")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.Label != "third" {
		t.Fatalf("latest = %+v, want label third", latest)
	}

	none, err := store.Latest(ctx, "laptop")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if none != nil {
		t.Errorf("got %+v for unknown name, want nil", none)
	}
}

// TestListAndDelete tests metadata listing order and deletion.
func TestListAndDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		snap := &Snapshot{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Policy:    testPolicy(t, "workstation"),
		}
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, snap.ID)
	}

	snaps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	if snaps[0].ID != ids[2] || snaps[2].ID != ids[0] {
		t.Error("list is not newest-first")
	}
	if snaps[0].Policy != nil {
		t.Error("List loaded full policies, want metadata only")
	}

	if err := store.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("count after delete = %d, want 2", count)
	}
}

// TestPrunerByAge tests age-based pruning against backdated snapshots.
func TestPrunerByAge(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := &Snapshot{
		CreatedAt: time.Now().AddDate(0, 0, -120),
		Policy:    testPolicy(t, "workstation"),
	}
	fresh := &Snapshot{Policy: testPolicy(t, "workstation")}
	for _, snap := range []*Snapshot{old, fresh} {
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	pruner := NewPruner(store, &RetentionConfig{RetentionDays: 90})
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	if snap, _ := store.Load(ctx, old.ID); snap != nil {
		t.Error("old snapshot survived age-based pruning")
	}
	if snap, _ := store.Load(ctx, fresh.ID); snap == nil {
		t.Error("fresh snapshot was pruned")
	}
}

// TestPrunerByCount tests that count-based pruning keeps the newest snapshots.
func TestPrunerByCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		snap := &Snapshot{
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Policy:    testPolicy(t, "workstation"),
		}
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, snap.ID)
	}

	pruner := NewPruner(store, &RetentionConfig{MaxSnapshots: 2})
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted = %d, want 3", deleted)
	}

	snaps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots after prune, want 2", len(snaps))
	}
	if snaps[0].ID != ids[4] || snaps[1].ID != ids[3] {
		t.Error("pruning did not keep the newest snapshots")
	}
}

// TestSchedulerInvalidSchedule tests cron expression validation.
func TestSchedulerInvalidSchedule(t *testing.T) {
	store := openTestStore(t)

	pruner := NewPruner(store, &RetentionConfig{PruneSchedule: "not a cron line"})
	if err := pruner.Start(context.Background()); err == nil {
		t.Fatal("Start accepted an invalid cron expression")
	}
}

// TestSchedulerEmptySchedule tests that an empty schedule is a no-op.
func TestSchedulerEmptySchedule(t *testing.T) {
	store := openTestStore(t)

	pruner := NewPruner(store, &RetentionConfig{RetentionDays: 30})
	pruner.config.PruneSchedule = ""
	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pruner.scheduler.IsRunning() {
		t.Error("scheduler running with empty schedule")
	}
}
