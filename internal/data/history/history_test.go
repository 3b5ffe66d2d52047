package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Snapshot{
		RunID:           "run-1",
		Timestamp:       base,
		Language:        "go",
		State:           "enabled",
		DocumentCount:   5,
		DependencyCount: 40,
		ViolationCount:  3,
		IssueCount:      3,
	}
	rerun := first
	rerun.ViolationCount = 1
	rerun.IssueCount = 1
	second := Snapshot{
		RunID:           "run-2",
		Timestamp:       base.Add(2 * time.Hour),
		CommitHash:      "abc123",
		CommitTimestamp: base.Add(time.Hour),
		Language:        "go",
		State:           "enabled",
		DocumentCount:   6,
		DependencyCount: 42,
		ViolationCount:  101,
		IssueCount:      101,
		Truncated:       true,
		DurationMS:      1250,
	}

	for _, snap := range []Snapshot{first, rerun, second} {
		if err := store.SaveSnapshot(ctx, "project-a", snap); err != nil {
			t.Fatalf("save snapshot %s: %v", snap.RunID, err)
		}
	}

	got, err := store.LoadSnapshots(ctx, "project-a", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot after since filter, got %d", len(got))
	}
	if !got[0].Truncated || got[0].DurationMS != 1250 || got[0].CommitHash != "abc123" {
		t.Fatalf("expected run-2 fields to roundtrip, got %+v", got[0])
	}
	if !got[0].CommitTimestamp.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected commit timestamp %v", got[0].CommitTimestamp)
	}

	// Saving the same run id again replaces the row.
	all, err := store.LoadSnapshots(ctx, "project-a", time.Time{})
	if err != nil {
		t.Fatalf("load all snapshots: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(all))
	}
	if all[0].ViolationCount != 1 || all[0].ProjectKey != "project-a" {
		t.Fatalf("expected upserted run-1, got %+v", all[0])
	}
}

func TestStore_SaveRequiresRunID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.SaveSnapshot(context.Background(), "p", Snapshot{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	snapshots := []Snapshot{
		{RunID: "a", Timestamp: base, DocumentCount: 4, DependencyCount: 20, ViolationCount: 2},
		{RunID: "b", Timestamp: base.Add(2 * time.Hour), DocumentCount: 6, DependencyCount: 30, ViolationCount: 4},
		{RunID: "c", Timestamp: base.Add(25 * time.Hour), DocumentCount: 6, DependencyCount: 25, ViolationCount: 1},
	}

	report, err := BuildTrendReport(snapshots, 24*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.RunCount != 3 {
		t.Fatalf("expected run_count=3, got %d", report.RunCount)
	}
	if report.Points[1].DeltaDocuments != 2 || report.Points[1].DeltaViolations != 2 {
		t.Fatalf("unexpected deltas for point 1: %+v", report.Points[1])
	}
	if report.Points[2].DeltaDependencies != -5 {
		t.Fatalf("expected delta_dependencies=-5, got %d", report.Points[2].DeltaDependencies)
	}
	if report.Points[1].AvgViolations != 3 {
		t.Fatalf("expected avg_violations=3, got %v", report.Points[1].AvgViolations)
	}
	// run a falls outside the 24h window of run c
	if report.Points[2].AvgViolations != 2.5 {
		t.Fatalf("expected avg_violations=2.5, got %v", report.Points[2].AvgViolations)
	}
}

func TestBuildTrendReport_Empty(t *testing.T) {
	if _, err := BuildTrendReport(nil, time.Hour); err == nil {
		t.Fatal("expected error without snapshots")
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
}

func TestStore_SaveLoadSnapshots_ProjectIsolation(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	if err := store.SaveSnapshot(ctx, "project-a", Snapshot{RunID: "a1", Timestamp: base, DocumentCount: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSnapshot(ctx, "", Snapshot{RunID: "d1", Timestamp: base, DocumentCount: 2}); err != nil {
		t.Fatal(err)
	}

	aRows, err := store.LoadSnapshots(ctx, "project-a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(aRows) != 1 || aRows[0].DocumentCount != 1 {
		t.Fatalf("unexpected project-a rows: %+v", aRows)
	}

	defaultRows, err := store.LoadSnapshots(ctx, "default", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(defaultRows) != 1 || defaultRows[0].DocumentCount != 2 {
		t.Fatalf("unexpected default rows: %+v", defaultRows)
	}
}
