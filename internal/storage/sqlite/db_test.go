package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"timereport/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "timereport-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInitDBAddsDryRunColumn(t *testing.T) {
	db := newTestDB(t)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('report_runs') WHERE name = 'dry_run'`).Scan(&count); err != nil {
		t.Fatalf("query pragma_table_info failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected dry_run column to exist, count=%d", count)
	}
}

func TestActivityLogRoundTrip(t *testing.T) {
	db := newTestDB(t)
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	at := time.Date(2026, 10, 14, 9, 0, 0, 0, loc)

	records := []domain.RawRecord{
		{Title: "【Work】report", Duration: domain.TimeOfDay(25, 30, 0), Timestamp: at, Source: "sheet"},
		{Title: "【Rest】walk", Duration: domain.FractionalDay(0.0625), Timestamp: at.Add(time.Hour)},
		{Title: "no time", Duration: domain.RawDuration{}},
	}
	n, err := ImportRecords(db, records)
	if err != nil {
		t.Fatalf("ImportRecords failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 inserted, got %d", n)
	}

	got, err := ActivityLogReader{DB: db, Location: loc}.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Duration != domain.TimeOfDay(25, 30, 0) {
		t.Fatalf("clock duration not preserved: %+v", got[0].Duration)
	}
	if !got[0].Timestamp.Equal(at) || got[0].Timestamp.Location() != loc {
		t.Fatalf("timestamp not preserved: %v", got[0].Timestamp)
	}
	if got[0].Source != "sheet" || got[1].Source != "import" {
		t.Fatalf("unexpected sources: %q %q", got[0].Source, got[1].Source)
	}
	if got[1].Duration != domain.FractionalDay(0.0625) {
		t.Fatalf("fraction duration not preserved: %+v", got[1].Duration)
	}
	if !got[2].Timestamp.IsZero() || got[2].Duration.Kind != domain.DurationUnknown {
		t.Fatalf("expected zero timestamp and unknown duration, got %+v", got[2])
	}
}

func TestReportRunLifecycle(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	window := domain.TimeWindow{Start: base, End: base.Add(7*24*time.Hour - time.Millisecond)}

	first := Run{ID: "run-1", Kind: "weekly", Window: window, StartedAt: base.Add(time.Hour)}
	second := Run{ID: "run-2", Kind: "daily", Window: window, DryRun: true, StartedAt: base.Add(2 * time.Hour)}
	for _, r := range []Run{first, second} {
		if err := InsertRun(db, r); err != nil {
			t.Fatalf("InsertRun failed: %v", err)
		}
	}

	first.Status = RunSucceeded
	first.RecordCount = 12
	first.CategoryCount = 3
	first.TotalHours = 7*domain.Hour + domain.Hour/2
	first.FinishedAt = base.Add(time.Hour + time.Minute)
	if err := FinishRun(db, first); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := ListRuns(db, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[0].Status != RunRunning || !runs[0].DryRun {
		t.Fatalf("unexpected newest run: %+v", runs[0])
	}
	if !runs[0].FinishedAt.IsZero() {
		t.Fatalf("unfinished run should have zero FinishedAt")
	}
	done := runs[1]
	if done.Status != RunSucceeded || done.RecordCount != 12 || done.CategoryCount != 3 {
		t.Fatalf("unexpected finished run: %+v", done)
	}
	if done.TotalHours != 7*domain.Hour+domain.Hour/2 {
		t.Fatalf("unexpected total hours: %v", done.TotalHours)
	}
	if !done.Window.Start.Equal(window.Start) {
		t.Fatalf("window start not preserved: %v", done.Window.Start)
	}

	limited, err := ListRuns(db, 1)
	if err != nil {
		t.Fatalf("ListRuns limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestFinishRunUnknownID(t *testing.T) {
	db := newTestDB(t)
	err := FinishRun(db, Run{ID: "missing", Status: RunFailed, FinishedAt: time.Now()})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
