package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"timereport/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS activity_log (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		title             TEXT NOT NULL,
		duration_kind     TEXT NOT NULL DEFAULT '',
		duration_seconds  INTEGER NOT NULL DEFAULT 0,
		duration_fraction REAL NOT NULL DEFAULT 0,
		recorded_at       DATETIME,
		source            TEXT NOT NULL DEFAULT 'import',
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_activity_log_recorded_at ON activity_log(recorded_at);

	CREATE TABLE IF NOT EXISTS report_runs (
		id             TEXT PRIMARY KEY,
		kind           TEXT NOT NULL,
		window_start   DATETIME NOT NULL,
		window_end     DATETIME NOT NULL,
		status         TEXT NOT NULL DEFAULT 'running',
		record_count   INTEGER NOT NULL DEFAULT 0,
		category_count INTEGER NOT NULL DEFAULT 0,
		total_hours    REAL NOT NULL DEFAULT 0,
		error          TEXT DEFAULT '',
		started_at     DATETIME NOT NULL,
		finished_at    DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_report_runs_started_at ON report_runs(started_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	// Migration: add dry_run column if missing.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('report_runs') WHERE name = 'dry_run'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE report_runs ADD COLUMN dry_run INTEGER NOT NULL DEFAULT 0`)
	}

	return db, nil
}

const (
	durationKindClock    = "clock"
	durationKindFraction = "fraction"
)

func encodeDuration(d domain.RawDuration) (kind string, seconds int64, fraction float64) {
	switch d.Kind {
	case domain.DurationTimeOfDay:
		return durationKindClock, int64(d.Hour)*3600 + int64(d.Minute)*60 + int64(d.Second), 0
	case domain.DurationFractionalDay:
		return durationKindFraction, 0, d.Fraction
	default:
		return "", 0, 0
	}
}

func decodeDuration(kind string, seconds int64, fraction float64) domain.RawDuration {
	switch kind {
	case durationKindClock:
		return domain.Elapsed(time.Duration(seconds) * time.Second)
	case durationKindFraction:
		return domain.FractionalDay(fraction)
	default:
		return domain.RawDuration{}
	}
}

// ImportRecords appends records to the activity log in one transaction.
func ImportRecords(db *sql.DB, records []domain.RawRecord) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO activity_log (title, duration_kind, duration_seconds, duration_fraction, recorded_at, source)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		kind, secs, frac := encodeDuration(r.Duration)
		var recordedAt any
		if !r.Timestamp.IsZero() {
			recordedAt = r.Timestamp.UTC()
		}
		src := r.Source
		if src == "" {
			src = "import"
		}
		if _, err := stmt.Exec(r.Title, kind, secs, frac, recordedAt, src); err != nil {
			return inserted, err
		}
		inserted++
	}

	return inserted, tx.Commit()
}

// ActivityLogReader serves the activity_log table as a record source.
type ActivityLogReader struct {
	DB       *sql.DB
	Location *time.Location
}

func (r ActivityLogReader) ReadAll(ctx context.Context) ([]domain.RawRecord, error) {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT title, duration_kind, duration_seconds, duration_fraction, recorded_at, source
		 FROM activity_log ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity_log: %w", err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var (
			rec        domain.RawRecord
			kind       string
			secs       int64
			frac       float64
			recordedAt sql.NullTime
		)
		if err := rows.Scan(&rec.Title, &kind, &secs, &frac, &recordedAt, &rec.Source); err != nil {
			return nil, fmt.Errorf("scan activity_log: %w", err)
		}
		rec.Duration = decodeDuration(kind, secs, frac)
		if recordedAt.Valid {
			rec.Timestamp = recordedAt.Time.In(loc)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one row of report_runs.
type Run struct {
	ID            string
	Kind          string
	Window        domain.TimeWindow
	Status        RunStatus
	DryRun        bool
	RecordCount   int
	CategoryCount int
	TotalHours    domain.Hours
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

func InsertRun(db *sql.DB, run Run) error {
	status := run.Status
	if status == "" {
		status = RunRunning
	}
	_, err := db.Exec(
		`INSERT INTO report_runs (id, kind, window_start, window_end, status, dry_run, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Window.Start.UTC(), run.Window.End.UTC(), string(status), run.DryRun, run.StartedAt.UTC(),
	)
	return err
}

// FinishRun records the outcome of a run started with InsertRun.
func FinishRun(db *sql.DB, run Run) error {
	res, err := db.Exec(
		`UPDATE report_runs
		 SET status = ?, record_count = ?, category_count = ?, total_hours = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		string(run.Status), run.RecordCount, run.CategoryCount, run.TotalHours.Float(), run.Error, run.FinishedAt.UTC(), run.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("report run %s: %w", run.ID, sql.ErrNoRows)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, kind, window_start, window_end, status, dry_run, record_count, category_count,
		        total_hours, COALESCE(error, ''), started_at, finished_at
		 FROM report_runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			status   string
			hours    float64
			finished sql.NullTime
		)
		err := rows.Scan(
			&run.ID, &run.Kind, &run.Window.Start, &run.Window.End, &status, &run.DryRun,
			&run.RecordCount, &run.CategoryCount, &hours, &run.Error, &run.StartedAt, &finished,
		)
		if err != nil {
			return nil, err
		}
		run.Status = RunStatus(status)
		run.TotalHours = domain.HoursFromFloat(hours)
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
