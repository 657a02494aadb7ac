package report

import (
	"time"

	"timereport/internal/domain"
	"timereport/internal/stats"
)

// Result is the computed content of one report.
type Result struct {
	Kind        Kind
	Current     domain.TimeWindow
	Previous    domain.TimeWindow
	RecordCount int // records read before filtering
	Rows        []domain.ComparisonRow
	Totals      domain.ComparisonRow
	Breakdown   stats.Breakdown
}

// Build filters the same record snapshot into both windows and compares them.
func Build(records []domain.RawRecord, kind Kind, ref time.Time, cal Calendar, ex stats.Extractor) Result {
	current, previous := cal.Windows(kind, ref)
	rows := stats.Compare(
		ex.Aggregate(stats.Filter(records, current)),
		ex.Aggregate(stats.Filter(records, previous)),
	)
	return Result{
		Kind:        kind,
		Current:     current,
		Previous:    previous,
		RecordCount: len(records),
		Rows:        rows,
		Totals:      stats.Totals(rows),
		Breakdown:   ex.Breakdown(records, current),
	}
}
