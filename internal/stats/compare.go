package stats

import (
	"math"
	"sort"

	"timereport/internal/domain"
)

// Compare merges the current and baseline aggregates into one row per
// category seen on either side. A category missing on one side counts as zero
// there. Rows are ordered by current hours descending, then category name.
func Compare(current, baseline domain.Aggregate) []domain.ComparisonRow {
	seen := make(map[domain.Category]struct{}, len(current)+len(baseline))
	for c := range current {
		seen[c] = struct{}{}
	}
	for c := range baseline {
		seen[c] = struct{}{}
	}

	total := current.TotalHours()
	rows := make([]domain.ComparisonRow, 0, len(seen))
	for c := range seen {
		cur := current[c]
		prev := baseline[c]
		rows = append(rows, domain.ComparisonRow{
			Category:      c,
			CurrentCount:  cur.Count,
			CurrentHours:  cur.Hours,
			PreviousCount: prev.Count,
			PreviousHours: prev.Hours,
			DiffCount:     cur.Count - prev.Count,
			DiffHours:     cur.Hours - prev.Hours,
			Ratio:         compositionRatio(cur.Hours, total),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CurrentHours != rows[j].CurrentHours {
			return rows[i].CurrentHours > rows[j].CurrentHours
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

func compositionRatio(part, total domain.Hours) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// Totals sums the comparison rows into a single row with an empty category.
func Totals(rows []domain.ComparisonRow) domain.ComparisonRow {
	var t domain.ComparisonRow
	for _, r := range rows {
		t.CurrentCount += r.CurrentCount
		t.CurrentHours += r.CurrentHours
		t.PreviousCount += r.PreviousCount
		t.PreviousHours += r.PreviousHours
	}
	t.DiffCount = t.CurrentCount - t.PreviousCount
	t.DiffHours = t.CurrentHours - t.PreviousHours
	if t.CurrentHours > 0 {
		t.Ratio = 100
	}
	return t
}
