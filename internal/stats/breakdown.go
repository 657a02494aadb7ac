package stats

import (
	"sort"
	"time"

	"timereport/internal/domain"
)

type DayBucket struct {
	Day   time.Time
	Hours map[domain.Category]domain.Hours
}

// Breakdown is a day-by-category hours matrix for one window.
type Breakdown struct {
	Window domain.TimeWindow
	// Categories ordered by window total descending, then name.
	Categories []domain.Category
	Days       []DayBucket
}

func (b Breakdown) Empty() bool {
	for _, d := range b.Days {
		for _, h := range d.Hours {
			if h > 0 {
				return false
			}
		}
	}
	return true
}

// Breakdown buckets the categorized records of w by calendar day in the
// window's location.
func (e Extractor) Breakdown(records []domain.RawRecord, w domain.TimeWindow) Breakdown {
	days := w.Days()
	out := Breakdown{Window: w, Days: make([]DayBucket, len(days))}
	index := make(map[string]int, len(days))
	for i, d := range days {
		out.Days[i] = DayBucket{Day: d, Hours: make(map[domain.Category]domain.Hours)}
		index[d.Format("2006-01-02")] = i
	}

	totals := make(map[domain.Category]domain.Hours)
	for _, r := range Filter(records, w) {
		cat, ok := e.Extract(r.Title)
		if !ok {
			continue
		}
		i, ok := index[r.Timestamp.In(w.Start.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		h := Normalize(r.Duration)
		out.Days[i].Hours[cat] += h
		totals[cat] += h
	}

	for c := range totals {
		out.Categories = append(out.Categories, c)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		a, b := out.Categories[i], out.Categories[j]
		if totals[a] != totals[b] {
			return totals[a] > totals[b]
		}
		return a < b
	})
	return out
}
