package stats

import "timereport/internal/domain"

// Filter keeps the records whose timestamp lies inside w, preserving order.
// Records with an unparsed (zero) timestamp never match.
func Filter(records []domain.RawRecord, w domain.TimeWindow) []domain.RawRecord {
	out := make([]domain.RawRecord, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Timestamp) {
			out = append(out, r)
		}
	}
	return out
}
