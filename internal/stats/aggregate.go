package stats

import "timereport/internal/domain"

// Aggregate groups records by their bracketed category using the default markers.
func Aggregate(records []domain.RawRecord) domain.Aggregate {
	return Extractor{}.Aggregate(records)
}

// Aggregate counts records and sums their hours per category. Records without
// a category are dropped.
func (e Extractor) Aggregate(records []domain.RawRecord) domain.Aggregate {
	out := make(domain.Aggregate)
	for _, r := range records {
		cat, ok := e.Extract(r.Title)
		if !ok {
			continue
		}
		s := out[cat]
		s.Count++
		s.Hours += Normalize(r.Duration)
		out[cat] = s
	}
	return out
}
