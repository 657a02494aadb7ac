// Package stats turns raw activity records into per-category statistics and
// period-over-period comparisons. Everything in it is pure.
package stats

import (
	"math"

	"timereport/internal/domain"
)

// Normalize converts a raw duration cell into hours. It never fails: unknown
// shapes and negative or non-finite values yield zero.
func Normalize(raw domain.RawDuration) domain.Hours {
	var h float64
	switch raw.Kind {
	case domain.DurationTimeOfDay:
		h = float64(raw.Hour) + float64(raw.Minute)/60 + float64(raw.Second)/3600
	case domain.DurationFractionalDay:
		h = raw.Fraction * 24
	default:
		return 0
	}
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0
	}
	return domain.HoursFromFloat(h)
}
