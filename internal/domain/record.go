package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Category is the grouping key parsed out of a record title.
type Category string

type DurationKind int

const (
	DurationUnknown DurationKind = iota
	DurationTimeOfDay
	DurationFractionalDay
)

func (k DurationKind) String() string {
	switch k {
	case DurationTimeOfDay:
		return "time-of-day"
	case DurationFractionalDay:
		return "fractional-day"
	default:
		return "unknown"
	}
}

// RawDuration is the duration cell as the store encodes it: either a clock
// value or a fraction of a 24 hour day. Hour is not bounded to 0-23 so elapsed
// values such as 25:30 survive.
type RawDuration struct {
	Kind     DurationKind
	Hour     int
	Minute   int
	Second   int
	Fraction float64
}

func TimeOfDay(hour, minute, second int) RawDuration {
	return RawDuration{Kind: DurationTimeOfDay, Hour: hour, Minute: minute, Second: second}
}

func FractionalDay(f float64) RawDuration {
	return RawDuration{Kind: DurationFractionalDay, Fraction: f}
}

// Elapsed encodes a wall-clock span as a TimeOfDay value.
func Elapsed(d time.Duration) RawDuration {
	if d <= 0 {
		return TimeOfDay(0, 0, 0)
	}
	secs := int64(d / time.Second)
	return TimeOfDay(int(secs/3600), int(secs%3600/60), int(secs%60))
}

func (d RawDuration) String() string {
	switch d.Kind {
	case DurationTimeOfDay:
		return fmt.Sprintf("%d:%02d:%02d", d.Hour, d.Minute, d.Second)
	case DurationFractionalDay:
		return fmt.Sprintf("%gd", d.Fraction)
	default:
		return "?"
	}
}

type RawRecord struct {
	Title    string
	Duration RawDuration
	// Zero when the source value could not be parsed.
	Timestamp time.Time
	Source    string
}

// Hours is a fixed-point hour quantity in microhours. Sums of Hours are exact,
// so aggregation results do not depend on accumulation order.
type Hours int64

const (
	Microhour Hours = 1
	Hour      Hours = 1_000_000
)

func HoursFromFloat(h float64) Hours {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return Hours(math.Round(h * float64(Hour)))
}

func (h Hours) Float() float64 {
	return float64(h) / float64(Hour)
}

// String renders hours with two decimals, e.g. "3.25".
func (h Hours) String() string {
	return fmt.Sprintf("%.2f", h.Float())
}

// MarshalJSON emits decimal hours so payloads stay readable for people and LLMs.
func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(math.Round(h.Float()*100)/100, 'f', -1, 64)), nil
}

func (h *Hours) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse hours %q: %w", string(data), err)
	}
	*h = HoursFromFloat(f)
	return nil
}

type CategoryStat struct {
	Count int
	Hours Hours
}

// Aggregate holds per-category statistics for one window.
type Aggregate map[Category]CategoryStat

func (a Aggregate) TotalHours() Hours {
	var total Hours
	for _, s := range a {
		total += s.Hours
	}
	return total
}

func (a Aggregate) TotalCount() int {
	total := 0
	for _, s := range a {
		total += s.Count
	}
	return total
}

type ComparisonRow struct {
	Category      Category `json:"category"`
	CurrentCount  int      `json:"current_count"`
	CurrentHours  Hours    `json:"current_hours"`
	PreviousCount int      `json:"previous_count"`
	PreviousHours Hours    `json:"previous_hours"`
	DiffCount     int      `json:"diff_count"`
	DiffHours     Hours    `json:"diff_hours"`
	// Percentage of the current window's total hours, one decimal.
	Ratio float64 `json:"ratio"`
}
