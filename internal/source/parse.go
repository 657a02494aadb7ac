package source

import (
	"math"
	"strconv"
	"strings"
	"time"

	"timereport/internal/domain"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
}

// Spreadsheet date serial zero.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseTimestamp reads a timestamp cell in loc. It accepts the common sheet
// export layouts and spreadsheet date serials. Unparseable input returns the
// zero time, which no window ever contains.
func ParseTimestamp(raw string, loc *time.Location) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && !math.IsInf(f, 0) {
		days := math.Floor(f)
		secs := math.Round((f - days) * 86400)
		return time.Date(serialEpoch.Year(), serialEpoch.Month(), serialEpoch.Day()+int(days), 0, 0, int(secs), 0, loc)
	}
	return time.Time{}
}

// ParseDuration reads a duration cell: "H:MM[:SS]" clock values (hours may
// exceed 23), serial-date clock exports such as "1899-12-30 02:30:00", or a
// plain number taken as a fraction of a day.
func ParseDuration(raw string) domain.RawDuration {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.RawDuration{}
	}
	if d, ok := parseSerialClock(s); ok {
		return d
	}
	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return domain.FractionalDay(f)
	}
	return domain.RawDuration{}
}

func parseClock(s string) domain.RawDuration {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return domain.RawDuration{}
	}
	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return domain.RawDuration{}
		}
		if i > 0 && n > 59 {
			return domain.RawDuration{}
		}
		vals[i] = n
	}
	return domain.TimeOfDay(vals[0], vals[1], vals[2])
}

// Sheets exports elapsed durations as datetimes counted from the serial epoch;
// whole days past the epoch carry 24 hours each.
func parseSerialClock(s string) (domain.RawDuration, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006/01/02 15:04:05"} {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if t.Year() > 1900 || t.Before(serialEpoch) {
			return domain.RawDuration{}, false
		}
		days := int(t.Sub(serialEpoch).Hours()) / 24
		return domain.TimeOfDay(days*24+t.Hour(), t.Minute(), t.Second()), true
	}
	return domain.RawDuration{}, false
}
