package report

import (
	"fmt"
	"strings"
	"time"

	"timereport/internal/config"
	"timereport/internal/domain"
)

type Kind string

const (
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDaily:
		return KindDaily, nil
	case KindWeekly:
		return KindWeekly, nil
	}
	return "", fmt.Errorf("unknown report kind %q (want daily or weekly)", s)
}

// Calendar holds the settings that turn a reference time into report windows.
type Calendar struct {
	Location  *time.Location
	WeekStart time.Weekday
	Boundary  domain.WeekBoundary

	// DailyOffsetDays shifts the daily target day; 0 is the reference day, -1 the day before.
	DailyOffsetDays int
}

func CalendarFromConfig(cfg config.Config) Calendar {
	return Calendar{
		Location:        cfg.Location,
		WeekStart:       cfg.WeekStart,
		Boundary:        cfg.Boundary,
		DailyOffsetDays: cfg.DailyOffsetDays,
	}
}

// Windows returns the reported window and the baseline it is compared with.
// Daily compares the target day with the day before it; weekly compares the
// reference week with the one before it.
func (c Calendar) Windows(kind Kind, ref time.Time) (current, previous domain.TimeWindow) {
	loc := c.Location
	if loc == nil {
		loc = ref.Location()
	}
	if kind == KindDaily {
		return domain.DayWindow(ref, c.DailyOffsetDays, loc), domain.DayWindow(ref, c.DailyOffsetDays-1, loc)
	}
	return domain.WeekWindow(ref, 0, c.WeekStart, c.Boundary, loc), domain.WeekWindow(ref, -1, c.WeekStart, c.Boundary, loc)
}

// Span covers both windows of a run; the baseline always comes first.
func (c Calendar) Span(kind Kind, ref time.Time) domain.TimeWindow {
	current, previous := c.Windows(kind, ref)
	return domain.TimeWindow{Start: previous.Start, End: current.End}
}
