package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeWindow is a closed interval: a timestamp matches when Start <= ts <= End.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) Contains(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !ts.Before(w.Start) && !ts.After(w.End)
}

// Days returns the midnight of every calendar day covered by the window.
func (w TimeWindow) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, d.Location()) {
		days = append(days, d)
	}
	return days
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s - %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// WeekBoundary decides which window a reference on the week start day belongs to.
type WeekBoundary int

const (
	// BoundaryStartsWeek makes the start day day 1 of the current window.
	BoundaryStartsWeek WeekBoundary = iota
	// BoundaryLooksBack makes a run on the start day report the week that just ended.
	BoundaryLooksBack
)

func (b WeekBoundary) String() string {
	if b == BoundaryLooksBack {
		return "lookback"
	}
	return "start"
}

func ParseWeekBoundary(s string) (WeekBoundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "start":
		return BoundaryStartsWeek, nil
	case "lookback", "look_back", "look-back":
		return BoundaryLooksBack, nil
	}
	return BoundaryStartsWeek, fmt.Errorf("unknown week boundary %q (want start or lookback)", s)
}

// ParseWeekStart accepts the two supported week start days.
func ParseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	}
	return time.Monday, fmt.Errorf("week start must be sunday or monday, got %q", s)
}

// WeekWindow returns the seven day window holding ref's week, shifted by
// offsetWeeks. Day arithmetic goes through time.Date so DST days keep their
// calendar length.
func WeekWindow(ref time.Time, offsetWeeks int, weekStart time.Weekday, boundary WeekBoundary, loc *time.Location) TimeWindow {
	if loc == nil {
		loc = ref.Location()
	}
	local := ref.In(loc)
	back := (int(local.Weekday()) - int(weekStart) + 7) % 7
	if back == 0 && boundary == BoundaryLooksBack {
		back = 7
	}
	start := time.Date(local.Year(), local.Month(), local.Day()-back+7*offsetWeeks, 0, 0, 0, 0, loc)
	return windowFrom(start, 7)
}

// DayWindow returns the calendar day of ref shifted by offsetDays.
func DayWindow(ref time.Time, offsetDays int, loc *time.Location) TimeWindow {
	if loc == nil {
		loc = ref.Location()
	}
	local := ref.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day()+offsetDays, 0, 0, 0, 0, loc)
	return windowFrom(start, 1)
}

func windowFrom(start time.Time, days int) TimeWindow {
	end := time.Date(start.Year(), start.Month(), start.Day()+days-1, 23, 59, 59, int(999*time.Millisecond), start.Location())
	return TimeWindow{Start: start, End: end}
}
