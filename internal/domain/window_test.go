package domain

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestWeekWindowMondayStartFromWednesday(t *testing.T) {
	ref := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC) // Wednesday
	w := WeekWindow(ref, 0, time.Monday, BoundaryStartsWeek, time.UTC)

	wantStart := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 10, 18, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", w.Start, wantStart)
	}
	if !w.End.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", w.End, wantEnd)
	}
	if w.Start.Weekday() != time.Monday || w.End.Weekday() != time.Sunday {
		t.Fatalf("unexpected weekdays start=%s end=%s", w.Start.Weekday(), w.End.Weekday())
	}
}

func TestWeekWindowSundayStart(t *testing.T) {
	ref := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC) // Wednesday
	w := WeekWindow(ref, 0, time.Sunday, BoundaryStartsWeek, time.UTC)
	if got := w.Start.Format("2006-01-02"); got != "2026-10-11" {
		t.Fatalf("start = %s, want 2026-10-11", got)
	}
	if got := w.End.Format("2006-01-02"); got != "2026-10-17" {
		t.Fatalf("end = %s, want 2026-10-17", got)
	}
}

func TestWeekWindowPreviousOffset(t *testing.T) {
	ref := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	cur := WeekWindow(ref, 0, time.Monday, BoundaryStartsWeek, time.UTC)
	prev := WeekWindow(ref, -1, time.Monday, BoundaryStartsWeek, time.UTC)

	if got := prev.Start.Format("2006-01-02"); got != "2026-10-05" {
		t.Fatalf("previous start = %s, want 2026-10-05", got)
	}
	if !prev.End.Before(cur.Start) {
		t.Fatalf("windows overlap: prev.End=%v cur.Start=%v", prev.End, cur.Start)
	}
	if gap := cur.Start.Sub(prev.End); gap != time.Millisecond {
		t.Fatalf("expected 1ms gap between adjacent windows, got %s", gap)
	}
}

func TestWeekWindowBoundaryConventions(t *testing.T) {
	ref := time.Date(2026, 10, 12, 6, 0, 0, 0, time.UTC) // Monday

	starts := WeekWindow(ref, 0, time.Monday, BoundaryStartsWeek, time.UTC)
	if got := starts.Start.Format("2006-01-02"); got != "2026-10-12" {
		t.Fatalf("start convention: start = %s, want 2026-10-12", got)
	}

	back := WeekWindow(ref, 0, time.Monday, BoundaryLooksBack, time.UTC)
	if got := back.Start.Format("2006-01-02"); got != "2026-10-05" {
		t.Fatalf("lookback convention: start = %s, want 2026-10-05", got)
	}
	if got := back.End.Format("2006-01-02"); got != "2026-10-11" {
		t.Fatalf("lookback convention: end = %s, want 2026-10-11", got)
	}

	// Off the boundary day both conventions agree.
	wed := time.Date(2026, 10, 14, 6, 0, 0, 0, time.UTC)
	a := WeekWindow(wed, 0, time.Monday, BoundaryStartsWeek, time.UTC)
	b := WeekWindow(wed, 0, time.Monday, BoundaryLooksBack, time.UTC)
	if !a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
		t.Fatalf("conventions diverged off the boundary day: %v vs %v", a, b)
	}
}

func TestWeekWindowUsesReferenceZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Sunday 20:00 UTC is already Monday in Tokyo.
	ref := time.Date(2026, 10, 11, 20, 0, 0, 0, time.UTC)
	w := WeekWindow(ref, 0, time.Monday, BoundaryStartsWeek, tokyo)
	if got := w.Start.Format("2006-01-02"); got != "2026-10-12" {
		t.Fatalf("start = %s, want 2026-10-12", got)
	}
	if w.Start.Location() != tokyo {
		t.Fatalf("start location = %v, want Asia/Tokyo", w.Start.Location())
	}
}

func TestWeekWindowAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	ref := time.Date(2026, 3, 4, 12, 0, 0, 0, ny)
	w := WeekWindow(ref, 0, time.Monday, BoundaryStartsWeek, ny)
	if w.End.Day() != 8 || w.End.Hour() != 23 || w.End.Minute() != 59 {
		t.Fatalf("unexpected end across DST: %v", w.End)
	}
	if n := len(w.Days()); n != 7 {
		t.Fatalf("expected 7 days, got %d", n)
	}
}

func TestDayWindow(t *testing.T) {
	ref := time.Date(2026, 10, 14, 0, 30, 0, 0, time.UTC)

	today := DayWindow(ref, 0, time.UTC)
	if !today.Start.Equal(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", today.Start)
	}
	if !today.End.Equal(time.Date(2026, 10, 14, 23, 59, 59, int(999*time.Millisecond), time.UTC)) {
		t.Fatalf("unexpected end: %v", today.End)
	}

	yesterday := DayWindow(ref, -1, time.UTC)
	if got := yesterday.Start.Format("2006-01-02"); got != "2026-10-13" {
		t.Fatalf("yesterday = %s, want 2026-10-13", got)
	}
	if n := len(yesterday.Days()); n != 1 {
		t.Fatalf("expected one day, got %d", n)
	}
}

func TestTimeWindowContainsBounds(t *testing.T) {
	w := DayWindow(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC), 0, time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"at start", w.Start, true},
		{"at end", w.End, true},
		{"before start", w.Start.Add(-time.Millisecond), false},
		{"after end", w.End.Add(time.Millisecond), false},
		{"zero", time.Time{}, false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.ts); got != tt.want {
			t.Fatalf("%s: Contains(%v) = %v, want %v", tt.name, tt.ts, got, tt.want)
		}
	}
}

func TestParseWeekSettings(t *testing.T) {
	if d, err := ParseWeekStart("Sunday"); err != nil || d != time.Sunday {
		t.Fatalf("ParseWeekStart(Sunday) = %v, %v", d, err)
	}
	if d, err := ParseWeekStart(""); err != nil || d != time.Monday {
		t.Fatalf("ParseWeekStart(\"\") = %v, %v", d, err)
	}
	if _, err := ParseWeekStart("friday"); err == nil {
		t.Fatal("expected error for friday")
	}
	if b, err := ParseWeekBoundary("lookback"); err != nil || b != BoundaryLooksBack {
		t.Fatalf("ParseWeekBoundary(lookback) = %v, %v", b, err)
	}
	if _, err := ParseWeekBoundary("sideways"); err == nil {
		t.Fatal("expected error for unknown boundary")
	}
}
