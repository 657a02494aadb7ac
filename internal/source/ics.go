package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"timereport/internal/domain"
	"timereport/internal/httpx"
)

// Unbounded reads expand recurring events up to this far after now.
const recurrenceHorizon = 366 * 24 * time.Hour

const maxOccurrences = 5000

// ICSReader turns the events of an iCalendar feed into records. The title is
// the event summary, the duration is end minus start, and the timestamp is
// the start in Location. Recurring events yield one record per occurrence.
type ICSReader struct {
	URL      string
	Location *time.Location
	Client   *http.Client

	now func() time.Time
}

func NewICSReader(url string, loc *time.Location) *ICSReader {
	return &ICSReader{URL: url, Location: loc, Client: httpx.ExternalHTTPClient()}
}

// ReadAll expands recurrences from each event's start up to a year ahead.
func (r *ICSReader) ReadAll(ctx context.Context) ([]domain.RawRecord, error) {
	now := time.Now()
	if r.now != nil {
		now = r.now()
	}
	return r.read(ctx, domain.TimeWindow{End: now.Add(recurrenceHorizon)})
}

// ReadRange emits only the occurrences of recurring events that start inside
// span. Single events are always returned.
func (r *ICSReader) ReadRange(ctx context.Context, span domain.TimeWindow) ([]domain.RawRecord, error) {
	return r.read(ctx, span)
}

func (r *ICSReader) read(ctx context.Context, span domain.TimeWindow) ([]domain.RawRecord, error) {
	body, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	cal, err := ics.ParseCalendar(body)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}
	return eventsToRecords(cal.Events(), span, r.Location), nil
}

func (r *ICSReader) open(ctx context.Context) (io.ReadCloser, error) {
	if !httpx.IsURL(r.URL) {
		f, err := os.Open(r.URL)
		if err != nil {
			return nil, fmt.Errorf("open calendar %s: %w", r.URL, err)
		}
		return f, nil
	}
	body, err := httpx.Download(ctx, r.Client, r.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	return body, nil
}

func eventsToRecords(events []*ics.VEvent, span domain.TimeWindow, loc *time.Location) []domain.RawRecord {
	if loc == nil {
		loc = time.Local
	}
	records := make([]domain.RawRecord, 0, len(events))
	skipped, badRule := 0, 0
	for _, ev := range events {
		start, err := ev.GetStartAt()
		if err != nil {
			skipped++
			continue
		}
		title := ""
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			title = strings.TrimSpace(p.Value)
		}
		dur := domain.RawDuration{}
		if end, err := ev.GetEndAt(); err == nil && end.After(start) {
			dur = domain.Elapsed(end.Sub(start))
		}

		starts, err := occurrences(ev, start, span)
		if err != nil {
			log.Printf("source calendar event %q: %v (using first start only)", title, err)
			badRule++
			starts = []time.Time{start}
		}
		for _, at := range starts {
			records = append(records, domain.RawRecord{
				Title:     title,
				Duration:  dur,
				Timestamp: at.In(loc),
				Source:    "calendar",
			})
		}
	}
	if skipped > 0 || badRule > 0 {
		log.Printf("source calendar skipped_events=%d (no parseable start) bad_recurrences=%d", skipped, badRule)
	}
	return records
}

// occurrences lists the starts of ev inside span. A zero span start means
// from the event's own start. Events without RRULE or RDATE have exactly one
// occurrence, wherever it falls.
func occurrences(ev *ics.VEvent, start time.Time, span domain.TimeWindow) ([]time.Time, error) {
	var rule string
	var rdates, exdates []time.Time
	for _, p := range ev.Properties {
		switch strings.ToUpper(p.IANAToken) {
		case "RRULE":
			rule = strings.TrimSpace(p.Value)
		case "RDATE":
			ts, err := parseDateList(p, start.Location())
			if err != nil {
				return nil, err
			}
			rdates = append(rdates, ts...)
		case "EXDATE":
			ts, err := parseDateList(p, start.Location())
			if err != nil {
				return nil, err
			}
			exdates = append(exdates, ts...)
		}
	}
	if rule == "" && len(rdates) == 0 {
		return []time.Time{start}, nil
	}

	set := &rrule.Set{}
	set.RDate(start)
	if rule != "" {
		opt, err := rrule.StrToROptionInLocation(rule, start.Location())
		if err != nil {
			return nil, fmt.Errorf("rrule %q: %w", rule, err)
		}
		opt.Dtstart = start
		rr, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, fmt.Errorf("rrule %q: %w", rule, err)
		}
		set.RRule(rr)
	}
	for _, t := range rdates {
		set.RDate(t)
	}
	for _, t := range exdates {
		set.ExDate(t)
	}

	from := span.Start
	if from.IsZero() {
		from = start
	}
	starts := dedupe(set.Between(from, span.End, true))
	if len(starts) > maxOccurrences {
		log.Printf("source calendar recurrence truncated occurrences=%d max=%d", len(starts), maxOccurrences)
		starts = starts[:maxOccurrences]
	}
	return starts, nil
}

// dedupe drops repeats from a sorted list; DTSTART is also produced by most
// rules.
func dedupe(ts []time.Time) []time.Time {
	out := ts[:0]
	for i, t := range ts {
		if i > 0 && t.Equal(ts[i-1]) {
			continue
		}
		out = append(out, t)
	}
	return out
}

var icsDateLayouts = []struct {
	layout string
	utc    bool
}{
	{"20060102T150405Z", true},
	{"20060102T150405", false},
	{"20060102", false},
}

// parseDateList reads an RDATE or EXDATE value: comma separated, in the
// property's TZID when given, otherwise in def.
func parseDateList(p ics.IANAProperty, def *time.Location) ([]time.Time, error) {
	loc := def
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		l, err := time.LoadLocation(tz[0])
		if err != nil {
			return nil, fmt.Errorf("%s TZID %q: %w", p.IANAToken, tz[0], err)
		}
		loc = l
	}
	var out []time.Time
	for _, raw := range strings.Split(p.Value, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed := false
		for _, l := range icsDateLayouts {
			in := loc
			if l.utc {
				in = time.UTC
			}
			if t, err := time.ParseInLocation(l.layout, raw, in); err == nil {
				out = append(out, t)
				parsed = true
				break
			}
		}
		if !parsed {
			return nil, fmt.Errorf("%s value %q is not a date", p.IANAToken, raw)
		}
	}
	return out, nil
}
