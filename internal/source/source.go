// Package source reads activity records from the configured stores: a CSV
// sheet export, the SQLite activity log, and ICS calendar feeds.
package source

import (
	"context"
	"errors"
	"fmt"
	"log"

	"timereport/internal/domain"
)

// ErrMissingSource means the primary record store could not be found. It
// aborts the run.
var ErrMissingSource = errors.New("record source not found")

type Reader interface {
	ReadAll(ctx context.Context) ([]domain.RawRecord, error)
}

// RangeReader narrows a read to the span being reported. Feeds with
// recurring events need it to know which occurrences to emit.
type RangeReader interface {
	ReadRange(ctx context.Context, span domain.TimeWindow) ([]domain.RawRecord, error)
}

// ReadRange reads r over span when it supports that, and everything otherwise.
func ReadRange(ctx context.Context, r Reader, span domain.TimeWindow) ([]domain.RawRecord, error) {
	if rr, ok := r.(RangeReader); ok {
		return rr.ReadRange(ctx, span)
	}
	return r.ReadAll(ctx)
}

type ReaderFunc func(ctx context.Context) ([]domain.RawRecord, error)

func (f ReaderFunc) ReadAll(ctx context.Context) ([]domain.RawRecord, error) {
	return f(ctx)
}

// Snapshot reads the primary source and every calendar exactly once. A primary
// failure is returned; calendar failures are logged and that feed is skipped.
type Snapshot struct {
	Primary   Reader
	Calendars []Reader
}

func (s Snapshot) ReadAll(ctx context.Context) ([]domain.RawRecord, error) {
	return s.read(ctx, func(r Reader) ([]domain.RawRecord, error) { return r.ReadAll(ctx) })
}

// ReadRange passes span to every reader that accepts one.
func (s Snapshot) ReadRange(ctx context.Context, span domain.TimeWindow) ([]domain.RawRecord, error) {
	return s.read(ctx, func(r Reader) ([]domain.RawRecord, error) { return ReadRange(ctx, r, span) })
}

func (s Snapshot) read(ctx context.Context, readOne func(Reader) ([]domain.RawRecord, error)) ([]domain.RawRecord, error) {
	if s.Primary == nil {
		return nil, fmt.Errorf("read records: %w", ErrMissingSource)
	}
	records, err := readOne(s.Primary)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	log.Printf("source primary records=%d", len(records))

	for i, cal := range s.Calendars {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		events, err := readOne(cal)
		if err != nil {
			log.Printf("source calendar %d skipped: %v", i, err)
			continue
		}
		log.Printf("source calendar %d events=%d", i, len(events))
		records = append(records, events...)
	}
	return records, nil
}
