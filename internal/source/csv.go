package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"timereport/internal/config"
	"timereport/internal/domain"
	"timereport/internal/httpx"
)

// Columns holds zero-based column positions.
type Columns struct {
	Title     int
	Duration  int
	Timestamp int
}

func (c Columns) minWidth() int {
	return max(c.Title, c.Duration, c.Timestamp) + 1
}

var DefaultColumns = Columns{Title: 0, Duration: 1, Timestamp: 2}

// ColumnsFromConfig converts the 1-based config columns.
func ColumnsFromConfig(cfg config.Config) Columns {
	return Columns{
		Title:     cfg.SourceTitleColumn - 1,
		Duration:  cfg.SourceDurationColumn - 1,
		Timestamp: cfg.SourceTimeColumn - 1,
	}
}

// CSVReader reads a sheet exported as CSV from a local path or an http(s) URL
// (for example a published spreadsheet export link). The first row is a header.
type CSVReader struct {
	Path     string
	Columns  Columns
	Location *time.Location
	Client   *http.Client
}

func NewCSVReader(path string, cols Columns, loc *time.Location) *CSVReader {
	return &CSVReader{Path: path, Columns: cols, Location: loc, Client: httpx.ExternalHTTPClient()}
}

func (r *CSVReader) ReadAll(ctx context.Context) ([]domain.RawRecord, error) {
	body, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return r.parse(body)
}

func (r *CSVReader) open(ctx context.Context) (io.ReadCloser, error) {
	if !httpx.IsURL(r.Path) {
		f, err := os.Open(r.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", r.Path, ErrMissingSource)
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", r.Path, err)
		}
		return f, nil
	}

	body, err := httpx.Download(ctx, r.Client, r.Path)
	var status *httpx.StatusError
	if errors.As(err, &status) && status.Gone() {
		return nil, fmt.Errorf("sheet %w: %w", err, ErrMissingSource)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching sheet: %w", err)
	}
	return body, nil
}

func (r *CSVReader) parse(body io.Reader) ([]domain.RawRecord, error) {
	cr := csv.NewReader(body)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	width := r.Columns.minWidth()
	records := make([]domain.RawRecord, 0, len(rows)-1)
	short, badTime := 0, 0
	for _, row := range rows[1:] {
		if len(row) < width {
			short++
			continue
		}
		rec := domain.RawRecord{
			Title:     strings.TrimSpace(row[r.Columns.Title]),
			Duration:  ParseDuration(row[r.Columns.Duration]),
			Timestamp: ParseTimestamp(row[r.Columns.Timestamp], r.Location),
			Source:    "sheet",
		}
		if rec.Timestamp.IsZero() {
			badTime++
		}
		records = append(records, rec)
	}
	if short > 0 || badTime > 0 {
		log.Printf("source csv path=%s rows=%d skipped_short=%d unparsed_timestamps=%d", r.Path, len(rows)-1, short, badTime)
	}
	return records, nil
}
