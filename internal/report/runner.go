package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"timereport/internal/integrations/llm"
	"timereport/internal/metrics"
	"timereport/internal/source"
	"timereport/internal/stats"
	"timereport/internal/storage/sqlite"
)

// ChartRenderer draws the breakdown. Nil bytes with a nil error mean there is
// nothing worth charting.
type ChartRenderer interface {
	Render(b stats.Breakdown) ([]byte, error)
}

type Runner struct {
	Source      source.Reader
	Extractor   stats.Extractor
	Calendar    Calendar
	TeamName    string
	// Nil disables commentary.
	Commentator llm.Commentator
	Chart       ChartRenderer
	Deliverers  []Deliverer

	// Optional.
	DB      *sql.DB
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type RunOptions struct {
	// DryRun builds the message without delivering it.
	DryRun bool
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run produces one report of kind for the reference time ref. The returned
// Message is populated as far as the run got, and always carries the run ID.
func (r *Runner) Run(ctx context.Context, kind Kind, ref time.Time, opts RunOptions) (Message, error) {
	started := r.now()
	msg := Message{RunID: uuid.NewString(), GeneratedAt: started}
	current, previous := r.Calendar.Windows(kind, ref)
	msg.Result = Result{Kind: kind, Current: current, Previous: previous}
	log.Printf("report run=%s kind=%s window=%s baseline=%s dry_run=%t", msg.RunID, kind, current, previous, opts.DryRun)

	run := sqlite.Run{ID: msg.RunID, Kind: string(kind), Window: current, DryRun: opts.DryRun, StartedAt: started}
	if r.DB != nil {
		if err := sqlite.InsertRun(r.DB, run); err != nil {
			log.Printf("report run=%s history insert failed: %v", msg.RunID, err)
		}
	}

	err := r.execute(ctx, kind, ref, opts, &msg)

	finished := r.now()
	run.Status = sqlite.RunSucceeded
	if err != nil {
		run.Status = sqlite.RunFailed
		run.Error = err.Error()
	}
	run.RecordCount = msg.Result.RecordCount
	run.CategoryCount = len(msg.Result.Rows)
	run.TotalHours = msg.Result.Totals.CurrentHours
	run.FinishedAt = finished
	if r.DB != nil {
		if ferr := sqlite.FinishRun(r.DB, run); ferr != nil {
			log.Printf("report run=%s history update failed: %v", msg.RunID, ferr)
		}
	}
	r.Metrics.ObserveRun(string(kind), string(run.Status), finished.Sub(started), msg.Result.RecordCount, finished)
	log.Printf("report run=%s kind=%s status=%s records=%d categories=%d hours=%s elapsed=%s",
		msg.RunID, kind, run.Status, run.RecordCount, run.CategoryCount, run.TotalHours, finished.Sub(started).Round(time.Millisecond))
	return msg, err
}

func (r *Runner) execute(ctx context.Context, kind Kind, ref time.Time, opts RunOptions, msg *Message) error {
	if r.Source == nil {
		return fmt.Errorf("run %s: %w", kind, source.ErrMissingSource)
	}
	records, err := source.ReadRange(ctx, r.Source, r.Calendar.Span(kind, ref))
	if err != nil {
		return fmt.Errorf("run %s: %w", kind, err)
	}
	msg.Result = Build(records, kind, ref, r.Calendar, r.Extractor)
	msg.Title = Title(msg.Result, r.TeamName)

	if r.Chart != nil {
		png, err := r.Chart.Render(msg.Result.Breakdown)
		if err != nil {
			log.Printf("report run=%s chart skipped: %v", msg.RunID, err)
			png = nil
		}
		msg.Chart = png
	}

	if r.Commentator != nil {
		msg.Commentary = r.Commentator.Commentary(ctx, msg.Result.Rows)
		if msg.Commentary == llm.FallbackCommentary {
			r.Metrics.CommentaryFallback()
		}
	}
	msg.Text = FormatText(msg.Result, r.TeamName, msg.Commentary)

	if opts.DryRun {
		return nil
	}
	return r.deliver(ctx, *msg)
}

// deliver sends msg on every channel. One failing channel does not stop the
// others; all failures come back joined.
func (r *Runner) deliver(ctx context.Context, msg Message) error {
	var errs []error
	for _, d := range r.Deliverers {
		if err := d.Deliver(ctx, msg); err != nil {
			log.Printf("report run=%s delivery=%s failed: %v", msg.RunID, d.Name(), err)
			r.Metrics.DeliveryFailed(d.Name())
			errs = append(errs, fmt.Errorf("deliver %s: %w", d.Name(), err))
			continue
		}
		log.Printf("report run=%s delivery=%s ok", msg.RunID, d.Name())
	}
	return errors.Join(errs...)
}
