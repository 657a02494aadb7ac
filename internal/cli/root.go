// Package cli implements the timereport command line.
package cli

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"timereport/internal/config"
	"timereport/internal/report"
)

// App holds what the commands need. DB and Gatherer may be nil in tests.
type App struct {
	Config   config.Config
	Runner   *report.Runner
	DB       *sql.DB
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) location() *time.Location {
	if a.Config.Location != nil {
		return a.Config.Location
	}
	return time.Local
}

// NewRootCmd creates the top-level "timereport" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "timereport",
		Short:         "Categorized activity reports with period-over-period comparison",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(app),
		newPreviewCmd(app),
		newServeCmd(app),
		newHistoryCmd(app),
		newImportCmd(app),
	)

	return root
}

// parseAt reads --at as a date or an RFC 3339 timestamp. Dates are midnight
// in loc; empty means now.
func parseAt(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want YYYY-MM-DD or RFC 3339", raw)
	}
	return t.In(loc), nil
}

func kindArg(args []string) (report.Kind, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected one report kind (daily or weekly)")
	}
	return report.ParseKind(args[0])
}
