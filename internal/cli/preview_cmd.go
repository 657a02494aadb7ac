package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timereport/internal/cli/formatter"
	"timereport/internal/report"
	"timereport/internal/source"
)

func newPreviewCmd(app *App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "preview <daily|weekly>",
		Short: "Show the comparison table without commentary, history or delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			ref, err := parseAt(at, app.location(), app.now())
			if err != nil {
				return err
			}
			if app.Runner == nil || app.Runner.Source == nil {
				return fmt.Errorf("record source is not configured")
			}

			span := app.Runner.Calendar.Span(kind, ref)
			records, err := source.ReadRange(cmd.Context(), app.Runner.Source, span)
			if err != nil {
				return fmt.Errorf("preview %s: %w", kind, err)
			}
			res := report.Build(records, kind, ref, app.Runner.Calendar, app.Runner.Extractor)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.Render(formatter.StyleBold, report.Title(res, app.Config.TeamName)))
			fmt.Fprintln(out, formatter.Render(formatter.StyleDim, fmt.Sprintf("%s vs %s, %d records read", res.Current, res.Previous, res.RecordCount)))
			fmt.Fprintln(out)
			if len(res.Rows) == 0 {
				fmt.Fprintln(out, "No categorized activity in either period.")
				return nil
			}
			fmt.Fprint(out, formatter.ComparisonTable(res.Rows, res.Totals))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Reference date (YYYY-MM-DD or RFC 3339), default now")
	return cmd
}
