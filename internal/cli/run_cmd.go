package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timereport/internal/cli/formatter"
	"timereport/internal/report"
)

func newRunCmd(app *App) *cobra.Command {
	var at string
	var dryRun bool

	cmd := &cobra.Command{
		Use:       "run <daily|weekly>",
		Short:     "Build a report and deliver it on every configured channel",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(report.KindDaily), string(report.KindWeekly)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			ref, err := parseAt(at, app.location(), app.now())
			if err != nil {
				return err
			}
			if app.Runner == nil {
				return fmt.Errorf("report runner is not configured")
			}

			msg, err := app.Runner.Run(cmd.Context(), kind, ref, report.RunOptions{DryRun: dryRun})
			out := cmd.OutOrStdout()
			if dryRun && msg.Text != "" {
				fmt.Fprintln(out, msg.Text)
			}
			if err != nil {
				fmt.Fprintf(out, "%s %s\n", formatter.Render(formatter.StyleRed, "failed"), formatter.Render(formatter.StyleDim, "run "+msg.RunID))
				return err
			}
			fmt.Fprintf(out, "%s %s %s\n", formatter.Render(formatter.StyleGreen, "ok"), msg.Title, formatter.Render(formatter.StyleDim, "run "+msg.RunID))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Reference date (YYYY-MM-DD or RFC 3339), default now")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the report instead of delivering it")
	return cmd
}
