package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timereport/internal/cli/formatter"
	"timereport/internal/storage/sqlite"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.DB == nil {
				return fmt.Errorf("database is not configured")
			}
			runs, err := sqlite.ListRuns(app.DB, limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RunsTable(runs, app.location()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
