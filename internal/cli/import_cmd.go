package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"timereport/internal/source"
	"timereport/internal/storage/sqlite"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv-path-or-url>",
		Short: "Load a CSV sheet export into the SQLite activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.DB == nil {
				return fmt.Errorf("database is not configured")
			}
			reader := source.NewCSVReader(args[0], source.ColumnsFromConfig(app.Config), app.location())
			records, err := reader.ReadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			n, err := sqlite.ImportRecords(app.DB, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s\n", n, args[0])
			return nil
		},
	}
}
