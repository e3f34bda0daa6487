package cli

import (
	"fmt"

	"spamdb-curses/internal/format"
	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	"github.com/spf13/cobra"
)

func newDumpCmd(app *App) *cobra.Command {
	var (
		outFormat string
		query     string
		sortBy    string
	)
	cmd := &cobra.Command{
		Use:   "dump <dbfile>",
		Short: "Print records without taking the lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd, false); err != nil {
				return err
			}
			defer app.close()

			db, err := store.ReadFile(args[0])
			if err != nil {
				return err
			}
			pred := store.ParseQuery(query, app.now())
			var records []model.Record
			for r := range db.FindSorted(pred, store.ParseSortOrder(sortBy)) {
				records = append(records, r)
			}

			if outFormat == "text" {
				// The native file format; only key order is canonical.
				if sortBy != "key" {
					return fmt.Errorf("--sort %s needs --format json or jsonl", sortBy)
				}
				_, err := cmd.OutOrStdout().Write(store.Encode(records))
				return err
			}
			return format.Write(cmd.OutOrStdout(), records, outFormat, app.PrettyJSON)
		},
	}
	cmd.Flags().StringVar(&outFormat, "format", envOr("SPAMDB_CURSES_FORMAT", "text"), "Output format: text|json|jsonl")
	cmd.Flags().StringVar(&query, "query", "", "Filter, as in the interactive search (e.g. 'is:deny example.com')")
	cmd.Flags().StringVar(&sortBy, "sort", "key", "Sort order: key|expiry|classification")
	cmd.Flags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	return cmd
}
