package cli

import (
	"fmt"

	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	"github.com/spf13/cobra"
)

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check <dbfile>",
		Short: "Validate every record; exits non-zero on problems",
		Long: `Decodes the file and validates each record the way the editor does on
save. Legacy files may decode fine but still carry keys the editor would
reject; check lists them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd, false); err != nil {
				return err
			}
			defer app.close()

			db, err := store.ReadFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for r := range db.Find(nil) {
				if err := model.Validate(r); err != nil {
					invalid++
					fmt.Fprintf(out, "%s: %v\n", r.Key, err)
				}
			}
			expired := db.CountExpired(app.now())
			if invalid > 0 {
				return fmt.Errorf("%d of %d record(s) invalid", invalid, db.Len())
			}
			fmt.Fprintf(out, "ok: %d record(s), %d expired\n", db.Len(), expired)
			return nil
		},
	}
}
