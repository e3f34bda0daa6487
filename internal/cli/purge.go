package cli

import (
	"fmt"

	"spamdb-curses/internal/store"

	"github.com/spf13/cobra"
)

func newPurgeCmd(app *App) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "purge <dbfile>",
		Short: "Remove expired records and save (for cron)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd, false); err != nil {
				return err
			}
			defer app.close()

			ctx := cmd.Context()
			now := app.now()
			out := cmd.OutOrStdout()

			if dryRun {
				db, err := store.ReadFile(args[0])
				if err != nil {
					return err
				}
				for _, k := range db.Clone().PurgeExpired(now) {
					fmt.Fprintln(out, k)
				}
				return nil
			}

			sess, err := store.Open(args[0], store.Options{Logger: app.log})
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			purged := sess.DB().PurgeExpired(now)
			if len(purged) == 0 {
				fmt.Fprintln(out, "purged 0 record(s)")
				return nil
			}
			changes, err := sess.Commit(ctx)
			if err != nil {
				return err
			}
			app.log.Info("purged expired records", "path", sess.Path(), "count", len(purged))

			j, err := app.openAudit(ctx)
			if err != nil {
				app.log.Warn("audit journal unavailable", "err", err)
			} else if j != nil {
				defer func() { _ = j.Close() }()
				if err := j.Record(ctx, sess.Path(), changes); err != nil {
					app.log.Warn("audit journal write failed", "err", err)
				}
			}
			fmt.Fprintf(out, "purged %d record(s)\n", len(purged))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list the keys that would be removed")
	return cmd
}
