package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"spamdb-curses/internal/audit"
	"spamdb-curses/internal/format"
	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var (
		limit     int
		outFormat string
	)
	cmd := &cobra.Command{
		Use:   "history <dbfile>",
		Short: "Show committed changes from the audit journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd, false); err != nil {
				return err
			}
			defer app.close()

			ctx := cmd.Context()
			j, err := app.openAudit(ctx)
			if err != nil {
				return err
			}
			if j == nil {
				return errors.New("no audit journal configured; set [audit] db or --audit-db")
			}
			defer func() { _ = j.Close() }()

			path, err := store.CanonicalPath(args[0])
			if err != nil {
				return err
			}
			entries, err := j.List(ctx, path, limit)
			if err != nil {
				return err
			}
			if outFormat != "text" {
				return format.Write(cmd.OutOrStdout(), entries, outFormat, app.PrettyJSON)
			}
			return writeHistoryText(cmd, entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries (0 = all)")
	cmd.Flags().StringVar(&outFormat, "format", envOr("SPAMDB_CURSES_FORMAT", "text"), "Output format: text|json|jsonl")
	cmd.Flags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func writeHistoryText(cmd *cobra.Command, entries []audit.Entry) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CommittedAt.Format(time.RFC3339), e.User, e.Op, e.Key, describeChange(e.Before, e.After))
	}
	return tw.Flush()
}

func describeChange(before, after *model.Record) string {
	switch {
	case before == nil && after != nil:
		return summarize(after)
	case before != nil && after == nil:
		return summarize(before)
	case before != nil && after != nil:
		return summarize(before) + " -> " + summarize(after)
	}
	return ""
}

func summarize(r *model.Record) string {
	exp := model.FormatExpiry(r.Expires)
	if exp == "" {
		exp = "never"
	}
	return fmt.Sprintf("%s until %s", r.Class, exp)
}
