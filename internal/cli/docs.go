package cli

import (
	"fmt"

	"spamdb-curses/internal/docs"
	"spamdb-curses/internal/format"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show the manual (keys, search, format, config)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return format.WriteJSON(cmd.OutOrStdout(), map[string]any{"topics": docs.Topics()}, app.PrettyJSON)
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return fmt.Errorf("unknown docs topic: %q (run `spamdb-curses docs` to list topics)", topic)
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return format.WriteJSON(cmd.OutOrStdout(), map[string]any{"topic": topic, "markdown": body}, app.PrettyJSON)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	cmd.Flags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	return cmd
}
