package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"spamdb-curses/internal/audit"
	"spamdb-curses/internal/logging"
	"spamdb-curses/internal/store"
	"spamdb-curses/internal/tui"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	Create     bool
	Theme      string
	LogFile    string
	LogLevel   string
	AuditDB    string
	PrettyJSON bool

	cfg    Config
	log    *log.Logger
	closer io.Closer
	now    func() time.Time
}

func NewRootCmd() *cobra.Command {
	app := &App{now: time.Now}

	cmd := &cobra.Command{
		Use:          "spamdb-curses [flags] <dbfile>",
		Short:        "Interactive editor for mail-server spam-control databases",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Edit a database interactively
  spamdb-curses /var/db/spamdb

  # Start a new database
  spamdb-curses --create /var/db/spamdb

  # Scriptable commands
  spamdb-curses dump --format jsonl --query is:deny /var/db/spamdb
  spamdb-curses check /var/db/spamdb
  spamdb-curses purge /var/db/spamdb
`),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing <dbfile> argument")
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd, true); err != nil {
				return err
			}
			defer app.close()
			return runTUI(cmd, app, args[0])
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", defaultConfigPath(), "Path to the TOML config file (env SPAMDB_CURSES_CONFIG)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Log file (overrides [log] file)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level: debug|info|warn|error (overrides [log] level)")
	cmd.PersistentFlags().StringVar(&app.AuditDB, "audit-db", "", "Audit journal database (overrides [audit] db)")
	cmd.Flags().BoolVar(&app.Create, "create", false, "Start with an empty database if <dbfile> does not exist")
	cmd.Flags().StringVar(&app.Theme, "theme", envOr("SPAMDB_TUI_THEME", ""), "Color theme: auto|light|dark")

	cmd.AddCommand(newDumpCmd(app))
	cmd.AddCommand(newCheckCmd(app))
	cmd.AddCommand(newPurgeCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup loads the config, applies flag overrides and builds the logger.
// Interactive sessions own the terminal, so their logs only go to a file.
func (a *App) setup(cmd *cobra.Command, interactive bool) error {
	explicit := cmd.Flags().Changed("config") || envOr("SPAMDB_CURSES_CONFIG", "") != ""
	cfg, unknown, err := loadConfig(a.ConfigPath, explicit)
	if err != nil {
		return err
	}
	if a.LogFile != "" {
		cfg.Log.File = a.LogFile
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	if a.AuditDB != "" {
		cfg.Audit.DB = a.AuditDB
	}
	if a.Theme != "" {
		cfg.UI.Theme = a.Theme
	}
	if a.Create {
		cfg.Store.Create = true
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Config{
		File:        cfg.Log.File,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Interactive: interactive,
	})
	if err != nil {
		return err
	}
	a.log, a.closer = logger, closer
	for _, k := range unknown {
		a.log.Warn("unknown config key ignored", "config", a.ConfigPath, "key", k)
	}
	return nil
}

func (a *App) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// openAudit returns nil when no journal is configured.
func (a *App) openAudit(ctx context.Context) (*audit.Journal, error) {
	if a.cfg.Audit.DB == "" {
		return nil, nil
	}
	j, err := audit.Open(ctx, a.cfg.Audit.DB)
	if err != nil {
		return nil, fmt.Errorf("audit journal %s: %w", a.cfg.Audit.DB, err)
	}
	return j, nil
}

func runTUI(cmd *cobra.Command, app *App, path string) error {
	ctx := cmd.Context()

	sess, err := store.Open(path, store.Options{Create: app.cfg.Store.Create, Logger: app.log})
	if err != nil {
		if store.IsLocked(err) {
			return fmt.Errorf("%w; close the other editor first", err)
		}
		return err
	}
	defer func() { _ = sess.Close() }()

	opts := tui.Options{
		Logger: app.log,
		Sort:   store.ParseSortOrder(app.cfg.UI.Sort),
		Theme:  app.cfg.UI.Theme,
	}
	j, err := app.openAudit(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer func() { _ = j.Close() }()
		opts.Audit = j
	}

	app.log.Info("session started", "path", sess.Path(), "records", sess.DB().Len())
	res, err := tui.Run(sess, opts)
	if err != nil {
		app.log.Error("session ended abnormally", "path", sess.Path(), "err", err)
		return err
	}
	app.log.Info("session ended", "path", sess.Path(), "commits", res.Commits, "discarded", res.Discarded)
	if res.Discarded {
		fmt.Fprintln(cmd.ErrOrStderr(), "unsaved changes discarded")
	}
	return nil
}
