// Package logging builds the charmbracelet/log logger shared by the CLI, the
// store session and the TUI.
//
// Interactive sessions own the terminal, so they log to a file or nowhere.
// Non-interactive commands log to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type Config struct {
	// File is the log destination. Empty means stderr when Interactive is
	// false and discard otherwise.
	File   string
	Level  string
	Format string // text|logfmt|json

	Interactive bool
}

// New returns a logger and a closer for its destination. The closer is
// always non-nil.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	level := log.InfoLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		l, err := log.ParseLevel(s)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	switch {
	case strings.TrimSpace(cfg.File) != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nopCloser{}, err
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nopCloser{}, err
		}
		w, closer = f, f
	case cfg.Interactive:
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "spamdb",
		Formatter:       formatter(cfg.Format),
	})
	return logger, closer, nil
}

// Discard returns a logger that drops everything, for tests and callers that
// did not configure logging.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func formatter(s string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	}
	return log.TextFormatter
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
