package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// TerminalError reports a failure of the terminal driver. The session is
// over; unsaved edits are lost.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return "terminal: " + e.Err.Error() }

func (e *TerminalError) Unwrap() error { return e.Err }

// Run drives an interactive editing session over sess until the operator
// quits. The caller owns sess and closes it afterwards.
func Run(sess Session, opts Options) (Result, error) {
	applyThemePreference(opts.Theme)
	applyColorProfilePreference()
	applyGlyphPreference()

	m := newAppModel(sess, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return Result{}, &TerminalError{Err: err}
	}
	fm, ok := final.(appModel)
	if !ok {
		return Result{}, &TerminalError{Err: fmt.Errorf("unexpected final model %T", final)}
	}
	return fm.result, nil
}
