package tui

import (
	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeEdit
	modeConfirmDelete
	modeConfirmPurge
	modeConfirmQuit
	modeHelp
)

func (m mode) String() string {
	switch m {
	case modeBrowse:
		return "browse"
	case modeSearch:
		return "search"
	case modeEdit:
		return "edit"
	case modeConfirmDelete:
		return "confirm-delete"
	case modeConfirmPurge:
		return "confirm-purge"
	case modeConfirmQuit:
		return "confirm-quit"
	case modeHelp:
		return "help"
	}
	return "unknown"
}

type reloadTickMsg struct{}

type flashDoneMsg struct{ seq int }

type editField int

const (
	fieldKey editField = iota
	fieldClass
	fieldExpiry
	fieldNote
	fieldCount
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

type quitChoice int

const (
	quitSave quitChoice = iota
	quitDiscard
	quitCancel
	quitChoiceCount
)

// editDraft is a record under construction in Edit mode. Nothing in it
// touches the DB until it is confirmed.
type editDraft struct {
	// origKey is the key of the record being edited; empty for a new record.
	origKey string

	key    textinput.Model
	class  model.Classification
	expiry textinput.Model
	note   textinput.Model

	focus editField
	err   string
}

func (d *editDraft) isNew() bool { return d.origKey == "" }

// viewState is everything the controller tracks about the session's screen.
// It is never persisted.
type viewState struct {
	mode   mode
	cursor int
	filter string
	sort   store.SortOrder

	search textinput.Model
	draft  *editDraft

	confirmFocus confirmModalFocus
	deleteKey    string
	quitFocus    quitChoice

	status    string
	statusErr bool

	// conflict is set after a save was refused because the file changed on
	// disk; the next save overwrites.
	conflict bool
	// external is the last result of the periodic on-disk change check.
	external bool

	help viewport.Model
}

// Result summarizes how a session ended.
type Result struct {
	// Discarded is true when the operator chose to quit without saving
	// pending changes.
	Discarded bool
	Commits   int
}
