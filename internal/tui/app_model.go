package tui

import (
	"context"
	"time"

	"spamdb-curses/internal/logging"
	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// Session is the part of a store session the controller drives.
type Session interface {
	Path() string
	DB() *store.DB
	Commit(ctx context.Context) ([]store.Change, error)
	ForceCommit(ctx context.Context) ([]store.Change, error)
	ExternallyModified() bool
}

// Auditor receives the changes of every successful commit.
type Auditor interface {
	Record(ctx context.Context, dbPath string, changes []store.Change) error
}

type Options struct {
	Audit  Auditor
	Logger *log.Logger
	Sort   store.SortOrder
	Theme  string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

const (
	defaultWidth  = 80
	defaultHeight = 24

	reloadInterval = 2 * time.Second
	flashDuration  = 4 * time.Second
)

type appModel struct {
	sess  Session
	audit Auditor
	log   *log.Logger
	now   func() time.Time

	keys keyMap
	help help.Model

	width  int
	height int

	vs    viewState
	dirty bool

	// rows is the filtered, sorted record sequence the cursor indexes into.
	rows []model.Record

	flashSeq int
	result   Result
	quitting bool
}

func newAppModel(sess Session, opts Options) appModel {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	m := appModel{
		sess:   sess,
		audit:  opts.Audit,
		log:    logger,
		now:    now,
		keys:   defaultKeyMap(),
		help:   help.New(),
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.vs = viewState{
		mode:   modeBrowse,
		sort:   opts.Sort,
		search: newInput("key, note, is:deny, is:expired…", 256),
		help:   viewport.New(defaultWidth, defaultHeight-chromeLines),
	}
	m.refreshRows("")
	return m
}

func (m appModel) Init() tea.Cmd { return tickReload() }

func tickReload() tea.Cmd {
	return tea.Tick(reloadInterval, func(time.Time) tea.Msg { return reloadTickMsg{} })
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	// A static cursor keeps the loop free of blink ticks.
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// refreshRows recomputes the visible sequence from the DB. When selectKey is
// non-empty and visible, the cursor moves onto it; otherwise the cursor is
// clamped into range.
func (m *appModel) refreshRows(selectKey string) {
	pred := store.ParseQuery(m.vs.filter, m.now())
	rows := make([]model.Record, 0, m.sess.DB().Len())
	for r := range m.sess.DB().FindSorted(pred, m.vs.sort) {
		rows = append(rows, r)
	}
	m.rows = rows

	if selectKey != "" {
		for i, r := range rows {
			if r.Key == selectKey {
				m.vs.cursor = i
				return
			}
		}
	}
	m.clampCursor()
}

func (m *appModel) clampCursor() {
	if m.vs.cursor >= len(m.rows) {
		m.vs.cursor = len(m.rows) - 1
	}
	if m.vs.cursor < 0 {
		m.vs.cursor = 0
	}
}

func (m *appModel) moveCursor(delta int) {
	m.vs.cursor += delta
	m.clampCursor()
}

func (m appModel) selected() (model.Record, bool) {
	if m.vs.cursor < 0 || m.vs.cursor >= len(m.rows) {
		return model.Record{}, false
	}
	return m.rows[m.vs.cursor], true
}

// pageSize is the number of table rows that fit on screen.
func (m appModel) pageSize() int {
	return listHeight(m.height, m.vs.mode == modeSearch || m.vs.filter != "")
}

func (m *appModel) setStatus(msg string) {
	m.vs.status = msg
	m.vs.statusErr = false
	m.flashSeq++
}

func (m *appModel) setError(msg string) {
	m.vs.status = msg
	m.vs.statusErr = true
	m.flashSeq++
}

func (m appModel) flashCmd() tea.Cmd {
	if m.vs.status == "" || m.vs.statusErr {
		return nil
	}
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m *appModel) resize(w, h int) {
	m.width, m.height = w, h
	m.help.Width = w
	inputW := modalBodyWidth(w) - labelWidth - 2
	if inputW < 10 {
		inputW = 10
	}
	m.vs.search.Width = max(1, w-4)
	if d := m.vs.draft; d != nil {
		d.key.Width = inputW
		d.expiry.Width = inputW
		d.note.Width = inputW
	}
	m.vs.help.Width = max(1, w)
	m.vs.help.Height = max(1, h-chromeLines)
	m.clampCursor()
}
