package tui

import (
	"context"
	"fmt"
	"strings"

	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if m.vs.mode == modeHelp {
			m.vs.help.SetContent(renderHelp(m.width))
		}
		return m, nil

	case reloadTickMsg:
		m.vs.external = m.sess.ExternallyModified()
		return m, tickReload()

	case flashDoneMsg:
		if msg.seq == m.flashSeq && !m.vs.statusErr {
			m.vs.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		seq := m.flashSeq
		var cmd tea.Cmd
		m, cmd = m.updateKey(msg)
		if m.flashSeq != seq {
			return m, tea.Batch(cmd, m.flashCmd())
		}
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if msg.String() == "ctrl+c" && m.vs.mode == modeEdit {
		m.vs.draft = nil
		m.vs.mode = modeBrowse
		m.setStatus("edit canceled; ctrl+c again quits")
		return m, nil
	}
	if msg.String() == "ctrl+c" && m.vs.mode != modeConfirmQuit {
		m.vs.mode = modeBrowse
		m.vs.search.Blur()
		return m.requestQuit()
	}

	switch m.vs.mode {
	case modeSearch:
		return m.updateSearch(msg)
	case modeEdit:
		return m.updateEdit(msg)
	case modeConfirmDelete, modeConfirmPurge:
		return m.updateConfirm(msg)
	case modeConfirmQuit:
		return m.updateConfirmQuit(msg)
	case modeHelp:
		return m.updateHelp(msg)
	}
	return m.updateBrowse(msg)
}

func (m appModel) updateBrowse(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.requestQuit()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.pageSize())
	case key.Matches(msg, m.keys.Home):
		m.vs.cursor = 0
		m.clampCursor()
	case key.Matches(msg, m.keys.End):
		m.vs.cursor = len(m.rows) - 1
		m.clampCursor()

	case key.Matches(msg, m.keys.Search):
		m.vs.mode = modeSearch
		m.vs.search.SetValue(m.vs.filter)
		m.vs.search.CursorEnd()
		m.vs.search.Focus()

	case key.Matches(msg, m.keys.New):
		m.startEdit(nil)
	case key.Matches(msg, m.keys.Edit):
		if r, ok := m.selected(); ok {
			m.startEdit(&r)
		}

	case key.Matches(msg, m.keys.Delete):
		if r, ok := m.selected(); ok {
			m.vs.mode = modeConfirmDelete
			m.vs.deleteKey = r.Key
			m.vs.confirmFocus = confirmFocusConfirm
		}

	case key.Matches(msg, m.keys.Save):
		m.save()

	case key.Matches(msg, m.keys.Sort):
		cur := ""
		if r, ok := m.selected(); ok {
			cur = r.Key
		}
		m.vs.sort = m.vs.sort.Next()
		m.refreshRows(cur)
		m.setStatus("sorted by " + m.vs.sort.String())

	case key.Matches(msg, m.keys.Purge):
		if n := m.sess.DB().CountExpired(m.now()); n == 0 {
			m.setStatus("no expired records")
		} else {
			m.vs.mode = modeConfirmPurge
			m.vs.confirmFocus = confirmFocusConfirm
		}

	case key.Matches(msg, m.keys.Help):
		m.vs.mode = modeHelp
		m.vs.help.SetContent(renderHelp(m.width))
		m.vs.help.GotoTop()

	case key.Matches(msg, m.keys.Clear):
		if m.vs.filter != "" {
			cur := ""
			if r, ok := m.selected(); ok {
				cur = r.Key
			}
			m.vs.filter = ""
			m.refreshRows(cur)
		}
	}
	return m, nil
}

// requestQuit ends the session when there is nothing to lose and otherwise
// asks whether to save or discard.
func (m appModel) requestQuit() (appModel, tea.Cmd) {
	if !m.dirty {
		m.quitting = true
		return m, tea.Quit
	}
	m.vs.mode = modeConfirmQuit
	m.vs.quitFocus = quitSave
	return m, nil
}

func (m appModel) updateSearch(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.vs.mode = modeBrowse
		m.vs.search.Blur()
		return m, nil
	case "esc", "ctrl+g":
		m.vs.mode = modeBrowse
		m.vs.search.Blur()
		m.vs.search.SetValue("")
		m.vs.filter = ""
		m.refreshRows("")
		return m, nil
	}

	var cmd tea.Cmd
	m.vs.search, cmd = m.vs.search.Update(msg)
	if v := m.vs.search.Value(); v != m.vs.filter {
		m.vs.filter = v
		m.vs.cursor = 0
		m.refreshRows("")
	}
	return m, cmd
}

func (m *appModel) startEdit(r *model.Record) {
	inputW := modalBodyWidth(m.width) - labelWidth - 2
	if inputW < 10 {
		inputW = 10
	}
	d := &editDraft{
		key:    newInput("203.0.113.5, 198.51.100.0/24, user@example.com, @example.com", 255),
		class:  model.ClassDeny,
		expiry: newInput("never  (2025-12-31, 2025-12-31T08:00:00Z, +7d, +36h)", 64),
		note:   newInput("optional", 512),
	}
	if r != nil {
		d.origKey = r.Key
		d.key.SetValue(r.Key)
		d.class = r.Class
		d.expiry.SetValue(model.FormatExpiry(r.Expires))
		d.note.SetValue(r.Note)
		d.key.CursorEnd()
		d.expiry.CursorEnd()
		d.note.CursorEnd()
	}
	d.key.Width = inputW
	d.expiry.Width = inputW
	d.note.Width = inputW

	m.vs.draft = d
	m.vs.mode = modeEdit
	m.focusField(fieldKey)
}

func (m *appModel) focusField(f editField) {
	d := m.vs.draft
	if d == nil {
		return
	}
	d.focus = f
	d.key.Blur()
	d.expiry.Blur()
	d.note.Blur()
	switch f {
	case fieldKey:
		d.key.Focus()
	case fieldExpiry:
		d.expiry.Focus()
	case fieldNote:
		d.note.Focus()
	}
}

func (m appModel) updateEdit(msg tea.KeyMsg) (appModel, tea.Cmd) {
	d := m.vs.draft
	if d == nil {
		m.vs.mode = modeBrowse
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.vs.draft = nil
		m.vs.mode = modeBrowse
		m.setStatus("edit canceled")
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.confirmEdit()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.focusField((d.focus + 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.focusField((d.focus + fieldCount - 1) % fieldCount)
		return m, nil
	}

	var cmd tea.Cmd
	switch d.focus {
	case fieldClass:
		switch msg.String() {
		case "right", " ":
			d.class = d.class.Next()
		case "left":
			d.class = d.class.Prev()
		case "a":
			d.class = model.ClassAllow
		case "d":
			d.class = model.ClassDeny
		case "g":
			d.class = model.ClassGreylist
		}
	case fieldKey:
		d.key, cmd = d.key.Update(msg)
	case fieldExpiry:
		d.expiry, cmd = d.expiry.Update(msg)
	case fieldNote:
		d.note, cmd = d.note.Update(msg)
	}
	d.err = ""
	return m, cmd
}

// confirmEdit validates the draft and applies it to the DB. On failure the
// draft stays open with the error shown inline.
func (m *appModel) confirmEdit() {
	d := m.vs.draft
	exp, err := model.ParseExpiry(d.expiry.Value(), m.now())
	if err != nil {
		d.err = err.Error()
		d.focus = fieldExpiry
		m.focusField(fieldExpiry)
		return
	}
	// An untouched key keeps its stored spelling; only typed keys are
	// normalized.
	key := strings.TrimSpace(d.key.Value())
	if d.isNew() || key != d.origKey {
		key = model.NormalizeKey(key)
	}
	rec := model.Record{
		Key:     key,
		Class:   d.class,
		Expires: exp,
		Note:    strings.TrimSpace(d.note.Value()),
	}

	db := m.sess.DB()
	if err := db.Validate(rec); err != nil {
		d.err = err.Error()
		return
	}

	if d.isNew() {
		err = db.Insert(rec)
	} else {
		prev, _ := db.Get(d.origKey)
		if prev.Equal(rec.Normalized()) {
			m.vs.draft = nil
			m.vs.mode = modeBrowse
			m.setStatus("no changes")
			return
		}
		err = db.Update(d.origKey, rec)
	}
	if err != nil {
		d.err = err.Error()
		return
	}

	m.dirty = true
	m.vs.draft = nil
	m.vs.mode = modeBrowse
	m.refreshRows(rec.Key)
	if d.isNew() {
		m.setStatus("added " + rec.Key)
	} else {
		m.setStatus("updated " + rec.Key)
	}
	m.log.Debug("record edited", "key", rec.Key, "class", rec.Class, "new", d.isNew())
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.vs.confirmFocus == confirmFocusConfirm {
			m.vs.confirmFocus = confirmFocusCancel
		} else {
			m.vs.confirmFocus = confirmFocusConfirm
		}
	case "y":
		m.applyConfirm()
	case "n", "esc", "ctrl+g", "q":
		m.vs.mode = modeBrowse
		m.vs.deleteKey = ""
	case "enter":
		if m.vs.confirmFocus == confirmFocusConfirm {
			m.applyConfirm()
		} else {
			m.vs.mode = modeBrowse
			m.vs.deleteKey = ""
		}
	}
	return m, nil
}

func (m *appModel) applyConfirm() {
	db := m.sess.DB()
	switch m.vs.mode {
	case modeConfirmDelete:
		k := m.vs.deleteKey
		if err := db.Remove(k); err != nil {
			m.setError(err.Error())
		} else {
			m.dirty = true
			m.setStatus("deleted " + k)
			m.log.Debug("record deleted", "key", k)
		}
		m.vs.deleteKey = ""
	case modeConfirmPurge:
		purged := db.PurgeExpired(m.now())
		if len(purged) > 0 {
			m.dirty = true
		}
		m.setStatus(fmt.Sprintf("purged %d expired record(s)", len(purged)))
		m.log.Debug("purged expired records", "count", len(purged))
	}
	m.vs.mode = modeBrowse
	m.refreshRows("")
}

func (m appModel) updateConfirmQuit(msg tea.KeyMsg) (appModel, tea.Cmd) {
	choice := quitChoice(-1)
	switch msg.String() {
	case "tab", "right", "l":
		m.vs.quitFocus = (m.vs.quitFocus + 1) % quitChoiceCount
	case "shift+tab", "left", "h":
		m.vs.quitFocus = (m.vs.quitFocus + quitChoiceCount - 1) % quitChoiceCount
	case "s", "y":
		choice = quitSave
	case "d":
		choice = quitDiscard
	case "c", "n", "esc", "ctrl+g":
		choice = quitCancel
	case "enter":
		choice = m.vs.quitFocus
	}

	switch choice {
	case quitSave:
		if !m.save() {
			// Keep the prompt open so the operator can retry or discard.
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case quitDiscard:
		m.result.Discarded = true
		m.quitting = true
		m.log.Warn("quitting with unsaved changes discarded", "path", m.sess.Path())
		return m, tea.Quit
	case quitCancel:
		m.vs.mode = modeBrowse
	}
	return m, nil
}

func (m appModel) updateHelp(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q", "ctrl+g":
		m.vs.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.vs.help, cmd = m.vs.help.Update(msg)
	return m, cmd
}

// save commits the DB. After a refused commit because of an on-disk change,
// the next save overwrites. It reports whether the commit succeeded.
func (m *appModel) save() bool {
	ctx := context.Background()
	var (
		changes []store.Change
		err     error
	)
	if m.vs.conflict {
		changes, err = m.sess.ForceCommit(ctx)
	} else {
		changes, err = m.sess.Commit(ctx)
	}
	if err != nil {
		if store.IsConflict(err) {
			m.vs.conflict = true
			m.setError("file changed on disk since it was loaded; save again to overwrite")
		} else {
			m.setError("save failed: " + err.Error() + " (edits kept in memory)")
		}
		m.log.Error("save failed", "path", m.sess.Path(), "err", err)
		return false
	}

	m.dirty = false
	m.vs.conflict = false
	m.vs.external = false
	m.result.Commits++

	status := fmt.Sprintf("saved %d record(s), %d change(s)", m.sess.DB().Len(), len(changes))
	if m.audit != nil && len(changes) > 0 {
		if err := m.audit.Record(ctx, m.sess.Path(), changes); err != nil {
			m.log.Warn("audit journal write failed", "err", err)
			m.setError(status + "; audit journal failed: " + err.Error())
			return true
		}
	}
	m.setStatus(status)
	return true
}
