package tui

import (
	"fmt"
	"strings"
	"time"

	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	minFrameWidth  = 20
	minFrameHeight = 5

	// header line + status line + key help line
	chromeLines = 3

	classColWidth = 8
	dateLayout    = "2006-01-02 15:04"
)

// frame is everything needed to draw one screen. Building it reads the
// model; rendering it does not.
type frame struct {
	width, height int

	path     string
	total    int
	expired  int
	dirty    bool
	sort     store.SortOrder
	external bool
	conflict bool
	now      time.Time

	mode   mode
	rows   []model.Record
	cursor int
	filter string
	search string

	// overlay is the pre-rendered modal or help body for non-browse modes.
	overlay string

	status    string
	statusErr bool

	help     help.Model
	bindings []key.Binding
}

func (m appModel) View() string {
	if m.quitting {
		return ""
	}
	return renderFrame(m.frame())
}

func (m appModel) frame() frame {
	now := m.now()
	f := frame{
		width:     m.width,
		height:    m.height,
		path:      m.sess.Path(),
		total:     m.sess.DB().Len(),
		expired:   m.sess.DB().CountExpired(now),
		dirty:     m.dirty,
		sort:      m.vs.sort,
		external:  m.vs.external,
		conflict:  m.vs.conflict,
		now:       now,
		mode:      m.vs.mode,
		rows:      m.rows,
		cursor:    m.vs.cursor,
		filter:    m.vs.filter,
		status:    m.vs.status,
		statusErr: m.vs.statusErr,
		help:      m.help,
		bindings:  m.keys.shortHelp(m.vs.mode, m.vs.filter != ""),
	}
	if m.vs.mode == modeSearch {
		f.search = m.vs.search.View()
	}

	switch m.vs.mode {
	case modeEdit:
		f.overlay = m.viewEditForm()
	case modeConfirmDelete:
		f.overlay = renderConfirmModal(m.width, "Delete record",
			fmt.Sprintf("Delete %q? The file is not touched until you save.", m.vs.deleteKey),
			"Delete", "Cancel", m.vs.confirmFocus)
	case modeConfirmPurge:
		f.overlay = renderConfirmModal(m.width, "Purge expired",
			fmt.Sprintf("Remove %d expired record(s)?", f.expired),
			"Purge", "Cancel", m.vs.confirmFocus)
	case modeConfirmQuit:
		f.overlay = renderQuitModal(m.width, m.vs.quitFocus)
	case modeHelp:
		f.overlay = m.vs.help.View()
	}
	return f
}

// listHeight is the number of table rows that fit in a frame of height h.
func listHeight(h int, searchLine bool) int {
	n := h - chromeLines - 1 // column header
	if searchLine {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

func renderFrame(f frame) string {
	w, h := f.width, f.height
	if w <= 0 || h <= 0 {
		return ""
	}
	if w < minFrameWidth || h < minFrameHeight {
		msg := fmt.Sprintf("%d records", f.total)
		if f.dirty {
			msg += " *"
		}
		return normalizePane(msg+"\nterminal too small", w, h)
	}

	bodyH := h - chromeLines
	var body string
	switch f.mode {
	case modeBrowse, modeSearch:
		body = renderTable(f, bodyH)
	case modeHelp:
		body = f.overlay
	default:
		body = placeCentered(w, bodyH, f.overlay)
	}

	return strings.Join([]string{
		renderHeader(f),
		normalizePane(body, w, bodyH),
		renderStatus(f),
		renderFooter(f),
	}, "\n")
}

func renderHeader(f frame) string {
	parts := []string{lipgloss.NewStyle().Bold(true).Render("spamdb")}
	counts := fmt.Sprintf("%d records", f.total)
	if f.filter != "" {
		counts = fmt.Sprintf("%d/%d records", len(f.rows), f.total)
	}
	parts = append(parts, counts)
	if f.expired > 0 {
		parts = append(parts, fmt.Sprintf("%d expired", f.expired))
	}
	parts = append(parts, "sort:"+f.sort.String())
	if f.dirty {
		parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(colorWarn).Render("[modified]"))
	}
	if f.external || f.conflict {
		parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(colorError).Render("changed on disk"))
	}
	// The path goes last so it is the first thing cut on narrow terminals.
	parts = append(parts, f.path)
	return fitLine(strings.Join(parts, "  "), f.width)
}

type columns struct {
	key, expiry, note int
}

// layoutColumns splits the width between the table columns. The note and
// expiry columns are dropped, in that order, when there is no room.
func layoutColumns(width int) columns {
	avail := width - 2 // cursor marker
	c := columns{expiry: len(dateLayout)}
	if width >= 100 {
		c.expiry += 16 // relative time
	}
	c.key = (avail - classColWidth - c.expiry - 3) / 2
	if c.key > 40 {
		c.key = 40
	}
	if c.key < 16 {
		c.key = 16
	}
	c.note = avail - c.key - classColWidth - c.expiry - 3
	if c.note < 8 {
		c.note = 0
	}
	if c.key+classColWidth+c.expiry+2 > avail {
		c.expiry = 0
	}
	if c.key+classColWidth+1 > avail {
		c.key = avail - classColWidth - 1
	}
	return c
}

func (c columns) row(marker, key, class, expiry, note string) string {
	parts := []string{marker + fitLine(key, c.key), class}
	if c.expiry > 0 {
		parts = append(parts, fitLine(expiry, c.expiry))
	}
	if c.note > 0 {
		parts = append(parts, truncate(note, c.note))
	}
	return strings.Join(parts, " ")
}

func renderTable(f frame, bodyH int) string {
	searchLine := f.mode == modeSearch || f.filter != ""
	n := listHeight(f.height, searchLine)
	cols := layoutColumns(f.width)

	lines := make([]string, 0, bodyH)
	hdr := cols.row("  ", "KEY", fitLine("CLASS", classColWidth), "EXPIRES", "NOTE")
	lines = append(lines, styleMuted().Render(fitLine(hdr, f.width)))

	if len(f.rows) == 0 {
		msg := "no records; press n to add one"
		if f.filter != "" {
			msg = "no records match the filter"
		}
		lines = append(lines, styleMuted().Render(fitLine("  "+msg, f.width)))
	}

	// Page around the cursor.
	start := 0
	if n > 0 && f.cursor >= n {
		start = (f.cursor / n) * n
	}
	end := start + n
	if end > len(f.rows) {
		end = len(f.rows)
	}
	for i := start; i < end; i++ {
		lines = append(lines, renderRow(f, cols, f.rows[i], i == f.cursor))
	}
	for len(lines) < n+1 {
		lines = append(lines, "")
	}

	if searchLine {
		// The input line wins over the column header and then the rows when
		// the body is too short for all of them.
		if over := len(lines) + 1 - bodyH; over > 0 && bodyH > 0 {
			lines = lines[1:]
			if over > 1 {
				lines = lines[:max(0, len(lines)-(over-1))]
			}
		}
		if f.mode == modeSearch {
			lines = append(lines, fitLine("/ "+f.search, f.width))
		} else {
			lines = append(lines, styleMuted().Render(fitLine("filter: "+f.filter+"  (esc clears)", f.width)))
		}
	}
	return strings.Join(lines, "\n")
}

func renderRow(f frame, cols columns, r model.Record, selected bool) string {
	class := fitLine(string(r.Class), classColWidth)
	expiry := expiryCell(r.Expires, f.now, cols.expiry > len(dateLayout))

	if selected {
		ln := cols.row(glyphSelected(), r.Key, class, expiry, r.Note)
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Render(fitLine(ln, f.width))
	}

	ln := cols.row("  ", r.Key, styleClass(r.Class).Render(class), expiry, r.Note)
	ln = fitLine(ln, f.width)
	if r.Expired(f.now) {
		return styleMuted().Render(ln)
	}
	return ln
}

func expiryCell(t *time.Time, now time.Time, relative bool) string {
	if t == nil {
		return "never"
	}
	s := t.UTC().Format(dateLayout)
	if !t.After(now) {
		if relative {
			return s + " expired"
		}
		return s
	}
	if relative {
		s += " " + humanize.RelTime(*t, now, "ago", "from now")
	}
	return s
}

func renderStatus(f frame) string {
	right := ""
	n := listHeight(f.height, f.mode == modeSearch || f.filter != "")
	if (f.mode == modeBrowse || f.mode == modeSearch) && len(f.rows) > n {
		right = fmt.Sprintf("page %d/%d", f.cursor/n+1, (len(f.rows)+n-1)/n)
	}

	left := f.status
	leftW := f.width - len(right) - 1
	if right == "" {
		leftW = f.width
	}
	ln := fitLine(left, leftW)
	if right != "" {
		ln += " " + right
	}
	if f.statusErr {
		return lipgloss.NewStyle().Foreground(colorError).Render(ln)
	}
	return ln
}

func renderFooter(f frame) string {
	h := f.help
	h.Width = f.width
	return fitLine(h.ShortHelpView(f.bindings), f.width)
}

func (m appModel) viewEditForm() string {
	d := m.vs.draft
	if d == nil {
		return ""
	}
	bodyW := modalBodyWidth(m.width)

	classes := make([]string, 0, len(model.Classifications))
	for _, c := range model.Classifications {
		label := " " + string(c) + " "
		if c == d.class {
			st := lipgloss.NewStyle().Bold(true).Foreground(colorAccentFg).Background(colorAccent)
			if d.focus != fieldClass {
				st = lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
			}
			label = st.Render(label)
		}
		classes = append(classes, label)
	}
	classLbl := lipgloss.NewStyle().Width(labelWidth)
	if d.focus == fieldClass {
		classLbl = classLbl.Bold(true).Foreground(colorAccent)
	} else {
		classLbl = classLbl.Inherit(styleMuted())
	}

	lines := []string{
		renderLabeledInput(bodyW, "key", d.focus == fieldKey, d.key.View()),
		"",
		classLbl.Render("class") + strings.Join(classes, " "),
		"",
		renderLabeledInput(bodyW, "expires", d.focus == fieldExpiry, d.expiry.View()),
		"",
		renderLabeledInput(bodyW, "note", d.focus == fieldNote, d.note.View()),
		"",
	}
	if d.err != "" {
		lines = append(lines, lipgloss.NewStyle().Width(bodyW).Foreground(colorError).Render(d.err))
	} else {
		lines = append(lines, styleMuted().Width(bodyW).Render("enter: apply   esc: cancel   tab: next field"))
	}

	title := "New record"
	if !d.isNew() {
		title = "Edit " + d.origKey
	}
	return renderModalBox(m.width, title, strings.Join(lines, "\n"))
}
