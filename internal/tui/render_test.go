package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

func resized(t *testing.T, m appModel, w, h int) appModel {
	t.Helper()
	mm, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return mm.(appModel)
}

func assertFrameFits(t *testing.T, out string, w, h int) {
	t.Helper()
	if out == "" {
		return
	}
	lines := strings.Split(out, "\n")
	if len(lines) > h {
		t.Fatalf("frame has %d lines; terminal has %d", len(lines), h)
	}
	for i, ln := range lines {
		if got := xansi.StringWidth(ln); got > w {
			t.Fatalf("line %d is %d columns wide; terminal has %d: %q", i, got, w, ln)
		}
	}
}

func TestView_TruncatesLongFields(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 200) + ".example"
	note := strings.Repeat("note ", 100)
	m := newTestModel(openFixture(t, writeFixture(t, long+"|deny|-|"+note+"\n")), nil)
	m = resized(t, m, 60, 10)

	out := m.View()
	assertFrameFits(t, out, 60, 10)
	if !strings.Contains(xansi.Strip(out), "…") {
		t.Fatalf("expected an ellipsis for the truncated key")
	}
}

func TestView_PaginatesAroundCursor(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := range 50 {
		b.WriteString("host")
		b.WriteString(strings.Repeat("a", i/26))
		b.WriteByte(byte('a' + i%26))
		b.WriteString(".example|deny|-|\n")
	}
	m := newTestModel(openFixture(t, writeFixture(t, b.String())), nil)
	m = resized(t, m, 80, 12)
	m = press(t, m, "G")

	out := xansi.Strip(m.View())
	assertFrameFits(t, out, 80, 12)
	last := m.rows[len(m.rows)-1].Key
	if !strings.Contains(out, last) {
		t.Fatalf("expected the last record %q on screen:\n%s", last, out)
	}
	if strings.Contains(out, m.rows[0].Key+" ") {
		t.Fatalf("first record should be on an earlier page")
	}
	if !strings.Contains(out, "page ") {
		t.Fatalf("expected a page indicator")
	}
}

func TestView_DegradesOnTinyTerminals(t *testing.T) {
	t.Parallel()

	m := newTestModel(openFixture(t, writeFixture(t, "a.example|deny|-|\n")), nil)
	sizes := [][2]int{{0, 0}, {1, 1}, {5, 2}, {19, 4}, {20, 5}, {30, 6}}
	for _, sz := range sizes {
		m = resized(t, m, sz[0], sz[1])
		for _, keys := range [][]string{nil, {"n"}, {"esc", "d"}, {"n", "?"}} {
			m = press(t, m, keys...)
			assertFrameFits(t, m.View(), sz[0], sz[1])
		}
		m = press(t, m, "esc")
	}
}

func TestView_ShowsModifiedAndConflictMarkers(t *testing.T) {
	t.Parallel()

	m := newTestModel(openFixture(t, writeFixture(t, "a.example|deny|-|\n")), nil)
	m = resized(t, m, 120, 20)
	if strings.Contains(xansi.Strip(m.View()), "[modified]") {
		t.Fatalf("clean session must not show the modified marker")
	}
	m = press(t, m, "d", "y")
	out := xansi.Strip(m.View())
	if !strings.Contains(out, "[modified]") {
		t.Fatalf("expected modified marker:\n%s", out)
	}
	m.vs.external = true
	if !strings.Contains(xansi.Strip(m.View()), "changed on disk") {
		t.Fatalf("expected external change warning")
	}
}

func TestView_EditFormShowsInlineError(t *testing.T) {
	t.Parallel()

	m := newTestModel(openFixture(t, writeFixture(t, "")), nil)
	m = resized(t, m, 100, 24)
	m = press(t, m, "n")
	m = typeText(t, m, "bad|key")
	m = press(t, m, "enter")

	out := xansi.Strip(m.View())
	assertFrameFits(t, out, 100, 24)
	if !strings.Contains(out, "New record") || !strings.Contains(out, "must not contain whitespace") {
		t.Fatalf("expected edit form with inline error:\n%s", out)
	}
}

func TestExpiryCell(t *testing.T) {
	t.Parallel()

	if got := expiryCell(nil, testNow, true); got != "never" {
		t.Fatalf("nil expiry: %q", got)
	}
	future := testNow.Add(72 * time.Hour)
	if got := expiryCell(&future, testNow, true); got != "2025-06-04 12:00 3 days from now" {
		t.Fatalf("future expiry: %q", got)
	}
	if got := expiryCell(&testNow, testNow, true); !strings.HasSuffix(got, "expired") {
		t.Fatalf("expired at now: %q", got)
	}
}

func TestView_SearchInputVisibleAtMinimumHeight(t *testing.T) {
	t.Parallel()

	m := newTestModel(openFixture(t, writeFixture(t, "a.example|deny|-|\nb.example|allow|-|\n")), nil)
	m = resized(t, m, 40, minFrameHeight)
	m = press(t, m, "/")
	m = typeText(t, m, "b.ex")

	out := xansi.Strip(m.View())
	assertFrameFits(t, out, 40, minFrameHeight)
	if !strings.Contains(out, "/ ") || !strings.Contains(out, "b.ex") {
		t.Fatalf("expected the search input on screen:\n%s", out)
	}
	if !strings.Contains(out, "b.example") {
		t.Fatalf("expected the matching row on screen:\n%s", out)
	}
}
