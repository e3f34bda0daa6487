package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	maxModalWidth = 72
	// labelWidth is the column reserved for field labels in the edit form.
	labelWidth = 8
)

func modalWidth(width int) int {
	w := width - 4
	if w > maxModalWidth {
		w = maxModalWidth
	}
	if w < 1 {
		w = 1
	}
	return w
}

// modalBodyWidth is the usable content width inside a modal on a terminal
// of the given width.
func modalBodyWidth(width int) int {
	w := modalWidth(width) - 4
	if w < 1 {
		w = 1
	}
	return w
}

func renderModalBox(width int, title string, body string) string {
	w := modalWidth(width)
	header := lipgloss.NewStyle().
		Width(w).
		Padding(0, 2).
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Render(truncate(title, modalBodyWidth(width)))
	content := lipgloss.NewStyle().
		Width(w).
		Padding(1, 2).
		Foreground(colorSurfaceFg).
		Background(colorSurfaceBg).
		Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}

func modalButtons(labels []string, focus int) string {
	// No borders on buttons: nested borders on a colored modal background
	// leave artifacts in some terminals.
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	sep := lipgloss.NewStyle().Background(colorSurfaceBg).Render(" ")
	parts := make([]string, 0, 2*len(labels))
	for i, l := range labels {
		if i > 0 {
			parts = append(parts, sep)
		}
		if i == focus {
			parts = append(parts, btnActive.Render(l))
		} else {
			parts = append(parts, btnBase.Render(l))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderConfirmModal(width int, title string, body string, confirmLabel string, cancelLabel string, focus confirmModalFocus) string {
	bodyW := modalBodyWidth(width)
	controls := modalButtons([]string{confirmLabel, cancelLabel}, int(focus))
	help := styleMuted().Width(bodyW).Render("y: yes   n/esc: no   tab: focus   enter: select")

	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(body),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, title, content)
}

func renderQuitModal(width int, focus quitChoice) string {
	bodyW := modalBodyWidth(width)
	controls := modalButtons([]string{"Save", "Discard", "Cancel"}, int(focus))
	help := styleMuted().Width(bodyW).Render("s: save   d: discard   c/esc: cancel")

	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render("There are unsaved changes."),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, "Quit", content)
}
