package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}

	// Inputs always render as one visual line; a stray newline would look
	// like the input wrapped while typing.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Terminate styling so the cut does not bleed.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}

// renderLabeledInput renders "label  [input]" on one line. The label is
// highlighted when the field has focus.
func renderLabeledInput(bodyW int, label string, focused bool, inputView string) string {
	lbl := lipgloss.NewStyle().Width(labelWidth)
	if focused {
		lbl = lbl.Bold(true).Foreground(colorAccent)
	} else {
		lbl = lbl.Inherit(styleMuted())
	}
	return lbl.Render(label) + renderInputLine(bodyW-labelWidth, inputView)
}
