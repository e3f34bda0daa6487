package tui

import (
	"os"
	"strings"
	"sync"
)

// Some terminal fonts render the selection marker and ellipsis poorly, so an
// ASCII set can be chosen with SPAMDB_TUI_GLYPHS=ascii.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SPAMDB_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

// glyphSelected marks the selected table row; it is two columns wide.
func glyphSelected() string {
	if glyphs() == glyphSetASCII {
		return "> "
	}
	return "▸ "
}

func glyphEllipsis() string {
	if glyphs() == glyphSetASCII {
		return "~"
	}
	return "…"
}
