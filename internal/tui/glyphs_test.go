package tui

import "testing"

func TestGlyphs_FromEnv(t *testing.T) {
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	t.Setenv("SPAMDB_TUI_GLYPHS", "")
	setGlyphs(glyphSetUnicode)
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetUnicode {
		t.Fatalf("expected unicode glyphs by default; got %v", got)
	}

	t.Setenv("SPAMDB_TUI_GLYPHS", "ascii")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected ascii glyphs; got %v", got)
	}
	if glyphSelected() != "> " || fitLine("abcdef", 4) != "abc~" {
		t.Fatalf("ascii glyphs not applied: %q %q", glyphSelected(), fitLine("abcdef", 4))
	}

	// Unknown values keep the current set.
	t.Setenv("SPAMDB_TUI_GLYPHS", "bogus")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected unknown to be ignored; got %v", got)
	}
}
