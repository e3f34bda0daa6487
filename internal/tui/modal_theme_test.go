package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestRenderModalBox_UsesLightBackground_WhenThemeForcedLight(t *testing.T) {
	oldProfile := lipgloss.ColorProfile()
	oldBG := lipgloss.HasDarkBackground()
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(oldProfile)
		lipgloss.SetHasDarkBackground(oldBG)
	})

	t.Setenv("SPAMDB_TUI_THEME", "")
	t.Setenv("SPAMDB_TUI_DARKBG", "true")
	applyThemePreference("light")
	if lipgloss.HasDarkBackground() {
		t.Fatalf("expected HasDarkBackground=false after forcing light theme")
	}

	out := renderModalBox(80, "Title", "Body")

	// colorSurfaceBg is ac("255","235").
	if !strings.Contains(out, "48;5;255") {
		t.Fatalf("expected modal to include light background (48;5;255); got: %q", out)
	}
}

func TestApplyThemePreference_EnvFallbacks(t *testing.T) {
	oldBG := lipgloss.HasDarkBackground()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(oldBG) })

	t.Setenv("SPAMDB_TUI_THEME", "dark")
	t.Setenv("SPAMDB_TUI_DARKBG", "")
	applyThemePreference("auto")
	if !lipgloss.HasDarkBackground() {
		t.Fatalf("SPAMDB_TUI_THEME=dark should apply when the override is auto")
	}

	t.Setenv("SPAMDB_TUI_THEME", "")
	t.Setenv("COLORFGBG", "0;15")
	applyThemePreference("")
	if lipgloss.HasDarkBackground() {
		t.Fatalf("COLORFGBG with bg 15 is a light background")
	}
}
