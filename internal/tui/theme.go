package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"spamdb-curses/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The editor must stay readable on both light and dark terminal backgrounds.
// Colors are lipgloss.AdaptiveColor and faint styling is only applied on dark
// backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      = ac("240", "243")
	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")
	colorSurfaceBg  = ac("255", "235")
	colorSurfaceFg  = ac("235", "252")
	colorControlBg  = ac("252", "235")
	colorInputBg    = ac("254", "234")
	colorAccent     = ac("27", "62")
	colorAccentFg   = ac("255", "235")
	colorError      = ac("160", "203")
	colorWarn       = ac("130", "214")

	colorAllow    = ac("28", "114")
	colorDeny     = ac("160", "203")
	colorGreylist = ac("130", "179")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleClass(c model.Classification) lipgloss.Style {
	st := lipgloss.NewStyle()
	switch c {
	case model.ClassAllow:
		return st.Foreground(colorAllow)
	case model.ClassDeny:
		return st.Foreground(colorDeny).Bold(true)
	case model.ClassGreylist:
		return st.Foreground(colorGreylist)
	}
	return st
}

// applyColorProfilePreference sets Lip Gloss's color profile for the
// interactive session. termenv.EnvColorProfile honors CLICOLOR, which can
// switch colors off in a full-screen program; only NO_COLOR is honored here.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// Trust TERM/COLORTERM when they claim more than the probe found.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && profile != termenv.TrueColor {
		profile = termenv.ANSI256
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures Lip Gloss's background detection.
//
// Priority:
// 1) override (the --theme flag or ui.theme config), light|dark|auto
// 2) SPAMDB_TUI_THEME=light|dark|auto
// 3) SPAMDB_TUI_DARKBG=true|false
// 4) COLORFGBG ("fg;bg")
func applyThemePreference(override string) {
	for _, v := range []string{override, os.Getenv("SPAMDB_TUI_THEME")} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "light":
			lipgloss.SetHasDarkBackground(false)
			return
		case "dark":
			lipgloss.SetHasDarkBackground(true)
			return
		}
	}

	if dark, ok := darkBackgroundFromEnv(); ok {
		lipgloss.SetHasDarkBackground(dark)
		return
	}

	// Terminal.app rarely sets COLORFGBG; fall back to the OS appearance.
	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
		}
	}
}

func darkBackgroundFromEnv() (dark bool, ok bool) {
	if v := strings.TrimSpace(os.Getenv("SPAMDB_TUI_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b, true
		}
	}
	// COLORFGBG is "fg;bg", sometimes with more segments; the last is bg.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			// xterm palette: 0-6 dark, 7-15 light.
			return bg < 7, true
		}
	}
	return false, false
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// `defaults read -g AppleInterfaceStyle` prints "Dark" in dark mode and
	// exits 1 in light mode.
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
