package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The picker must stay readable on light and dark terminals, so colors are
// adaptive and faint styling is only used on dark backgrounds.

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
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorChromeFg   lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg   lipgloss.TerminalColor = ac("255", "235")
	colorControlBg  lipgloss.TerminalColor = ac("252", "235")
	colorErrorFg    lipgloss.TerminalColor = ac("160", "203")
	colorOKFg       lipgloss.TerminalColor = ac("28", "114")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleHeader(focused bool) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(colorChromeFg).Bold(true)
	if focused {
		st = st.Foreground(colorAccent).Underline(true)
	}
	return st
}

func styleCenter() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorAccent).Bold(true)
}

func styleButton(enabled bool) lipgloss.Style {
	st := lipgloss.NewStyle().Padding(0, 2)
	if enabled {
		return st.Foreground(colorAccentFg).Background(colorAccent).Bold(true)
	}
	return faintIfDark(st.Foreground(colorMuted).Background(colorControlBg))
}

func styleError() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorErrorFg).Bold(true) }

func styleOK() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorOKFg) }

// applyColorProfilePreference honors NO_COLOR and otherwise trusts TERM and
// COLORTERM when they claim more than termenv detects.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference picks the adaptive palette variant.
//
// Priority:
// 1) DATEWHEEL_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg", last segment is the background)
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DATEWHEEL_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
