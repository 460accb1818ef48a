package tui

import (
	"os"
	"strconv"
	"strings"

	"projcal/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. AdaptiveColor keeps the calendar readable on light and dark
// terminals; faint styling is only applied on dark backgrounds.

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
	colorMuted       lipgloss.TerminalColor = ac("240", "243")
	colorChromeFg    lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg  lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg  lipgloss.TerminalColor = ac("235", "255")
	colorBorder      lipgloss.TerminalColor = ac("250", "240")
	colorModalBorder lipgloss.TerminalColor = ac("232", "250")
	colorAccent      lipgloss.TerminalColor = ac("27", "62")
	colorTodayFg     lipgloss.TerminalColor = ac("#1e90ff", "#1e90ff")
	colorErrorFg     lipgloss.TerminalColor = ac("160", "203")

	// Kind colours match the web dashboard.
	colorProject lipgloss.TerminalColor = lipgloss.Color("#ff007f")
	colorEpic    lipgloss.TerminalColor = lipgloss.Color("#f7b32b")
	colorTask    lipgloss.TerminalColor = lipgloss.Color("#1e90ff")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleChrome() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeFg)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
}

func styleToday() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorTodayFg).Bold(true)
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorErrorFg)
}

func kindColor(k model.Kind) lipgloss.TerminalColor {
	switch k {
	case model.KindProject:
		return colorProject
	case model.KindEpic:
		return colorEpic
	default:
		return colorTask
	}
}

// kindBadge is the coloured icon drawn before an entity title.
func kindBadge(k model.Kind) string {
	return lipgloss.NewStyle().Foreground(kindColor(k)).Render(kindIcon(k))
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
// Only NO_COLOR is honoured; CLICOLOR handling in termenv can disable colours
// in an interactive session.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference overrides background detection:
// PROJCAL_TUI_THEME=light|dark|auto first, then the COLORFGBG heuristic.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PROJCAL_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	// COLORFGBG is "fg;bg" (sometimes more segments); the last one is bg.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
