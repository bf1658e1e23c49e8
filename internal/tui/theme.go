package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

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
	colorSelectedBg  lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg  lipgloss.TerminalColor = ac("235", "255")
	colorSurfaceFg   lipgloss.TerminalColor = ac("235", "252")
	colorControlBg   lipgloss.TerminalColor = ac("252", "237")
	colorAccent      lipgloss.TerminalColor = ac("27", "62")
	colorBorder      lipgloss.TerminalColor = ac("250", "243")
	colorFlashError  lipgloss.TerminalColor = ac("160", "203")
	colorFlashOK     lipgloss.TerminalColor = ac("28", "78")
	colorStatusWarn  lipgloss.TerminalColor = ac("130", "214")
	colorStatusError lipgloss.TerminalColor = ac("160", "203")
	colorStatusOK    lipgloss.TerminalColor = ac("28", "78")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

var (
	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleError   = lipgloss.NewStyle().Foreground(colorStatusError)
	styleChip    = lipgloss.NewStyle().Padding(0, 1).Background(colorControlBg).Foreground(colorSurfaceFg)
	styleChipOn  = styleChip.Background(colorAccent).Foreground(lipgloss.Color("255"))
	styleChipSel = styleChip.Bold(true).Underline(true)
)

// statusStyle colors known status labels.
func statusStyle(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "active", "completed", "published":
		return lipgloss.NewStyle().Foreground(colorStatusOK)
	case "pending", "draft", "inactive":
		return lipgloss.NewStyle().Foreground(colorStatusWarn)
	case "expired", "failed", "cancelled":
		return lipgloss.NewStyle().Foreground(colorStatusError)
	}
	return lipgloss.NewStyle()
}

// applyColorProfilePreference picks Lip Gloss's color profile. Only NO_COLOR
// disables colors; CLICOLOR is for scripted output, not the dashboard.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// Some terminals under-report; trust TERM/COLORTERM when they claim more.
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

// applyThemePreference fixes background detection for terminals that do not
// report it.
//
// Priority:
// 1) SHORTDASH_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg")
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SHORTDASH_TUI_THEME"))) {
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
