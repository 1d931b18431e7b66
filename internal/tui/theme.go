package tui

import "github.com/charmbracelet/lipgloss"

// Theme contains the colors and icons for the application.
type Theme struct {
	Primary    lipgloss.TerminalColor
	Subtle     lipgloss.TerminalColor
	Success    lipgloss.TerminalColor
	Error      lipgloss.TerminalColor
	Normal     lipgloss.TerminalColor
	Disabled   lipgloss.TerminalColor
	Border     lipgloss.TerminalColor
	SignalHigh lipgloss.TerminalColor
	SignalLow  lipgloss.TerminalColor

	TitleIcon    string
	WiredIcon    string
	OpenIcon     string
	SecureIcon   string
	UnknownIcon  string
	ConnectedTag string
}

// CurrentTheme is the active theme for the application.
var CurrentTheme = NewDefaultTheme()

// NewDefaultTheme creates a new default theme.
func NewDefaultTheme() Theme {
	return Theme{
		Primary:    lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#D359E3"},
		Subtle:     lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#616161"},
		Success:    lipgloss.AdaptiveColor{Light: "#388E3C", Dark: "#81C784"},
		Error:      lipgloss.AdaptiveColor{Light: "#D32F2F", Dark: "#E57373"},
		Normal:     lipgloss.AdaptiveColor{Light: "#212121", Dark: "#FFFFFF"},
		Disabled:   lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#424242"},
		Border:     lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#616161"},
		SignalHigh: lipgloss.AdaptiveColor{Light: "#00B300", Dark: "#00FF00"},
		SignalLow:  lipgloss.AdaptiveColor{Light: "#D05F00", Dark: "#BC3C00"},

		TitleIcon:    "",
		WiredIcon:    "🔌 ",
		OpenIcon:     "🔓 ",
		SecureIcon:   "🔒 ",
		UnknownIcon:  "❓ ",
		ConnectedTag: " (Connected)",
	}
}

// hexFor resolves a theme color to a hex string for the current terminal
// background.
func hexFor(c lipgloss.TerminalColor) string {
	switch c := c.(type) {
	case lipgloss.AdaptiveColor:
		if lipgloss.HasDarkBackground() {
			return c.Dark
		}
		return c.Light
	case lipgloss.Color:
		return string(c)
	}
	return ""
}
