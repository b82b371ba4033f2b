package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors - using more subtle, balanced palette
var (
	ColorPrimary   = lipgloss.Color("4")   // Blue
	ColorSecondary = lipgloss.Color("8")   // Gray
	ColorSuccess   = lipgloss.Color("2")   // Green (dimmer)
	ColorWarning   = lipgloss.Color("3")   // Yellow (dimmer)
	ColorDanger    = lipgloss.Color("1")   // Red (dimmer)
	ColorMuted     = lipgloss.Color("245") // Light gray
	ColorHighlight = lipgloss.Color("6")   // Cyan
	ColorText      = lipgloss.AdaptiveColor{Light: "235", Dark: "252"}
	ColorStayBg    = lipgloss.AdaptiveColor{Light: "153", Dark: "24"}
	ColorTempBg    = lipgloss.AdaptiveColor{Light: "254", Dark: "238"}
	ColorBothBg    = lipgloss.AdaptiveColor{Light: "117", Dark: "31"}
)

// Styles
var (
	// Box styles
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(1, 2)

	AlertBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorDanger).
			Padding(1, 2)

	// Title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// Header style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted)

	// Selected item style
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)

	// Normal item style
	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Help style
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Error style
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	LiveStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// Divider style
	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// Status toast style
	ToastStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorTempBg).
			Padding(0, 1)

	RetryStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Underline(true)
)

// Branch highlight styles, layered over the class style of a region.
var (
	StayStyle  = lipgloss.NewStyle().Background(ColorStayBg).Bold(true)
	TempStyle  = lipgloss.NewStyle().Background(ColorTempBg)
	BothStyle  = lipgloss.NewStyle().Background(ColorBothBg).Bold(true).Underline(true)
	FocusStyle = lipgloss.NewStyle().Underline(true).Bold(true)
	InertStyle = lipgloss.NewStyle().Faint(true)
)

// classStyles mirrors the colors the server uses for its ANSI output.
var classStyles = map[string]lipgloss.Style{
	"immediate":       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	"stack":           lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	"register":        lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	"delay-slot":      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	"diff-change":     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	"diff-add":        lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	"diff-remove":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	"source-filename": lipgloss.NewStyle().Bold(true),
	"source-function": lipgloss.NewStyle().Bold(true).Underline(true),
	"source-other":    lipgloss.NewStyle().Faint(true),
}

// rotationColors is the palette for rotation-N classes.
var rotationColors = []lipgloss.Color{"5", "6", "2", "1", "11", "13", "14", "10", "8"}

// ClassStyle returns the style for a set of classes. The innermost
// recognized class wins, matching how nested spans cascade.
func ClassStyle(classes []string) lipgloss.Style {
	for i := len(classes) - 1; i >= 0; i-- {
		c := classes[i]
		if s, ok := classStyles[c]; ok {
			return s
		}
		if n, ok := strings.CutPrefix(c, "rotation-"); ok {
			if idx, err := strconv.Atoi(n); err == nil && idx >= 0 {
				return lipgloss.NewStyle().Foreground(rotationColors[idx%len(rotationColors)])
			}
		}
	}
	return NormalStyle
}

// ApplyTheme forces the background detection for "dark" and "light";
// "auto" leaves it to the terminal query.
func ApplyTheme(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// Symbols
const (
	SymbolCursor  = "›"
	SymbolLive    = "●"
	SymbolWaiting = "○"
	SymbolHalted  = "✗"
	SymbolDivider = "─"
)
