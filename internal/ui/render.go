package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/henri123lemoine/asmdw/internal/linkermap"
	"github.com/henri123lemoine/asmdw/internal/status"
)

// State constants (matching app.State)
const (
	StateView = iota
	StatePicker
	StateHelp
	StateAlert
)

// HelpBinding represents a keybinding for help display.
type HelpBinding struct {
	Keys string
	Desc string
}

// HelpSection represents a section of help bindings.
type HelpSection struct {
	Title    string
	Bindings []HelpBinding
}

// PollStatus summarizes the long-poll session for the header.
type PollStatus struct {
	State    string // idle, requesting, backoff, halted
	Backoff  time.Duration
	Received int
}

// PickerParams describes the function picker.
type PickerParams struct {
	Input      string
	Matches    []linkermap.Symbol
	Cursor     int
	Offset     int
	Visible    int
	Object     string
	OnlyObject bool
	Loaded     bool
}

// RenderParams contains all parameters needed for rendering.
type RenderParams struct {
	State         int
	Width         int
	Height        int
	ServerURL     string
	Poll          PollStatus
	Function      string
	Table         string
	Empty         bool
	ScrollPercent float64
	Toasts        []status.Item
	Alert         string
	Picker        PickerParams
	HelpSections  []HelpSection
}

// MinWidth is the absolute minimum terminal width we try to support.
const MinWidth = 30

// MinHeight is the absolute minimum terminal height we try to support.
const MinHeight = 8

// ChromeHeight is the number of lines Render adds around the table.
const ChromeHeight = 4

// TableHeight returns how many table lines fit in a terminal of height.
func TableHeight(height int) int {
	return max(height-ChromeHeight, 1)
}

// Render renders the full UI.
func Render(p RenderParams) string {
	if p.Width < MinWidth {
		p.Width = MinWidth
	}
	if p.Height < MinHeight {
		p.Height = MinHeight
	}

	switch p.State {
	case StatePicker:
		return renderPicker(p)
	case StateHelp:
		return renderHelp(p)
	case StateAlert:
		return renderAlert(p)
	default:
		return renderView(p)
	}
}

// renderView renders the diff table with its header, footer and toasts.
func renderView(p RenderParams) string {
	var b strings.Builder

	b.WriteString(renderHeader(p) + "\n")
	b.WriteString(DividerStyle.Render(strings.Repeat(SymbolDivider, p.Width)) + "\n")

	body := p.Table
	if p.Empty {
		body = PathStyle.Render("Waiting for the first diff from " + p.ServerURL + "...")
	}
	lines := strings.Split(body, "\n")
	tableHeight := TableHeight(p.Height)
	for len(lines) < tableHeight {
		lines = append(lines, "")
	}
	lines = lines[:tableHeight]
	lines = overlayToasts(lines, p.Toasts, p.Width)
	b.WriteString(strings.Join(lines, "\n") + "\n")

	b.WriteString(DividerStyle.Render(strings.Repeat(SymbolDivider, p.Width)) + "\n")
	b.WriteString(renderFooter(p))
	return b.String()
}

func renderHeader(p RenderParams) string {
	var indicator string
	switch p.Poll.State {
	case "halted":
		indicator = ErrorStyle.Render(SymbolHalted + " halted")
	case "backoff":
		indicator = WarningStyle.Render(fmt.Sprintf("%s retry in %ds", SymbolWaiting, int(p.Poll.Backoff.Round(time.Second).Seconds())))
	case "requesting":
		indicator = LiveStyle.Render(SymbolLive + " live")
	default:
		indicator = PathStyle.Render(SymbolWaiting + " idle")
	}

	left := TitleStyle.Render("asmdw") + "  " + PathStyle.Render(p.ServerURL)
	if p.Function != "" {
		left += "  " + SelectedStyle.Render(p.Function)
	}
	right := indicator
	gap := p.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return lipgloss.NewStyle().MaxWidth(p.Width).Render(left)
	}
	return left + strings.Repeat(" ", gap) + right
}

func renderFooter(p RenderParams) string {
	help := compactHelp(
		"n/N branch • enter follow • esc clear • f function • w web • r retry • ? help • q quit",
		"n/N • enter • f • ? • q",
		p.Width,
	)
	pct := fmt.Sprintf("%3.0f%%", p.ScrollPercent*100)
	gap := p.Width - lipgloss.Width(help) - len(pct)
	if gap < 1 {
		return HelpStyle.Render(help)
	}
	return HelpStyle.Render(help) + strings.Repeat(" ", gap) + PathStyle.Render(pct)
}

// overlayToasts draws toasts over the bottom-right of lines, newest at the
// bottom. Table cells left of a toast stay visible.
func overlayToasts(lines []string, toasts []status.Item, width int) []string {
	if len(toasts) == 0 {
		return lines
	}
	start := len(lines) - len(toasts)
	if start < 0 {
		toasts = toasts[-start:]
		start = 0
	}
	out := append([]string(nil), lines...)
	for i, t := range toasts {
		rendered := renderToast(t, width)
		left := max(width-lipgloss.Width(rendered), 0)
		line := ansi.Truncate(out[start+i], left, "")
		if pad := left - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		out[start+i] = line + rendered
	}
	return out
}

// renderToast renders one toast no wider than width. A sliding toast is
// clipped from the left as it leaves.
func renderToast(t status.Item, width int) string {
	const retryHint = "(r: retry now)"

	text := t.Text
	hint := ""
	if t.Retry {
		hint = " " + RetryStyle.Render(retryHint)
	}
	rendered := ToastStyle.Render(text + hint)
	if lipgloss.Width(rendered) > width {
		room := width - 3 - lipgloss.Width(hint)
		if room < 1 {
			hint, room = "", width-3
		}
		rendered = ToastStyle.Render(runewidth.Truncate(text, max(room, 1), "…") + hint)
	}
	if t.Progress > 0 {
		keep := int(float64(lipgloss.Width(rendered)) * (1 - t.Progress))
		rendered = lipgloss.NewStyle().MaxWidth(keep).Render(rendered)
	}
	return rendered
}

// ToastColumns returns, for each toast drawn over a table of the given
// width, the first screen column it covers. Toasts occupy the last
// len(toasts) table lines, oldest first.
func ToastColumns(toasts []status.Item, width int) []int {
	width = max(width, MinWidth)
	cols := make([]int, len(toasts))
	for i, t := range toasts {
		cols[i] = max(width-lipgloss.Width(renderToast(t, width)), 0)
	}
	return cols
}

// renderPicker renders the target-function picker.
func renderPicker(p RenderParams) string {
	var b strings.Builder
	contentWidth := p.Width - 8

	b.WriteString(HeaderStyle.Render("FUNCTION") + "  ")
	b.WriteString(p.Picker.Input + "\n")
	scope := "all objects"
	if p.Picker.OnlyObject && p.Picker.Object != "" {
		scope = "only " + p.Picker.Object
	}
	b.WriteString(PathStyle.Render(scope) + "\n")
	b.WriteString(DividerStyle.Render(strings.Repeat(SymbolDivider, contentWidth)) + "\n")

	switch {
	case !p.Picker.Loaded:
		b.WriteString(PathStyle.Render("No linker map available. Type a function name.") + "\n")
	case len(p.Picker.Matches) == 0:
		b.WriteString(PathStyle.Render("No matches found.") + "\n")
	default:
		startIdx := p.Picker.Offset
		endIdx := min(startIdx+p.Picker.Visible, len(p.Picker.Matches))
		if startIdx > 0 {
			b.WriteString(PathStyle.Render(fmt.Sprintf("  ↑ %d more above", startIdx)) + "\n")
		}
		for i := startIdx; i < endIdx; i++ {
			sym := p.Picker.Matches[i]
			b.WriteString(renderSymbol(sym, i == p.Picker.Cursor, contentWidth) + "\n")
		}
		if endIdx < len(p.Picker.Matches) {
			b.WriteString(PathStyle.Render(fmt.Sprintf("  ↓ %d more below", len(p.Picker.Matches)-endIdx)) + "\n")
		}
	}

	b.WriteString(DividerStyle.Render(strings.Repeat(SymbolDivider, contentWidth)) + "\n")
	b.WriteString(HelpStyle.Render(compactHelp("enter select • tab toggle object • esc cancel", "enter • tab • esc", p.Width)))

	return wrapInBox(b.String(), p.Width, p.Height)
}

func renderSymbol(sym linkermap.Symbol, selected bool, width int) string {
	prefix := "  "
	style := NormalStyle
	if selected {
		prefix = SymbolCursor + " "
		style = SelectedStyle
	}
	addr := fmt.Sprintf("%08x", sym.RAM)
	name := runewidth.Truncate(sym.Name, max(width-len(addr)-len(sym.Object)-6, 8), "…")
	return style.Render(prefix+name) + "  " + PathStyle.Render(addr+"  "+sym.Object)
}

// renderAlert renders a blocking error.
func renderAlert(p RenderParams) string {
	var b strings.Builder
	b.WriteString(ErrorStyle.Bold(true).Render("Protocol error") + "\n\n")
	b.WriteString(lipgloss.NewStyle().Width(min(p.Width-10, 70)).Render(p.Alert) + "\n\n")
	b.WriteString(PathStyle.Render("Automatic updates are stopped. The server may be a different version.") + "\n\n")
	b.WriteString(HelpStyle.Render("enter dismiss • q quit"))

	box := AlertBoxStyle.Render(b.String())
	return lipgloss.Place(p.Width, p.Height, lipgloss.Center, lipgloss.Center, box)
}

// renderHelp renders the help screen.
func renderHelp(p RenderParams) string {
	var b strings.Builder
	contentWidth := p.Width - 8

	b.WriteString(HeaderStyle.Render("HELP") + "\n")
	b.WriteString(DividerStyle.Render(strings.Repeat(SymbolDivider, contentWidth)) + "\n\n")

	for i, section := range p.HelpSections {
		b.WriteString(NormalStyle.Render(section.Title) + "\n")
		b.WriteString(DividerStyle.Render(strings.Repeat(SymbolDivider, 40)) + "\n")
		for _, binding := range section.Bindings {
			// Pad keys to 12 chars for alignment
			keys := binding.Keys
			if len(keys) < 12 {
				keys = keys + strings.Repeat(" ", 12-len(keys))
			}
			b.WriteString(PathStyle.Render("  "+keys) + " " + binding.Desc + "\n")
		}
		if i < len(p.HelpSections)-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + DividerStyle.Render(strings.Repeat(SymbolDivider, contentWidth)) + "\n")
	b.WriteString(HelpStyle.Render("Press any key to close"))

	return wrapInBox(b.String(), p.Width, p.Height)
}

// wrapInBox wraps content in a box.
func wrapInBox(content string, width, height int) string {
	boxWidth := width - 2
	if boxWidth < MinWidth-2 {
		boxWidth = MinWidth - 2
	}

	// Don't force height - let content determine size
	style := BoxStyle.Width(boxWidth)

	return style.Render(content)
}

// compactHelp returns a shortened help string for small terminals.
func compactHelp(full, compact string, width int) string {
	if width >= 90 {
		return full
	}
	return compact
}
