package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/henri123lemoine/asmdw/internal/branch"
	"github.com/henri123lemoine/asmdw/internal/diffdoc"
)

// TableParams describes what RenderTable draws.
type TableParams struct {
	Doc    *diffdoc.Document
	Layout *diffdoc.Layout
	// Highlight reports the branch highlight of a region.
	Highlight func(region int) branch.Highlight
	// Focus is the region under the keyboard cursor, or diffdoc.NoRegion.
	Focus int
}

// RenderTable renders every content line of the layout, joined by
// newlines. Line i of the output is content line i.
func RenderTable(p TableParams) string {
	if p.Layout == nil {
		return ""
	}
	var b strings.Builder
	for i, line := range p.Layout.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderLine(p, line))
	}
	return b.String()
}

func renderLine(p TableParams, line diffdoc.Line) string {
	var b strings.Builder
	x := 0
	for _, piece := range line.Pieces {
		if piece.X > x {
			b.WriteString(strings.Repeat(" ", piece.X-x))
			x = piece.X
		}
		b.WriteString(pieceStyle(p, piece).Render(piece.Text))
		x += runewidth.StringWidth(piece.Text)
	}
	return b.String()
}

func pieceStyle(p TableParams, piece diffdoc.Piece) lipgloss.Style {
	if piece.Header {
		return HeaderStyle
	}
	style := ClassStyle(piece.Classes)
	if piece.Region == diffdoc.NoRegion {
		return style
	}

	if p.Doc != nil {
		if r, ok := p.Doc.Region(piece.Region); ok && r.Inert {
			return style.Inherit(InertStyle)
		}
	}
	if p.Highlight != nil {
		hl := p.Highlight(piece.Region)
		switch {
		case hl.Stay && hl.Temp:
			style = BothStyle.Inherit(style)
		case hl.Stay:
			style = StayStyle.Inherit(style)
		case hl.Temp:
			style = TempStyle.Inherit(style)
		}
	}
	if piece.Region == p.Focus {
		style = FocusStyle.Inherit(style)
	}
	return style
}
