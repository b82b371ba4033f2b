package diffdoc

import (
	"github.com/mattn/go-runewidth"

	"github.com/henri123lemoine/asmdw/internal/geom"
)

// ColumnGap is the number of blank cells between table columns.
const ColumnGap = 2

// Piece is a run of text placed on a content line.
type Piece struct {
	Text    string
	X       int
	Classes []string
	Region  int
	Header  bool
}

// HasClass reports whether the piece carries class c.
func (p Piece) HasClass(c string) bool {
	for _, have := range p.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// Line is one content line of the laid-out table.
type Line struct {
	Pieces []Piece
}

// span is where part of a region landed on a line.
type span struct {
	line   int
	x0, x1 int
}

// Layout is a Document placed at a fixed width. Coordinates are content
// lines (y) and terminal cells (x), both starting at zero.
type Layout struct {
	Width     int
	ColWidths []int
	ColX      []int
	Lines     []Line

	rowTops    []int
	rowHeights []int
	spans      map[int][]span
	byLine     map[int][]int
}

// NewLayout lays doc out in width terminal cells. Cells wider than their
// column wrap onto extra lines; a row is as tall as its tallest cell.
func NewLayout(doc *Document, width int) *Layout {
	l := &Layout{
		Width:  width,
		spans:  make(map[int][]span),
		byLine: make(map[int][]int),
	}
	if doc == nil {
		return l
	}

	rows := doc.AllRows()
	l.ColWidths = columnWidths(rows, doc.Columns(), width)
	l.ColX = make([]int, len(l.ColWidths))
	for i := 1; i < len(l.ColWidths); i++ {
		l.ColX[i] = l.ColX[i-1] + l.ColWidths[i-1] + ColumnGap
	}

	for _, row := range rows {
		top := len(l.Lines)
		height := 1
		wrapped := make([][][]Piece, len(row.Cells))
		for c, cell := range row.Cells {
			wrapped[c] = wrapCell(cell, l.ColWidths[c])
			height = max(height, len(wrapped[c]))
		}

		lines := make([]Line, height)
		for c, cellLines := range wrapped {
			for i, pieces := range cellLines {
				for _, p := range pieces {
					p.X += l.ColX[c]
					lines[i].Pieces = append(lines[i].Pieces, p)
					if p.Region != NoRegion {
						l.addSpan(p.Region, top+i, p.X, p.X+runewidth.StringWidth(p.Text))
					}
				}
			}
		}
		l.rowTops = append(l.rowTops, top)
		l.rowHeights = append(l.rowHeights, height)
		l.Lines = append(l.Lines, lines...)
	}
	return l
}

func (l *Layout) addSpan(region, line, x0, x1 int) {
	spans := l.spans[region]
	if n := len(spans); n > 0 && spans[n-1].line == line && spans[n-1].x1 == x0 {
		spans[n-1].x1 = x1
		l.spans[region] = spans
		return
	}
	l.spans[region] = append(spans, span{line: line, x0: x0, x1: x1})
	ids := l.byLine[line]
	if len(ids) == 0 || ids[len(ids)-1] != region {
		l.byLine[line] = append(ids, region)
	}
}

// Height returns the number of content lines.
func (l *Layout) Height() int {
	return len(l.Lines)
}

// Bounds returns the vertical extent of a region. ok is false for regions
// that produced no visible text.
func (l *Layout) Bounds(region int) (geom.Rect, bool) {
	spans := l.spans[region]
	if len(spans) == 0 {
		return geom.Rect{}, false
	}
	first, last := spans[0].line, spans[len(spans)-1].line
	return geom.Rect{Top: float64(first), Height: float64(last - first + 1)}, true
}

// RowBounds returns the vertical extent of a row.
func (l *Layout) RowBounds(row int) (geom.Rect, bool) {
	if row < 0 || row >= len(l.rowTops) {
		return geom.Rect{}, false
	}
	return geom.Rect{Top: float64(l.rowTops[row]), Height: float64(l.rowHeights[row])}, true
}

// HitTest returns the region drawn at content coordinates (x, y).
func (l *Layout) HitTest(x, y int) (int, bool) {
	for _, id := range l.byLine[y] {
		for _, s := range l.spans[id] {
			if s.line == y && x >= s.x0 && x < s.x1 {
				return id, true
			}
		}
	}
	return NoRegion, false
}

// columnWidths gives every column its natural width when the table fits,
// and otherwise shares the space so narrow columns keep their width and
// wide ones split the rest.
func columnWidths(rows []Row, cols, width int) []int {
	natural := make([]int, cols)
	for _, r := range rows {
		for c, cell := range r.Cells {
			natural[c] = max(natural[c], runewidth.StringWidth(cell.Text()))
		}
	}
	if cols == 0 {
		return natural
	}

	avail := width - ColumnGap*(cols-1)
	total := 0
	for _, n := range natural {
		total += n
	}
	if total <= avail {
		for c := range natural {
			natural[c] = max(natural[c], 1)
		}
		return natural
	}

	widths := make([]int, cols)
	fixed := make([]bool, cols)
	remaining, open := avail, cols
	for changed := true; changed && open > 0; {
		changed = false
		share := remaining / open
		for c := range natural {
			if !fixed[c] && natural[c] <= share {
				widths[c] = natural[c]
				fixed[c] = true
				remaining -= natural[c]
				open--
				changed = true
			}
		}
	}
	if open > 0 {
		share := remaining / open
		extra := remaining - share*open
		for c := range widths {
			if fixed[c] {
				continue
			}
			widths[c] = share
			if extra > 0 {
				widths[c]++
				extra--
			}
		}
	}
	for c := range widths {
		widths[c] = max(widths[c], 1)
	}
	return widths
}

// wrapCell hard-wraps a cell to width cells, returning pieces per line with
// X relative to the column start.
func wrapCell(cell Cell, width int) [][]Piece {
	lines := [][]Piece{nil}
	x := 0
	for _, seg := range cell.Segments {
		var cur []rune
		start := x
		flush := func() {
			if len(cur) == 0 {
				return
			}
			last := len(lines) - 1
			lines[last] = append(lines[last], Piece{
				Text:    string(cur),
				X:       start,
				Classes: seg.Classes,
				Region:  seg.Region,
				Header:  cell.Header,
			})
			cur = nil
		}
		for _, r := range seg.Text {
			w := runewidth.RuneWidth(r)
			if x > 0 && x+w > width {
				flush()
				lines = append(lines, nil)
				x = 0
				start = 0
			}
			cur = append(cur, r)
			x += w
		}
		flush()
	}
	return lines
}
