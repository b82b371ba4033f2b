// Package diffdoc turns the server's HTML diff table into a document model
// that can be laid out in a terminal.
//
// A Document is the parsed table: header and body rows of cells, each cell
// a run of styled text segments. Spans carrying branch cross-reference
// metadata become Regions. A Layout places a Document at a given terminal
// width and answers geometry questions (where is a region, which region is
// under the mouse). Regions are only meaningful for the Document that
// produced them.
package diffdoc

// Role tells whether a region is the source or destination of a branch.
type Role int

const (
	// RoleOrigin is a branch instruction pointing elsewhere.
	RoleOrigin Role = iota + 1
	// RoleTarget is a jump destination.
	RoleTarget
)

func (r Role) String() string {
	switch r {
	case RoleOrigin:
		return "origin"
	case RoleTarget:
		return "target"
	default:
		return "none"
	}
}

// NoRegion marks a segment that is not part of any region.
const NoRegion = -1

// inertColumn is the "previous" column of a three-way diff. Branch spans
// there are shown but never navigated.
const inertColumn = 2

// Region is one branch indicator span.
type Region struct {
	// ID is the document-order index into Document.Regions.
	ID int

	// RefID groups a target with the origins that jump to it.
	RefID string

	Role Role

	// TargetElemID is the element id an origin points at (data-branch-target).
	TargetElemID string

	// ElemID is the element's own id; set on targets.
	ElemID string

	// Row is the index into Document.AllRows, Col the cell index.
	Row int
	Col int

	// Inert regions are rendered but take no part in navigation.
	Inert bool

	Text string
}

// Segment is a run of text sharing the same classes and region.
type Segment struct {
	Text    string
	Classes []string
	Region  int
}

// HasClass reports whether the segment carries class c.
func (s Segment) HasClass(c string) bool {
	for _, have := range s.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// Cell is one table cell.
type Cell struct {
	Header   bool
	Segments []Segment
}

// Text returns the cell's plain text.
func (c Cell) Text() string {
	var n int
	for _, s := range c.Segments {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range c.Segments {
		b = append(b, s.Text...)
	}
	return string(b)
}

// Row is a table row.
type Row struct {
	Cells []Cell
}

// Document is a parsed diff table.
type Document struct {
	Header  []Row
	Body    []Row
	Regions []Region
}

// AllRows returns header rows followed by body rows. Region.Row indexes
// into this slice.
func (d *Document) AllRows() []Row {
	rows := make([]Row, 0, len(d.Header)+len(d.Body))
	rows = append(rows, d.Header...)
	return append(rows, d.Body...)
}

// Columns returns the widest row's cell count.
func (d *Document) Columns() int {
	n := 0
	for _, r := range d.Header {
		n = max(n, len(r.Cells))
	}
	for _, r := range d.Body {
		n = max(n, len(r.Cells))
	}
	return n
}

// Region returns the region with the given ID.
func (d *Document) Region(id int) (Region, bool) {
	if id < 0 || id >= len(d.Regions) {
		return Region{}, false
	}
	return d.Regions[id], true
}

// Empty reports whether the document has no rows at all.
func (d *Document) Empty() bool {
	return len(d.Header) == 0 && len(d.Body) == 0
}
