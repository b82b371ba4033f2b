package diffdoc

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	attrRefID  = "data-branches-class"
	attrTarget = "data-branch-target"
)

// tablePolicy keeps the table structure, classes, ids and data attributes
// the viewer relies on, and nothing else.
func tablePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td", "span")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("id").OnElements("span")
	p.AllowDataAttributes()
	return p
}

var policy = tablePolicy()

// Sanitize strips everything from server markup except the diff table.
func Sanitize(markup string) string {
	return policy.Sanitize(markup)
}

// Parse sanitizes markup and builds a Document from its first table.
// Markup without a table yields an empty Document.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(Sanitize(markup)))
	if err != nil {
		return nil, fmt.Errorf("parse diff markup: %w", err)
	}

	doc := &Document{}
	table := findFirst(root, atom.Table)
	if table == nil {
		return doc, nil
	}

	b := &builder{doc: doc}
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Thead:
			b.section(c, true)
		case atom.Tbody, atom.Tfoot:
			b.section(c, false)
		case atom.Tr:
			b.row(c, false)
		}
	}
	return doc, nil
}

type builder struct {
	doc *Document
}

func (b *builder) section(n *html.Node, header bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Tr {
			b.row(c, header)
		}
	}
}

func (b *builder) row(tr *html.Node, header bool) {
	rowIdx := len(b.doc.Header) + len(b.doc.Body)
	var row Row
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		cell := Cell{Header: header || c.DataAtom == atom.Th}
		b.collect(c, &cell, nil, NoRegion, rowIdx, len(row.Cells))
		row.Cells = append(row.Cells, cell)
	}
	if header {
		b.doc.Header = append(b.doc.Header, row)
	} else {
		b.doc.Body = append(b.doc.Body, row)
	}
}

// collect walks a cell subtree, appending text segments with the classes
// of every enclosing span.
func (b *builder) collect(n *html.Node, cell *Cell, classes []string, region int, row, col int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := normalizeText(c.Data)
			if text == "" {
				continue
			}
			cell.appendText(text, classes, region)
			if region != NoRegion {
				b.doc.Regions[region].Text += text
			}
		case html.ElementNode:
			childClasses := classes
			if cls := attr(c, "class"); cls != "" {
				childClasses = append(append([]string(nil), classes...), strings.Fields(cls)...)
			}
			childRegion := region
			if refID := attr(c, attrRefID); refID != "" {
				childRegion = b.addRegion(c, refID, row, col)
			}
			b.collect(c, cell, childClasses, childRegion, row, col)
		}
	}
}

func (b *builder) addRegion(n *html.Node, refID string, row, col int) int {
	r := Region{
		ID:           len(b.doc.Regions),
		RefID:        refID,
		TargetElemID: attr(n, attrTarget),
		ElemID:       attr(n, "id"),
		Row:          row,
		Col:          col,
		Inert:        col == inertColumn,
	}
	if r.TargetElemID != "" {
		r.Role = RoleOrigin
	} else {
		r.Role = RoleTarget
	}
	b.doc.Regions = append(b.doc.Regions, r)
	return r.ID
}

func (c *Cell) appendText(text string, classes []string, region int) {
	if n := len(c.Segments); n > 0 {
		last := &c.Segments[n-1]
		if last.Region == region && sameClasses(last.Classes, classes) {
			last.Text += text
			return
		}
	}
	c.Segments = append(c.Segments, Segment{Text: text, Classes: classes, Region: region})
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\t", "    ")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

func sameClasses(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}
