// Package branch indexes branch cross-references in a rendered diff and
// drives navigation between branch instructions and their targets.
package branch

import (
	"github.com/henri123lemoine/asmdw/internal/diffdoc"
)

// Graph maps cross-reference ids to the regions sharing them. It is
// read-only and rebuilt whenever the diff content is replaced.
type Graph struct {
	byRef   map[string][]diffdoc.Region
	byID    map[int]diffdoc.Region
	targets map[string]diffdoc.Region
}

// NewGraph indexes regions. Regions without a ref id and inert regions are
// left out. Input order is taken as document order.
func NewGraph(regions []diffdoc.Region) *Graph {
	g := &Graph{
		byRef:   make(map[string][]diffdoc.Region),
		byID:    make(map[int]diffdoc.Region),
		targets: make(map[string]diffdoc.Region),
	}
	for _, r := range regions {
		if r.RefID == "" || r.Inert {
			continue
		}
		g.byRef[r.RefID] = append(g.byRef[r.RefID], r)
		g.byID[r.ID] = r
		if r.Role == diffdoc.RoleTarget {
			if _, dup := g.targets[r.RefID]; !dup {
				g.targets[r.RefID] = r
			}
		}
	}
	return g
}

// RegionsFor returns every region sharing refID, in document order.
func (g *Graph) RegionsFor(refID string) []diffdoc.Region {
	return g.byRef[refID]
}

// Region returns the indexed region with the given id.
func (g *Graph) Region(id int) (diffdoc.Region, bool) {
	r, ok := g.byID[id]
	return r, ok
}

// IsOrigin reports whether r is a branch instruction.
func (g *Graph) IsOrigin(r diffdoc.Region) bool {
	return r.Role == diffdoc.RoleOrigin
}

// Target returns the jump destination for refID, if it is in the document.
func (g *Graph) Target(refID string) (diffdoc.Region, bool) {
	r, ok := g.targets[refID]
	return r, ok
}

// Origins returns the branch instructions for refID in document order,
// leaving out the region with id except (pass diffdoc.NoRegion to keep all).
func (g *Graph) Origins(refID string, except int) []diffdoc.Region {
	var out []diffdoc.Region
	for _, r := range g.byRef[refID] {
		if r.Role == diffdoc.RoleOrigin && r.ID != except {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of indexed regions.
func (g *Graph) Len() int {
	return len(g.byID)
}
