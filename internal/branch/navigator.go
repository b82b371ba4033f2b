package branch

import (
	"github.com/henri123lemoine/asmdw/internal/debug"
	"github.com/henri123lemoine/asmdw/internal/diffdoc"
	"github.com/henri123lemoine/asmdw/internal/geom"
)

// Geometry answers where a region currently is. It is queried on every
// click, so results always reflect the live layout.
type Geometry interface {
	Bounds(regionID int) (geom.Rect, bool)
}

// Highlight is the visual state of one cross-reference id.
type Highlight struct {
	// Stay is set by a click and cleared by the next click elsewhere.
	Stay bool
	// Temp follows the pointer.
	Temp bool
}

// Jump is the outcome of a click on a region.
type Jump struct {
	// Anchor is the region guaranteed to be visible after scrolling.
	Anchor int
	// Y is the viewport top to scroll to; only meaningful when Scroll.
	Y      float64
	Scroll bool
}

var noJump = Jump{Anchor: diffdoc.NoRegion}

// Navigator handles clicks and hovers on branch regions.
type Navigator struct {
	graph  *Graph
	geo    Geometry
	fitter geom.Fitter

	// cursor holds, per target region, the index of the origin that
	// anchors the next click on it.
	cursor map[int]int

	stay string
	// temp counts the pointers (mouse, keyboard focus) inside each ref id.
	temp map[string]int
}

// NewNavigator returns a navigator over an empty graph.
func NewNavigator(fitter geom.Fitter) *Navigator {
	n := &Navigator{fitter: fitter}
	n.Reset(NewGraph(nil), nil)
	return n
}

// Reset installs a freshly built graph. All per-region state is dropped
// because the regions it referred to no longer exist.
func (n *Navigator) Reset(g *Graph, geo Geometry) {
	n.graph = g
	n.geo = geo
	n.cursor = make(map[int]int)
	n.stay = ""
	n.temp = make(map[string]int)
}

// SetGeometry swaps the geometry source, e.g. after a relayout at a new
// width. Region identities are unchanged so state is kept.
func (n *Navigator) SetGeometry(geo Geometry) {
	n.geo = geo
}

// Graph returns the current graph.
func (n *Navigator) Graph() *Graph {
	return n.graph
}

// Fitter returns the scroll fitter used for jumps.
func (n *Navigator) Fitter() geom.Fitter {
	return n.fitter
}

// Click handles a click on region id. Clicking something that is not a
// navigable region behaves like a click elsewhere.
func (n *Navigator) Click(id int, vp geom.Viewport) Jump {
	r, ok := n.graph.Region(id)
	if !ok {
		n.ClickElsewhere()
		return noJump
	}
	if n.graph.IsOrigin(r) {
		return n.clickOrigin(r, vp)
	}
	return n.clickTarget(r, vp)
}

// ClickElsewhere clears every persistent highlight.
func (n *Navigator) ClickElsewhere() {
	n.stay = ""
}

func (n *Navigator) clickOrigin(origin diffdoc.Region, vp geom.Viewport) Jump {
	n.stay = origin.RefID

	target, ok := n.graph.Target(origin.RefID)
	if !ok {
		debug.Log(debug.CatNav, "origin %d: target %s not in document", origin.ID, origin.RefID)
		return noJump
	}
	return n.fit(target.ID, []int{origin.ID}, vp)
}

func (n *Navigator) clickTarget(target diffdoc.Region, vp geom.Viewport) Jump {
	n.stay = target.RefID

	candidates := n.graph.Origins(target.RefID, target.ID)
	switch len(candidates) {
	case 0:
		return noJump
	case 1:
		return n.fit(candidates[0].ID, []int{target.ID}, vp)
	}

	idx := n.cursor[target.ID] % len(candidates)
	n.cursor[target.ID] = (idx + 1) % len(candidates)

	companions := []int{target.ID}
	for i, c := range candidates {
		if i != idx {
			companions = append(companions, c.ID)
		}
	}
	debug.Log(debug.CatNav, "target %d: anchor %d of %d origins", target.ID, idx, len(candidates))
	return n.fit(candidates[idx].ID, companions, vp)
}

func (n *Navigator) fit(anchor int, companions []int, vp geom.Viewport) Jump {
	jump := Jump{Anchor: anchor}
	if n.geo == nil {
		return jump
	}
	anchorRect, ok := n.geo.Bounds(anchor)
	if !ok {
		return jump
	}
	rects := make([]geom.Rect, 0, len(companions))
	for _, id := range companions {
		if r, ok := n.geo.Bounds(id); ok {
			rects = append(rects, r)
		}
	}
	jump.Y, jump.Scroll = n.fitter.Fit(vp, anchorRect, rects)
	return jump
}

// Enter marks a pointer entering region id. Each Enter must be paired
// with a Leave from the same pointer.
func (n *Navigator) Enter(id int) {
	if r, ok := n.graph.Region(id); ok {
		n.temp[r.RefID]++
	}
}

// Leave marks a pointer leaving region id. The ref id stays lit while
// another pointer is still inside one of its regions.
func (n *Navigator) Leave(id int) {
	r, ok := n.graph.Region(id)
	if !ok {
		return
	}
	if n.temp[r.RefID] <= 1 {
		delete(n.temp, r.RefID)
		return
	}
	n.temp[r.RefID]--
}

// Highlight returns the state of refID.
func (n *Navigator) Highlight(refID string) Highlight {
	if refID == "" {
		return Highlight{}
	}
	return Highlight{Stay: n.stay == refID, Temp: n.temp[refID] > 0}
}

// RegionHighlight returns the state of the ref id region id belongs to.
// Regions outside the graph are never highlighted.
func (n *Navigator) RegionHighlight(id int) Highlight {
	r, ok := n.graph.Region(id)
	if !ok {
		return Highlight{}
	}
	return n.Highlight(r.RefID)
}

// Selected returns the ref id holding the persistent highlight, if any.
func (n *Navigator) Selected() (string, bool) {
	return n.stay, n.stay != ""
}
