// Package geom computes viewport scroll targets for bringing rendered
// regions of the diff table into view.
package geom

// Rect is a vertical span in document coordinates (content lines).
type Rect struct {
	Top    float64
	Height float64
}

// Bottom returns the first coordinate below the rect.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Viewport is the currently visible vertical window of the document.
type Viewport struct {
	Top    float64
	Height float64
}

// Bottom returns the first coordinate below the viewport.
func (v Viewport) Bottom() float64 {
	return v.Top + v.Height
}

// DefaultComfort is the margin factor applied to the mean region height.
const DefaultComfort = 2.0

// Fitter decides whether and where to scroll so that an anchor region,
// and as many companion regions as possible, are visible.
type Fitter struct {
	// Comfort multiplies the mean region height to get the margin kept
	// between regions and the viewport edges.
	Comfort float64
}

// NewFitter returns a Fitter using the given comfort factor. Non-positive
// factors fall back to DefaultComfort.
func NewFitter(comfort float64) Fitter {
	if comfort <= 0 {
		comfort = DefaultComfort
	}
	return Fitter{Comfort: comfort}
}

// Fit returns the viewport top that brings anchor and companions into view.
// ok is false when everything is already comfortably visible (or the
// viewport has no height), in which case no scrolling should happen.
//
// When the envelope of all regions fits in one screen, the target is the
// closest position to the current one that shows the whole envelope, with
// the comfort margin where possible. Otherwise only the anchor is
// guaranteed to be visible and the target leans toward the envelope.
func (f Fitter) Fit(vp Viewport, anchor Rect, companions []Rect) (target float64, ok bool) {
	if vp.Height <= 0 {
		return 0, false
	}

	offset := f.margin(anchor, companions)

	if f.comfortable(vp, anchor, offset) {
		all := true
		for _, c := range companions {
			if !f.comfortable(vp, c, offset) {
				all = false
				break
			}
		}
		if all {
			return 0, false
		}
	}

	minTop, maxBottom := envelope(anchor, companions)

	if maxBottom-minTop <= vp.Height {
		// Scrolling below yMax hides the topmost region, above yMin the
		// bottommost one.
		yMax := minTop
		yMin := maxBottom - vp.Height
		if vp.Top >= yMax {
			target = yMax - offset
			if target < yMin {
				target = (yMin + yMax) / 2
			}
		} else {
			target = yMin + offset
			if target > yMax {
				target = (yMin + yMax) / 2
			}
		}
		return target, true
	}

	yMax := anchor.Top
	yMin := anchor.Bottom() - vp.Height
	if yMin > yMax {
		// Anchor taller than the viewport: show its start.
		return yMax, true
	}

	// Slide the viewport around the anchor proportionally to where the
	// envelope starts relative to it.
	envHeight := maxBottom - minTop
	target = anchor.Top + (minTop-anchor.Top)/envHeight*vp.Height

	lo, hi := yMin+offset, yMax-offset
	if lo > hi {
		return (yMin + yMax) / 2, true
	}
	if target > hi {
		target = hi
	}
	if target < lo {
		target = lo
	}
	return target, true
}

// FitsOneScreen reports whether all rects can be shown at once in a
// viewport of the given height.
func (f Fitter) FitsOneScreen(vpHeight float64, rects ...Rect) bool {
	if len(rects) == 0 {
		return true
	}
	minTop, maxBottom := envelope(rects[0], rects[1:])
	return maxBottom-minTop <= vpHeight
}

// margin is Comfort times the mean height of all regions.
func (f Fitter) margin(anchor Rect, companions []Rect) float64 {
	sum := anchor.Height
	for _, c := range companions {
		sum += c.Height
	}
	return f.Comfort * sum / float64(1+len(companions))
}

// slack absorbs rounding when a region sits exactly on the margin edge.
const slack = 1e-9

func (f Fitter) comfortable(vp Viewport, r Rect, offset float64) bool {
	return r.Top-offset >= vp.Top-slack && r.Bottom()+offset <= vp.Bottom()+slack
}

func envelope(first Rect, rest []Rect) (minTop, maxBottom float64) {
	minTop, maxBottom = first.Top, first.Bottom()
	for _, r := range rest {
		if r.Top < minTop {
			minTop = r.Top
		}
		if r.Bottom() > maxBottom {
			maxBottom = r.Bottom()
		}
	}
	return minTop, maxBottom
}
