package app

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/henri123lemoine/asmdw/internal/debug"
	"github.com/henri123lemoine/asmdw/internal/diffdoc"
	"github.com/henri123lemoine/asmdw/internal/geom"
	"github.com/henri123lemoine/asmdw/internal/ui"
)

const (
	wheelLines = 3
	frameRate  = time.Second / 60
)

// handleMouse turns pointer events into hover and click navigation.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.stopAnimation()
		m.viewport.ScrollUp(wheelLines)
		return m, nil
	case msg.Button == tea.MouseButtonWheelDown:
		m.stopAnimation()
		m.viewport.ScrollDown(wheelLines)
		return m, nil
	}

	id, hit := m.regionAt(msg.X, msg.Y)
	covered := m.onToast(msg.X, msg.Y)
	if covered {
		id, hit = diffdoc.NoRegion, false
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		if id != m.hover {
			m.navigator.Leave(m.hover)
			m.hover = id
			m.navigator.Enter(id)
			m.refreshTable()
		}
		return m, nil
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || covered {
			return m, nil
		}
		if !hit {
			m.navigator.ClickElsewhere()
			m.refreshTable()
			return m, nil
		}
		if r, ok := m.doc.Region(id); ok && r.Inert {
			return m, nil
		}
		return m.click(id)
	}
	return m, nil
}

// regionAt maps screen coordinates to the region under them.
func (m Model) regionAt(x, y int) (int, bool) {
	if m.layout == nil {
		return diffdoc.NoRegion, false
	}
	row := y - tableTop
	if row < 0 || row >= m.viewport.Height {
		return diffdoc.NoRegion, false
	}
	id, ok := m.layout.HitTest(x, row+m.viewport.YOffset)
	if !ok {
		return diffdoc.NoRegion, false
	}
	return id, true
}

// onToast reports whether a screen cell is covered by a status toast.
func (m Model) onToast(x, y int) bool {
	toasts := m.toasts.Items(m.now())
	if len(toasts) == 0 {
		return false
	}
	row := y - tableTop
	first := m.viewport.Height - len(toasts)
	if row < max(first, 0) || row >= m.viewport.Height {
		return false
	}
	cols := ui.ToastColumns(toasts, m.width)
	return x >= cols[row-first]
}

// click activates region id and scrolls to its counterpart when needed.
func (m Model) click(id int) (tea.Model, tea.Cmd) {
	jump := m.navigator.Click(id, m.visible())
	m.refreshTable()
	if !jump.Scroll {
		return m, nil
	}
	debug.Log(debug.CatNav, "click %d: anchor %d, scroll to %.1f", id, jump.Anchor, jump.Y)
	return m, m.scrollTo(jump.Y)
}

func (m Model) visible() geom.Viewport {
	return geom.Viewport{
		Top:    float64(m.viewport.YOffset),
		Height: float64(m.viewport.Height),
	}
}

// moveFocus steps the keyboard focus over navigable regions in document
// order, wrapping at either end.
func (m Model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	ids := m.navigable()
	if len(ids) == 0 {
		return m, nil
	}

	next := 0
	if delta < 0 {
		next = len(ids) - 1
	}
	for i, id := range ids {
		if id == m.focus {
			next = (i + delta + len(ids)) % len(ids)
			break
		}
	}

	m.navigator.Leave(m.focus)
	m.focus = ids[next]
	m.navigator.Enter(m.focus)
	m.refreshTable()

	r, ok := m.layout.Bounds(m.focus)
	if !ok {
		return m, nil
	}
	y, scroll := m.navigator.Fitter().Fit(m.visible(), r, nil)
	if !scroll {
		return m, nil
	}
	return m, m.scrollTo(y)
}

func (m Model) navigable() []int {
	if m.doc == nil {
		return nil
	}
	g := m.navigator.Graph()
	var ids []int
	for _, r := range m.doc.Regions {
		if _, ok := g.Region(r.ID); ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// scrollTo moves the viewport top to y, animated when smooth scrolling is
// on. Starting a new animation cancels the running one.
func (m *Model) scrollTo(y float64) tea.Cmd {
	maxTop := float64(max(m.viewport.TotalLineCount()-m.viewport.Height, 0))
	y = math.Max(0, math.Min(y, maxTop))

	if !m.config.UI.SmoothScroll {
		m.viewport.SetYOffset(int(math.Round(y)))
		return nil
	}

	if !m.animating {
		m.scrollPos = float64(m.viewport.YOffset)
		m.scrollVel = 0
	}
	m.scrollGoal = y
	m.animating = true
	m.animToken++
	return scrollFrame(m.animToken)
}

func (m *Model) stopAnimation() {
	if m.animating {
		m.animating = false
		m.animToken++
	}
}

// handleScrollFrame advances the scroll spring by one frame.
func (m Model) handleScrollFrame(msg scrollFrameMsg) (tea.Model, tea.Cmd) {
	if !m.animating || msg.Token != m.animToken {
		return m, nil
	}

	m.scrollPos, m.scrollVel = m.spring.Update(m.scrollPos, m.scrollVel, m.scrollGoal)
	if math.Abs(m.scrollPos-m.scrollGoal) < 0.5 && math.Abs(m.scrollVel) < 0.5 {
		m.scrollPos = m.scrollGoal
		m.animating = false
	}
	m.viewport.SetYOffset(int(math.Round(m.scrollPos)))

	if !m.animating {
		return m, nil
	}
	return m, scrollFrame(m.animToken)
}

func scrollFrame(token int) tea.Cmd {
	return tea.Tick(frameRate, func(time.Time) tea.Msg {
		return scrollFrameMsg{Token: token}
	})
}
