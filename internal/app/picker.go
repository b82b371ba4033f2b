package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/henri123lemoine/asmdw/internal/debug"
	"github.com/henri123lemoine/asmdw/internal/linkermap"
	"github.com/henri123lemoine/asmdw/internal/poll"
)

// pickerChrome is the number of picker lines that are not matches.
const pickerChrome = 10

// handleLinkerMap installs a linker map. A cached map never replaces one
// fetched from the server.
func (m Model) handleLinkerMap(msg LinkerMapLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.FromCache && m.mapFresh {
		return m, nil
	}
	if msg.Err != nil {
		if errors.Is(msg.Err, poll.ErrNoLinkerMap) {
			debug.Log(debug.CatUI, "server has no linker map")
			return m, nil
		}
		return m, m.pushStatus("Could not fetch the linker map file", false)
	}

	m.linkerMap = linkermap.Parse(msg.Dump)
	m.mapFresh = !msg.FromCache
	debug.Log(debug.CatUI, "linker map: %d functions (cached=%v)", m.linkerMap.Len(), msg.FromCache)
	m.preselect()
	if m.state == StatePicker {
		m.applyPickerFilter()
	}
	return m, nil
}

// preselect points the picker at the function the server is diffing.
func (m *Model) preselect() {
	if m.info == nil {
		return
	}
	if object, function, ok := linkermap.Preselect(m.linkerMap, m.info); ok {
		m.object = object
		m.function = function
		return
	}
	if m.function == "" {
		m.function = m.info.Start()
	}
}

// openPicker switches to the function picker.
func (m Model) openPicker() (tea.Model, tea.Cmd) {
	m.state = StatePicker
	m.pickerInput.Reset()
	m.pickerInput.Focus()
	m.pickerCursor = 0
	m.pickerOffset = 0
	m.applyPickerFilter()
	for i, sym := range m.pickerMatches {
		if sym.Name == m.function {
			m.pickerCursor = i
			m.ensurePickerCursorVisible()
			break
		}
	}
	return m, textinput.Blink
}

// handlePickerKeys handles key presses in the function picker.
func (m Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = StateView
		m.pickerInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		fn := m.pickedFunction()
		m.state = StateView
		m.pickerInput.Blur()
		if fn == "" {
			return m, nil
		}
		m.function = fn
		if sym, ok := m.linkerMap.Function(fn); ok {
			m.object = sym.Object
		}
		return m, setStart(m.ctx, m.client, fn)

	case key.Matches(msg, m.keys.ToggleObject):
		m.onlyObject = !m.onlyObject
		m.pickerCursor = 0
		m.pickerOffset = 0
		m.applyPickerFilter()
		return m, nil

	case msg.Type == tea.KeyUp:
		if m.pickerCursor > 0 {
			m.pickerCursor--
			m.ensurePickerCursorVisible()
		}
		return m, nil

	case msg.Type == tea.KeyDown:
		if m.pickerCursor < len(m.pickerMatches)-1 {
			m.pickerCursor++
			m.ensurePickerCursorVisible()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pickerInput, cmd = m.pickerInput.Update(msg)
	m.applyPickerFilter()
	return m, cmd
}

// pickedFunction returns the highlighted match, or the typed name when no
// linker map is loaded.
func (m Model) pickedFunction() string {
	if m.linkerMap.Len() == 0 {
		return strings.TrimSpace(m.pickerInput.Value())
	}
	if m.pickerCursor < len(m.pickerMatches) {
		return m.pickerMatches[m.pickerCursor].Name
	}
	return ""
}

// applyPickerFilter fuzzy-matches the input against the linker map.
func (m *Model) applyPickerFilter() {
	object := ""
	if m.onlyObject {
		object = m.object
	}
	m.pickerMatches = m.linkerMap.Search(strings.TrimSpace(m.pickerInput.Value()), object)

	if m.pickerCursor >= len(m.pickerMatches) {
		m.pickerCursor = max(len(m.pickerMatches)-1, 0)
	}
	m.ensurePickerCursorVisible()
}

func (m Model) pickerVisible() int {
	return max(m.height-pickerChrome, 1)
}

// ensurePickerCursorVisible adjusts the scroll offset so the cursor is shown.
func (m *Model) ensurePickerCursorVisible() {
	visible := m.pickerVisible()
	if m.pickerCursor < m.pickerOffset {
		m.pickerOffset = m.pickerCursor
	}
	if m.pickerCursor >= m.pickerOffset+visible {
		m.pickerOffset = m.pickerCursor - visible + 1
	}
	if m.pickerOffset < 0 {
		m.pickerOffset = 0
	}
}
