package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/henri123lemoine/asmdw/internal/config"
	"github.com/henri123lemoine/asmdw/internal/ui"
)

// KeyMap defines all keybindings.
type KeyMap struct {
	// Scrolling
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Branch navigation
	NextBranch key.Binding
	PrevBranch key.Binding
	Follow     key.Binding
	Clear      key.Binding

	// Actions
	Retry        key.Binding
	PickFunction key.Binding
	OpenBrowser  key.Binding

	// Picker
	ToggleObject key.Binding
	Confirm      key.Binding
	Cancel       key.Binding

	// General
	Quit key.Binding
	Help key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g/home", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G/end", "bottom"),
		),
		NextBranch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next branch"),
		),
		PrevBranch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous branch"),
		),
		Follow: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "follow branch"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear highlight"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry now"),
		),
		PickFunction: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "pick function"),
		),
		OpenBrowser: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "open web view"),
		),
		ToggleObject: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "only current object"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// KeyMapFromConfig creates a KeyMap from config settings. Empty entries
// keep the default binding.
func KeyMapFromConfig(cfg *config.KeysConfig) KeyMap {
	km := DefaultKeyMap()

	overrides := []struct {
		keys    string
		binding *key.Binding
		desc    string
	}{
		{cfg.Up, &km.Up, "scroll up"},
		{cfg.Down, &km.Down, "scroll down"},
		{cfg.PageUp, &km.PageUp, "page up"},
		{cfg.PageDown, &km.PageDown, "page down"},
		{cfg.Home, &km.Home, "top"},
		{cfg.End, &km.End, "bottom"},
		{cfg.NextBranch, &km.NextBranch, "next branch"},
		{cfg.PrevBranch, &km.PrevBranch, "previous branch"},
		{cfg.Follow, &km.Follow, "follow branch"},
		{cfg.Clear, &km.Clear, "clear highlight"},
		{cfg.Retry, &km.Retry, "retry now"},
		{cfg.PickFunction, &km.PickFunction, "pick function"},
		{cfg.OpenBrowser, &km.OpenBrowser, "open web view"},
		{cfg.Help, &km.Help, "help"},
		{cfg.Quit, &km.Quit, "quit"},
	}
	for _, o := range overrides {
		if o.keys == "" {
			continue
		}
		*o.binding = key.NewBinding(
			key.WithKeys(parseKeys(o.keys)...),
			key.WithHelp(o.keys, o.desc),
		)
	}

	return km
}

// HelpSections groups the bindings for the help screen.
func (km KeyMap) HelpSections() []ui.HelpSection {
	section := func(title string, bindings ...key.Binding) ui.HelpSection {
		s := ui.HelpSection{Title: title}
		for _, b := range bindings {
			h := b.Help()
			s.Bindings = append(s.Bindings, ui.HelpBinding{Keys: h.Key, Desc: h.Desc})
		}
		return s
	}
	return []ui.HelpSection{
		section("Scrolling", km.Up, km.Down, km.PageUp, km.PageDown, km.Home, km.End),
		section("Branches", km.NextBranch, km.PrevBranch, km.Follow, km.Clear),
		section("Server", km.Retry, km.PickFunction, km.OpenBrowser),
		section("General", km.Help, km.Quit),
	}
}

// parseKeys parses a comma-separated list of keys.
func parseKeys(s string) []string {
	parts := strings.Split(s, ",")
	var keys []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
