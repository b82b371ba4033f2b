package app

import (
	"github.com/henri123lemoine/asmdw/internal/linkermap"
)

// Message types for the bubbletea app.

// ContentMsg is sent when a long-poll request completes.
type ContentMsg struct {
	Body string
	Err  error
}

// pollTickMsg fires when an armed poll timer expires. Token identifies the
// timer; stale tokens are ignored by the session.
type pollTickMsg struct {
	Token int
}

// LinkerMapLoadedMsg is sent when a linker map dump is available.
type LinkerMapLoadedMsg struct {
	Dump      string
	FromCache bool
	Err       error
}

// InfoLoadedMsg is sent when the session info is loaded.
type InfoLoadedMsg struct {
	Info linkermap.Info
	Err  error
}

// StartSetMsg is sent when the server acknowledged a new target function.
type StartSetMsg struct {
	Function string
	Err      error
}

// BrowserOpenedMsg is sent when the web view was launched.
type BrowserOpenedMsg struct {
	Err error
}

// toastTickMsg wakes the status queue.
type toastTickMsg struct{}

// scrollFrameMsg advances the scroll animation with the given token.
type scrollFrameMsg struct {
	Token int
}
