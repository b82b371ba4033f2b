// Package ui provides rendering functions for the asmdw terminal UI.
//
// RenderTable turns a laid-out diff into styled terminal lines, with branch
// highlights layered on top of the server's classes. Render composes the
// full screen from RenderParams. Rendering is pure (no side effects) and
// separated from state management.
package ui
