// Package app provides the main Bubble Tea application model for asmdw.
//
// It owns the long-poll cycle against the diff server, the parsed diff
// table and its branch navigation, the status toasts and the function
// picker. Timers (poll retries, scroll frames, toast slides) are tea.Tick
// commands tagged with a token, so a superseded timer is dropped when it
// fires instead of being cancelled.
//
// The main type is Model, which implements the Bubble Tea interface
// (Init, Update, View) and manages all application state.
package app
