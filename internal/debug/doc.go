// Package debug provides debug logging for asmdw.
//
// When enabled via the --debug flag, it writes timestamped, categorized
// lines about polling, navigation and layout to a file, since the
// terminal itself is owned by the UI.
package debug
