package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Category tags a log line with the subsystem that wrote it.
type Category string

const (
	CatPoll  Category = "poll"  // long-poll requests and backoff
	CatNav   Category = "nav"   // branch navigation and scrolling
	CatDoc   Category = "doc"   // parsing and layout of diff markup
	CatUI    Category = "ui"    // application state changes
	CatCache Category = "cache" // on-disk cache reads and writes
)

// Categories lists every category in display order.
var Categories = []Category{CatPoll, CatNav, CatDoc, CatUI, CatCache}

// sink is the open log and its filter. A nil sink means logging is off.
type sink struct {
	file    *os.File
	only    map[Category]bool
	started time.Time
}

func (s *sink) wants(cat Category) bool {
	return len(s.only) == 0 || s.only[cat]
}

var (
	mu  sync.Mutex
	out *sink
)

// Enable starts writing to path, truncating it. With categories given,
// only lines in those categories are written.
func Enable(path string, categories ...Category) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if out != nil {
		_ = out.file.Close()
	}
	out = &sink{file: f, started: time.Now()}
	if len(categories) > 0 {
		out.only = make(map[Category]bool, len(categories))
		for _, c := range categories {
			out.only[c] = true
		}
	}

	fmt.Fprintf(f, "asmdw debug log, %s\n", out.started.Format(time.RFC3339))
	return nil
}

// Close stops logging and closes the file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		_ = out.file.Close()
		out = nil
	}
}

// Enabled reports whether lines in cat are currently written.
func Enabled(cat Category) bool {
	mu.Lock()
	defer mu.Unlock()
	return out != nil && out.wants(cat)
}

// Log writes a line in cat if it is enabled.
func Log(cat Category, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if out == nil || !out.wants(cat) {
		return
	}
	elapsed := time.Since(out.started).Seconds()
	_, _ = fmt.Fprintf(out.file, "%9.3f %-5s %s\n", elapsed, cat, fmt.Sprintf(format, args...))
}

// Timed logs how long an operation took. Usage:
//
//	defer debug.Timed(debug.CatDoc, "layout")()
func Timed(cat Category, name string) func() {
	if !Enabled(cat) {
		return func() {}
	}
	start := time.Now()
	return func() {
		Log(cat, "%s took %v", name, time.Since(start).Round(time.Microsecond))
	}
}

// ParseCategories reads a comma-separated category list, as given on the
// command line.
func ParseCategories(s string) ([]Category, error) {
	var cats []Category
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cat := Category(part)
		known := false
		for _, c := range Categories {
			if c == cat {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown debug category %q", part)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}
