// Package linkermap parses the server's linker map dump and session info,
// and searches the functions they list.
package linkermap

import (
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/henri123lemoine/asmdw/internal/debug"
)

// Symbol is one function from the map file.
type Symbol struct {
	Name   string
	RAM    uint64
	ROM    uint64
	Object string // base name of the object file
}

// Map indexes symbols by function and by object.
type Map struct {
	symbols    []Symbol
	byFunction map[string]int
	byObject   map[string][]int
	objects    []string
}

// Parse reads a dump of "name ram rom objpath" lines with hex addresses.
// Malformed lines are skipped. A later line for the same function wins.
func Parse(dump string) *Map {
	m := &Map{
		byFunction: make(map[string]int),
		byObject:   make(map[string][]int),
	}
	for _, line := range strings.Split(dump, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		sym, ok := parseLine(line)
		if !ok {
			debug.Log(debug.CatDoc, "linker map: skipping %q", line)
			continue
		}
		idx := len(m.symbols)
		m.symbols = append(m.symbols, sym)
		m.byFunction[sym.Name] = idx
		if _, seen := m.byObject[sym.Object]; !seen {
			m.objects = append(m.objects, sym.Object)
		}
		m.byObject[sym.Object] = append(m.byObject[sym.Object], idx)
	}
	return m
}

func parseLine(line string) (Symbol, bool) {
	parts := strings.SplitN(line, " ", 5)
	if len(parts) < 4 {
		return Symbol{}, false
	}
	ram, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 64)
	if err != nil {
		return Symbol{}, false
	}
	rom, err := strconv.ParseUint(strings.TrimPrefix(parts[2], "0x"), 16, 64)
	if err != nil {
		return Symbol{}, false
	}
	return Symbol{Name: parts[0], RAM: ram, ROM: rom, Object: baseName(parts[3])}, true
}

// baseName trims everything up to the last / or \ so that paths from
// either platform reduce to the same object name.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Len returns the number of symbols.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.symbols)
}

// Function looks up a function by name.
func (m *Map) Function(name string) (Symbol, bool) {
	if m == nil {
		return Symbol{}, false
	}
	idx, ok := m.byFunction[name]
	if !ok {
		return Symbol{}, false
	}
	return m.symbols[idx], true
}

// Object returns the functions of an object in map order.
func (m *Map) Object(name string) []Symbol {
	if m == nil {
		return nil
	}
	var out []Symbol
	for _, idx := range m.byObject[name] {
		out = append(out, m.symbols[idx])
	}
	return out
}

// Objects returns object names in first-seen order.
func (m *Map) Objects() []string {
	if m == nil {
		return nil
	}
	return m.objects
}

// symbolSource implements fuzzy.Source over a symbol slice.
type symbolSource []Symbol

func (s symbolSource) String(i int) string {
	return s[i].Name
}

func (s symbolSource) Len() int {
	return len(s)
}

// Search returns the functions matching query, best match first. When
// object is non-empty only that object's functions are considered. An empty
// query returns the candidates in map order.
func (m *Map) Search(query, object string) []Symbol {
	if m == nil {
		return nil
	}
	var candidates []Symbol
	if object != "" {
		candidates = m.Object(object)
	} else {
		candidates = m.symbols
	}
	if query == "" {
		return candidates
	}

	matches := fuzzy.FindFrom(query, symbolSource(candidates))
	out := make([]Symbol, 0, len(matches))
	for _, match := range matches {
		out = append(out, candidates[match.Index])
	}
	return out
}

// Info is the server's session info: one "key value" pair per line.
type Info map[string]string

// ParseInfo reads an info dump. Lines that do not split into a key and a
// value are skipped.
func ParseInfo(body string) Info {
	info := make(Info)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			debug.Log(debug.CatDoc, "info: could not split %q", line)
			continue
		}
		info[key] = value
	}
	return info
}

// Start returns the function the server is currently diffing.
func (i Info) Start() string {
	return i["start"]
}

// Preselect resolves the server's start function against the map, yielding
// the object and function a picker should open on.
func Preselect(m *Map, info Info) (object, function string, ok bool) {
	start := info.Start()
	sym, found := m.Function(start)
	if !found {
		debug.Log(debug.CatDoc, "start %q not in linker map", start)
		return "", "", false
	}
	return sym.Object, sym.Name, true
}
