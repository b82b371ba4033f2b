package exec

import (
	"runtime"
	"strings"
	"testing"
)

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		baseURL  string
		query    string
		expected string
	}{
		{
			name:     "url variable",
			template: "firefox {url}",
			baseURL:  "http://localhost:8000/",
			query:    "",
			expected: "firefox http://localhost:8000/",
		},
		{
			name:     "url with query is quoted",
			template: "firefox {url}",
			baseURL:  "http://localhost:8000/",
			query:    "init&",
			expected: "firefox 'http://localhost:8000/?init&'",
		},
		{
			name:     "existing query replaced",
			template: "open {url}",
			baseURL:  "http://localhost:8000/?diff",
			query:    "init&",
			expected: "open 'http://localhost:8000/?init&'",
		},
		{
			name:     "query variable",
			template: "echo {query}",
			baseURL:  "http://h/",
			query:    "init&",
			expected: "echo 'init&'",
		},
		{
			name:     "empty query",
			template: "echo {query}",
			baseURL:  "http://h/",
			query:    "",
			expected: "echo ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandTemplate(tt.template, tt.baseURL, tt.query)
			if result != tt.expected {
				t.Errorf("expandTemplate() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no special chars - no quoting",
			input:    "http://localhost:8000/",
			expected: "http://localhost:8000/",
		},
		{
			name:     "ampersand",
			input:    "http://h/?a&b",
			expected: "'http://h/?a&b'",
		},
		{
			name:     "single quote",
			input:    "it's",
			expected: "'it'\"'\"'s'",
		},
		{
			name:     "dollar",
			input:    "$HOME",
			expected: "'$HOME'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shellQuote(tt.input)
			if result != tt.expected {
				t.Errorf("shellQuote(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDefaultOpenCommandPrefersBrowserEnv(t *testing.T) {
	t.Setenv("BROWSER", "lynx")
	if got := DefaultOpenCommand(); got != "lynx {url}" {
		t.Errorf("DefaultOpenCommand() = %q, want %q", got, "lynx {url}")
	}
}

func TestDefaultOpenCommandHasURL(t *testing.T) {
	t.Setenv("BROWSER", "")
	got := DefaultOpenCommand()
	if got != "" && !strings.Contains(got, "{url}") {
		t.Errorf("DefaultOpenCommand() = %q has no {url}", got)
	}
}

func TestOpenDetachedRunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	if err := OpenDetached("true {url}", "http://localhost:8000/", "init&"); err != nil {
		t.Errorf("OpenDetached() error: %v", err)
	}
}
