// Package exec handles executing external commands.
package exec

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/henri123lemoine/asmdw/internal/debug"
)

// OpenDetached opens the server's web view in a detached process so the
// browser outlives asmdw. command is a shell template with {url} and
// {query}; an empty command uses DefaultOpenCommand.
func OpenDetached(command, baseURL, query string) error {
	if strings.TrimSpace(command) == "" {
		command = DefaultOpenCommand()
	}
	if command == "" {
		return fmt.Errorf("no browser command configured and no platform opener found")
	}

	expanded := expandTemplate(command, baseURL, query)
	debug.Log(debug.CatUI, "open: %s", expanded)

	cmd := exec.Command("sh", "-c", expanded)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	// Start the process but don't wait for it
	return cmd.Start()
}

// DefaultOpenCommand returns the platform's URL opener as a template.
// $BROWSER wins when set.
func DefaultOpenCommand() string {
	if browser := os.Getenv("BROWSER"); browser != "" {
		return browser + " {url}"
	}
	switch runtime.GOOS {
	case "darwin":
		return "open {url}"
	case "windows":
		return "rundll32 url.dll,FileProtocolHandler {url}"
	}
	if _, err := exec.LookPath("xdg-open"); err == nil {
		return "xdg-open {url}"
	}
	if _, err := exec.LookPath("wslview"); err == nil {
		return "wslview {url}"
	}
	return ""
}

// expandTemplate expands template variables in the command.
func expandTemplate(command, baseURL, query string) string {
	full := baseURL
	if query != "" {
		full = strings.SplitN(baseURL, "?", 2)[0] + "?" + query
	}

	result := command

	// {url} - Full URL including the query
	result = strings.ReplaceAll(result, "{url}", shellQuote(full))

	// {query} - Query string alone
	result = strings.ReplaceAll(result, "{query}", shellQuote(query))

	return result
}

// shellQuote quotes s for sh when it contains anything but safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("/._-:,+@%=", r)
}
