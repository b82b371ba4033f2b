// Package config handles asmdw configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents asmdw configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Poll   PollConfig   `toml:"poll"`
	UI     UIConfig     `toml:"ui"`
	Open   OpenConfig   `toml:"open"`
	Keys   KeysConfig   `toml:"keys"`
}

// ServerConfig selects the diff server.
type ServerConfig struct {
	// Base URL of the diff server
	URL string `toml:"url"`
}

// PollConfig contains long-poll settings.
type PollConfig struct {
	// Request the next diff as soon as one arrives
	Continuous bool `toml:"continuous"`

	// Pause between healthy requests, in milliseconds
	DelayMs int `toml:"delay_ms"`

	// Wait after the first failed request, in milliseconds. Doubles on
	// every further failure.
	BackoffSeedMs int `toml:"backoff_seed_ms"`
}

// UIConfig contains UI settings.
type UIConfig struct {
	// Margin around jump targets, as a multiple of their mean height
	ComfortFactor float64 `toml:"comfort_factor"`

	// Animate jumps instead of snapping
	SmoothScroll bool `toml:"smooth_scroll"`

	// Capture the mouse for clicks and hover
	Mouse bool `toml:"mouse"`

	// How long status messages stay, in milliseconds
	StatusDurationMs int `toml:"status_duration_ms"`

	// How long a status message takes to slide out, in milliseconds
	StatusSlideOutMs int `toml:"status_slide_out_ms"`

	// Color theme: auto, dark, light
	Theme string `toml:"theme"`
}

// OpenConfig contains settings for opening the web view.
type OpenConfig struct {
	// Command that opens a URL. Empty means the platform opener.
	// Template variables: {url}, {query}
	BrowserCommand string `toml:"browser_command"`
}

// KeysConfig contains keybinding settings.
type KeysConfig struct {
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	PageUp       string `toml:"page_up"`
	PageDown     string `toml:"page_down"`
	Home         string `toml:"home"`
	End          string `toml:"end"`
	NextBranch   string `toml:"next_branch"`
	PrevBranch   string `toml:"prev_branch"`
	Follow       string `toml:"follow"`
	Clear        string `toml:"clear"`
	Retry        string `toml:"retry"`
	PickFunction string `toml:"pick_function"`
	OpenBrowser  string `toml:"open_browser"`
	Help         string `toml:"help"`
	Quit         string `toml:"quit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://localhost:8000/",
		},
		Poll: PollConfig{
			Continuous:    true,
			DelayMs:       100,
			BackoffSeedMs: 5000,
		},
		UI: UIConfig{
			ComfortFactor:    2.0,
			SmoothScroll:     true,
			Mouse:            true,
			StatusDurationMs: 10000,
			StatusSlideOutMs: 500,
			Theme:            "auto",
		},
		Open: OpenConfig{
			BrowserCommand: "",
		},
		Keys: KeysConfig{
			Up:           "up,k",
			Down:         "down,j",
			PageUp:       "pgup,ctrl+u",
			PageDown:     "pgdown,ctrl+d",
			Home:         "home,g",
			End:          "end,G",
			NextBranch:   "n",
			PrevBranch:   "N",
			Follow:       "enter",
			Clear:        "esc",
			Retry:        "r",
			PickFunction: "f",
			OpenBrowser:  "w",
			Help:         "?",
			Quit:         "q,ctrl+c",
		},
	}
}

// PollDelay returns the healthy re-poll delay.
func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.Poll.DelayMs) * time.Millisecond
}

// BackoffSeed returns the first failure delay.
func (c *Config) BackoffSeed() time.Duration {
	return time.Duration(c.Poll.BackoffSeedMs) * time.Millisecond
}

// StatusDuration returns how long a status message stays.
func (c *Config) StatusDuration() time.Duration {
	return time.Duration(c.UI.StatusDurationMs) * time.Millisecond
}

// StatusSlideOut returns the slide-out duration of status messages.
func (c *Config) StatusSlideOut() time.Duration {
	return time.Duration(c.UI.StatusSlideOutMs) * time.Millisecond
}

// ConfigPath returns the path to the config file.
// Uses ~/.config/asmdw/config.toml (XDG style) on all Unix systems.
func ConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "asmdw", "config.toml")
	}
	home := os.Getenv("HOME")
	if home != "" {
		return filepath.Join(home, ".config", "asmdw", "config.toml")
	}
	// Fallback to os.UserConfigDir() for Windows
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "asmdw", "config.toml")
	}
	return filepath.Join(configDir, "asmdw", "config.toml")
}

// Load loads configuration from the config file.
func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath loads configuration from a specific path. A missing file
// yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// go-toml/v2 only overwrites fields present in the file, so
	// unspecified fields (booleans included) keep their defaults.
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves configuration to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// CreateDefaultConfigFile writes a commented default config to path.
func CreateDefaultConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(generateDefaultConfigContent()), 0644)
}

// generateDefaultConfigContent generates a commented config file.
func generateDefaultConfigContent() string {
	var b strings.Builder
	cfg := DefaultConfig()

	b.WriteString("# asmdw configuration\n\n")

	b.WriteString("[server]\n")
	b.WriteString("# Base URL of the diff server (diff.py --web)\n")
	fmt.Fprintf(&b, "url = %q\n\n", cfg.Server.URL)

	b.WriteString("[poll]\n")
	b.WriteString("# Request the next diff as soon as one arrives\n")
	fmt.Fprintf(&b, "continuous = %v\n", cfg.Poll.Continuous)
	b.WriteString("# Pause between requests while the server is healthy (ms)\n")
	fmt.Fprintf(&b, "delay_ms = %d\n", cfg.Poll.DelayMs)
	b.WriteString("# Wait after a failed request (ms); doubles on each further failure\n")
	fmt.Fprintf(&b, "backoff_seed_ms = %d\n\n", cfg.Poll.BackoffSeedMs)

	b.WriteString("[ui]\n")
	b.WriteString("# Margin kept around jump targets, as a multiple of their mean height\n")
	fmt.Fprintf(&b, "comfort_factor = %.1f\n", cfg.UI.ComfortFactor)
	b.WriteString("# Animate jumps instead of snapping\n")
	fmt.Fprintf(&b, "smooth_scroll = %v\n", cfg.UI.SmoothScroll)
	b.WriteString("# Capture the mouse for clicks and hover\n")
	fmt.Fprintf(&b, "mouse = %v\n", cfg.UI.Mouse)
	b.WriteString("# How long status messages stay, then how long they take to slide out (ms)\n")
	fmt.Fprintf(&b, "status_duration_ms = %d\n", cfg.UI.StatusDurationMs)
	fmt.Fprintf(&b, "status_slide_out_ms = %d\n", cfg.UI.StatusSlideOutMs)
	b.WriteString("# Color theme: \"auto\", \"dark\", or \"light\"\n")
	fmt.Fprintf(&b, "theme = %q\n\n", cfg.UI.Theme)

	b.WriteString("[open]\n")
	b.WriteString("# Command used to open the web view (platform opener if not set)\n")
	b.WriteString("# Template variables: {url}, {query}\n")
	b.WriteString("# Variables are shell-escaped for safety.\n")
	b.WriteString("# browser_command = \"firefox {url}\"\n\n")

	b.WriteString("[keys]\n")
	b.WriteString("# Keybindings (comma-separated for multiple keys)\n")
	fmt.Fprintf(&b, "# up = %q\n", cfg.Keys.Up)
	fmt.Fprintf(&b, "# down = %q\n", cfg.Keys.Down)
	fmt.Fprintf(&b, "# next_branch = %q\n", cfg.Keys.NextBranch)
	fmt.Fprintf(&b, "# prev_branch = %q\n", cfg.Keys.PrevBranch)
	fmt.Fprintf(&b, "# follow = %q\n", cfg.Keys.Follow)
	fmt.Fprintf(&b, "# clear = %q\n", cfg.Keys.Clear)
	fmt.Fprintf(&b, "# retry = %q\n", cfg.Keys.Retry)
	fmt.Fprintf(&b, "# pick_function = %q\n", cfg.Keys.PickFunction)
	fmt.Fprintf(&b, "# open_browser = %q\n", cfg.Keys.OpenBrowser)
	fmt.Fprintf(&b, "# help = %q\n", cfg.Keys.Help)
	fmt.Fprintf(&b, "# quit = %q\n", cfg.Keys.Quit)

	return b.String()
}

// Validate validates the configuration and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if u, err := url.Parse(c.Server.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		warnings = append(warnings, fmt.Sprintf("Invalid server.url: %q (expected http(s)://host[:port]/)", c.Server.URL))
	}

	if c.Poll.DelayMs < 0 {
		warnings = append(warnings, fmt.Sprintf("poll.delay_ms must not be negative, got %d", c.Poll.DelayMs))
	}
	if c.Poll.BackoffSeedMs <= 0 {
		warnings = append(warnings, fmt.Sprintf("poll.backoff_seed_ms must be positive, got %d", c.Poll.BackoffSeedMs))
	}

	if c.UI.ComfortFactor < 0 {
		warnings = append(warnings, fmt.Sprintf("ui.comfort_factor must not be negative, got %g", c.UI.ComfortFactor))
	}
	if c.UI.StatusDurationMs <= 0 {
		warnings = append(warnings, fmt.Sprintf("ui.status_duration_ms must be positive, got %d", c.UI.StatusDurationMs))
	}
	if c.UI.StatusSlideOutMs <= 0 {
		warnings = append(warnings, fmt.Sprintf("ui.status_slide_out_ms must be positive, got %d", c.UI.StatusSlideOutMs))
	}

	if c.UI.Theme != "" &&
		c.UI.Theme != "auto" &&
		c.UI.Theme != "dark" &&
		c.UI.Theme != "light" {
		warnings = append(warnings, fmt.Sprintf("Invalid value for ui.theme: %s (expected auto, dark, or light)", c.UI.Theme))
	}

	validVars := map[string]bool{"{url}": true, "{query}": true}
	for _, v := range extractTemplateVars(c.Open.BrowserCommand) {
		if !validVars[v] {
			warnings = append(warnings, fmt.Sprintf("Unknown template variable in open.browser_command: %s", v))
		}
	}

	return warnings
}

var templateVarRe = regexp.MustCompile(`\{[^}]+\}`)

// extractTemplateVars extracts template variables from a string.
func extractTemplateVars(s string) []string {
	return templateVarRe.FindAllString(s, -1)
}
