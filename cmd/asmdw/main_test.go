package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/henri123lemoine/asmdw/internal/config"
)

func TestInitConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asmdw", "config.toml")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"init-config", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("init-config failed: %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("Expected path in output, got %q", out.String())
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Server.URL != config.DefaultConfig().Server.URL {
		t.Errorf("Expected default server URL, got %q", cfg.Server.URL)
	}

	// A second run refuses to overwrite.
	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"init-config", "--config", path})
	if err := root.Execute(); err == nil {
		t.Error("Expected error for existing config")
	}
	cfgFile = ""
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if got := out.String(); got != "asmdw dev\n" {
		t.Errorf("Expected %q, got %q", "asmdw dev\n", got)
	}
	if _, err := os.Stat("config.toml"); err == nil {
		t.Error("version must not write files")
	}
}
