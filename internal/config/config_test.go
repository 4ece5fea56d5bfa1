package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir is t.Chdir for Go versions before 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STREAMDOWN_API_KEY", "")
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Render.Style != "auto" {
		t.Errorf("render.style = %q, want auto", cfg.Render.Style)
	}
	if !cfg.Widget.IncludeWww {
		t.Error("widget.include_www default should be true")
	}
	if cfg.Widget.AllowHTTP {
		t.Error("widget.allow_http default should be false")
	}
	if cfg.Widget.HighlightTheme != "monokai" {
		t.Errorf("widget.highlight_theme = %q, want monokai", cfg.Widget.HighlightTheme)
	}
	if cfg.Agents.Dir != "agents" {
		t.Errorf("agents.dir = %q, want agents", cfg.Agents.Dir)
	}
}

func TestLoad_FromFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("STREAMDOWN_API_KEY", "")
	chdir(t, t.TempDir())

	dir := filepath.Join(xdg, "streamdown")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	content := `render:
  style: dark
  width: 100
widget:
  allowed_hosts:
    - example.com
  allow_http: true
agents:
  api_url: https://api.example.com
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Render.Style != "dark" || cfg.Render.Width != 100 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if len(cfg.Widget.AllowedHosts) != 1 || cfg.Widget.AllowedHosts[0] != "example.com" {
		t.Errorf("widget.allowed_hosts = %v", cfg.Widget.AllowedHosts)
	}
	if !cfg.Widget.AllowHTTP {
		t.Error("widget.allow_http not read from file")
	}
	if cfg.Agents.APIURL != "https://api.example.com" {
		t.Errorf("agents.api_url = %q", cfg.Agents.APIURL)
	}
	// Defaults still apply for keys the file omits.
	if cfg.Widget.HighlightTheme != "monokai" {
		t.Errorf("widget.highlight_theme = %q, want monokai", cfg.Widget.HighlightTheme)
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STREAMDOWN_API_KEY", "env-secret")
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Agents.APIKey != "env-secret" {
		t.Fatalf("agents.api_key = %q, want env-secret", cfg.Agents.APIKey)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", "streamdown") {
		t.Fatalf("GetConfigDir() = %q", dir)
	}
}
