package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
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

func TestHTMLCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "doc.md")
	content := "# Hello\n\nsee [docs](https://example.com/page)\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"html", "--allow-host", "example.com", path})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	html := out.String()
	if !strings.Contains(html, "<h1>Hello</h1>") {
		t.Errorf("output missing heading: %q", html)
	}
	if !strings.Contains(html, `<a href="https://example.com/page"`) {
		t.Errorf("allowed link not rendered: %q", html)
	}
}
