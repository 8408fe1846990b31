package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// isolate runs the test from an empty directory with an empty home.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadConfig(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config == nil {
		t.Fatal("LoadConfig() returned nil config")
	}

	// Test default values
	if config.Dest != "dist" {
		t.Errorf("Expected default dest to be dist, got %q", config.Dest)
	}
	if config.Staging != ".tmp" {
		t.Errorf("Expected default staging to be .tmp, got %q", config.Staging)
	}
	if config.Patterns != "html" {
		t.Errorf("Expected default patterns to be html, got %q", config.Patterns)
	}
	if got := config.Flow.Steps["js"]; !reflect.DeepEqual(got, []string{"concat", "uglify"}) {
		t.Errorf("Expected default js flow concat,uglify, got %v", got)
	}
	if got := config.Flow.Steps["css"]; !reflect.DeepEqual(got, []string{"concat", "cssmin"}) {
		t.Errorf("Expected default css flow concat,cssmin, got %v", got)
	}
	if config.Scan.StrictMedia {
		t.Error("Expected strict media to be off by default")
	}
}

func TestLoadConfigProjectFile(t *testing.T) {
	isolate(t)
	writeFile(t, ".gousemin.yaml", `dest: public
patterns: "django:html"
search_path: [".tmp", "app"]
finder:
  manifest: rev-manifest.json
scan:
  strict_media: true
`)

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.Dest != "public" {
		t.Errorf("dest = %q, want public", config.Dest)
	}
	if config.Patterns != "django:html" {
		t.Errorf("patterns = %q, want django:html", config.Patterns)
	}
	if !reflect.DeepEqual(config.SearchPath, []string{".tmp", "app"}) {
		t.Errorf("search_path = %v", config.SearchPath)
	}
	if config.Finder.Manifest != "rev-manifest.json" {
		t.Errorf("finder.manifest = %q", config.Finder.Manifest)
	}
	if !config.Scan.StrictMedia {
		t.Error("Expected strict media from project config")
	}
	if config.Staging != ".tmp" {
		t.Errorf("Expected default staging to survive, got %q", config.Staging)
	}
	if got := ConfigFileUsed(); got != ".gousemin.yaml" {
		t.Errorf("ConfigFileUsed() = %q", got)
	}
}

func TestLoadConfigExplicitFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.toml")
	writeFile(t, file, `dest = "site"
workers = 3

[flow.steps]
js = ["concat"]
`)

	config, err := LoadConfig(file)
	if err != nil {
		t.Fatalf("LoadConfig(%s) failed: %v", file, err)
	}
	if config.Dest != "site" {
		t.Errorf("dest = %q, want site", config.Dest)
	}
	if config.Workers != 3 {
		t.Errorf("workers = %d, want 3", config.Workers)
	}
	if got := config.Flow.Steps["js"]; !reflect.DeepEqual(got, []string{"concat"}) {
		t.Errorf("js flow = %v, want [concat]", got)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("GOUSEMIN_DEST", "out")
	t.Setenv("GOUSEMIN_SCAN_STRICT_MEDIA", "true")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.Dest != "out" {
		t.Errorf("dest = %q, want out", config.Dest)
	}
	if !config.Scan.StrictMedia {
		t.Error("Expected strict media from environment")
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	isolate(t)
	writeFile(t, ".env", "GOUSEMIN_STAGING=build/tmp\n")
	t.Cleanup(func() { _ = os.Unsetenv("GOUSEMIN_STAGING") })

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.Staging != "build/tmp" {
		t.Errorf("staging = %q, want build/tmp", config.Staging)
	}
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "destination: public\n"},
		{"negative workers", "workers: -1\n"},
		{"unknown patterns", "patterns: jinja\n"},
		{"unknown flow step", "flow:\n  steps:\n    js: [gzip]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			writeFile(t, "gousemin.yaml", tt.content)

			_, err := LoadConfig("")
			if err == nil {
				t.Fatal("LoadConfig() expected error but got none")
			}
			if !strings.Contains(err.Error(), "configuration validation failed") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := LoadConfig("nope.yaml"); err == nil {
		t.Fatal("LoadConfig() expected error for missing file")
	}
}

func TestConfigValidate(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() failed: %v", err)
	}

	c.Workers = -2
	if err := c.Validate(); err == nil {
		t.Error("Expected error for negative workers")
	}

	c = Default()
	c.Flow.Steps["js"] = []string{"gzip"}
	if err := c.Validate(); err == nil {
		t.Error("Expected error for unknown flow step")
	}

	// Default hands out copies
	if got := Default().Flow.Steps["js"]; !reflect.DeepEqual(got, []string{"concat", "uglify"}) {
		t.Errorf("Default() shares flow state: %v", got)
	}
}
