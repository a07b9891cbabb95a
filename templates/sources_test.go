package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}
	return path
}

func TestLoadSourcesDefault(t *testing.T) {
	sources, err := LoadSources("")
	if err != nil {
		t.Fatalf("LoadSources() error = %v", err)
	}
	if diff := cmp.Diff(DefaultSources, sources); diff != "" {
		t.Errorf("Default sources mismatch (-want +got):\n%s", diff)
	}

	// Callers get their own copy
	sources[0] = "changed"
	if DefaultSources[0] == "changed" {
		t.Error("LoadSources returned the package slice")
	}
}

func TestDefaultSourcesAreValid(t *testing.T) {
	if len(DefaultSources) != 4 {
		t.Fatalf("Expected 4 default sources, got %d", len(DefaultSources))
	}
	for _, source := range DefaultSources {
		if err := validateSource(source); err != nil {
			t.Errorf("Default source invalid: %v", err)
		}
	}
}

func TestLoadSourcesFromFile(t *testing.T) {
	path := writeSources(t, `
sources:
  - https://example.com/b.json
  - "  https://example.com/a.json  "
  - http://localhost:8080/c.json
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources() error = %v", err)
	}

	want := []string{"https://example.com/b.json", "https://example.com/a.json", "http://localhost:8080/c.json"}
	if diff := cmp.Diff(want, sources); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSourcesErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{"no sources", "sources: []\n", "lists no sources"},
		{"missing key", "urls:\n  - https://example.com/a.json\n", "lists no sources"},
		{"blank entry", "sources:\n  - https://example.com/a.json\n  - ''\n", "entry 2"},
		{"bad scheme", "sources:\n  - ftp://example.com/a.json\n", "must use http or https"},
		{"no host", "sources:\n  - https:///a.json\n", "has no host"},
		{"bad yaml", "sources: [unterminated\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSources(writeSources(t, tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected error containing %q, got %v", tt.expected, err)
			}
		})
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
