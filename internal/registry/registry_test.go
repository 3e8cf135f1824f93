package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	models := r.Models()
	if len(models) != 3 {
		t.Fatalf("expected 3 built-in models, got %d", len(models))
	}

	m, ok := r.ByID("phi3:mini")
	if !ok {
		t.Fatal("phi3:mini should be in the default registry")
	}
	if m.DisplayName != "Phi-3 Mini" {
		t.Errorf("display name = %q", m.DisplayName)
	}
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	r := Default()

	if got := r.DisplayName("llama3.2:1b"); got != "Llama 3.2" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := r.DisplayName("mystery:7b"); got != "mystery:7b" {
		t.Errorf("unknown ids should fall back to the id, got %q", got)
	}
}

func TestLoadFileReplacesBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	doc := `models:
  - id: custom:13b
    display_name: Custom 13B
    size: 13B
  - id: bare:1b
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if len(r.Models()) != 2 {
		t.Fatalf("file should fully replace the built-in list, got %d models", len(r.Models()))
	}
	if r.DisplayName("custom:13b") != "Custom 13B" {
		t.Errorf("display name = %q", r.DisplayName("custom:13b"))
	}

	bare, ok := r.ByID("bare:1b")
	if !ok {
		t.Fatal("bare:1b should be loaded")
	}
	if bare.Name != "bare:1b" || bare.DisplayName != "bare:1b" {
		t.Errorf("missing names should default from the id, got %+v", bare)
	}
	if bare.DefaultParameters.MaxTokens <= 0 {
		t.Error("omitted parameters should be clamped into range")
	}
}

func TestLoadFileRejectsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte("models: []\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("an empty models file should be rejected")
	}
}
