package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("default port = %q", cfg.Port)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("default backend url = %q", cfg.OllamaURL)
	}
	if cfg.ProbeInterval != 30*time.Second {
		t.Errorf("default probe interval = %v", cfg.ProbeInterval)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("OLLAMA_URL", "http://ollama.internal:11434")
	t.Setenv("PROBE_INTERVAL", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.OllamaURL != "http://ollama.internal:11434" {
		t.Errorf("backend url = %q", cfg.OllamaURL)
	}
	if cfg.ProbeInterval != 10*time.Second {
		t.Errorf("probe interval = %v", cfg.ProbeInterval)
	}
}

func TestProbeIntervalAcceptsPlainSeconds(t *testing.T) {
	t.Setenv("PROBE_INTERVAL", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProbeInterval != 45*time.Second {
		t.Errorf("probe interval = %v", cfg.ProbeInterval)
	}
}

func TestProbeIntervalRejectsGarbage(t *testing.T) {
	t.Setenv("PROBE_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProbeInterval != 30*time.Second {
		t.Errorf("garbage should fall back to the default, got %v", cfg.ProbeInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"empty backend url", func(c *Config) { c.OllamaURL = "" }, true},
		{"non-http backend url", func(c *Config) { c.OllamaURL = "ollama.internal:11434" }, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"zero probe interval", func(c *Config) { c.ProbeInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:          "8090",
				OllamaURL:     "http://localhost:11434",
				DBPath:        "./data/test.db",
				ProbeInterval: 30 * time.Second,
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:5173", true},
		{"https://promptlab.example.com", false},
	}
	for _, tt := range tests {
		c := &Config{AllowedOrigin: tt.origin}
		if got := c.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
