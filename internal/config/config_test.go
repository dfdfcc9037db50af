package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbols != "AAPL,MSFT,UBER,GOOG" {
		t.Errorf("Symbols = %q", cfg.Symbols)
	}
	if cfg.Window != 30 || cfg.Concurrency != 4 {
		t.Errorf("Window/Concurrency = %d/%d, want 30/4", cfg.Window, cfg.Concurrency)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %q, want text", cfg.Output.Format)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
symbols: "IBM,TSLA"
window: 7
output:
  format: csv
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUOTETRACK_SYMBOLS", "NVDA")
	t.Setenv("QUOTETRACK_CONCURRENCY", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbols != "NVDA" {
		t.Errorf("env override lost: Symbols = %q", cfg.Symbols)
	}
	if cfg.Window != 7 {
		t.Errorf("Window = %d, want 7", cfg.Window)
	}
	if cfg.Concurrency != 9 {
		t.Errorf("Concurrency = %d, want 9", cfg.Concurrency)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Output.Format = %q, want csv", cfg.Output.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"empty symbols", func(c *Config) { c.Symbols = "" }, true},
		{"zero window", func(c *Config) { c.Window = 0 }, true},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }, true},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"webhook without url", func(c *Config) { c.Output.Format = "webhook" }, true},
		{"webhook with url", func(c *Config) {
			c.Output.Format = "webhook"
			c.Output.WebhookURL = "https://example.com/hook"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
