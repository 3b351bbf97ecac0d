package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_YAMLOverlayAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syllabus.yaml")
	yml := `
database:
  driver: sqlite
  dsn: file:test.db
llm:
  provider: openai
  model: gpt-4o-mini
  timeout: 45s
calendar:
  workers: 8
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("SYLLABUS_CONFIG", path)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CALENDAR_WORKERS", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "file:test.db" {
		t.Fatalf("database section not loaded from yaml: %+v", cfg.Database)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Fatalf("llm timeout = %v, want 45s", cfg.LLM.Timeout)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("api key from OPENAI_API_KEY not applied")
	}
	if cfg.Calendar.Workers != 2 {
		t.Fatalf("env override lost: workers = %d", cfg.Calendar.Workers)
	}
	// untouched by yaml or env
	if cfg.Calendar.CalendarID != "primary" || cfg.Calendar.ReminderMethod != "email" {
		t.Fatalf("defaults lost: %+v", cfg.Calendar)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("database: [unclosed"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("SYLLABUS_CONFIG", path)
	if _, err := LoadConfig(); err == nil || AppCode(err) != "CONFIG_ERROR" {
		t.Fatalf("expected CONFIG_ERROR, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, false},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }, false},
		{"bad provider", func(c *Config) { c.LLM.Provider = "gemini" }, false},
		{"bad color policy", func(c *Config) { c.Normalize.ColorPolicy = "rainbow" }, false},
		{"zero workers", func(c *Config) { c.Calendar.Workers = 0 }, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			c.Database.DSN = "postgres://localhost/db"
			c.LLM.APIKey = "key"
			tt.mutate(c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatalf("expected error")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected invalid input class, got %v", err)
				}
			}
		})
	}
}
