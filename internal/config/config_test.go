package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Kiosk.SessionTimeout != 5*time.Minute {
		t.Errorf("session timeout = %v, want 5m", cfg.Kiosk.SessionTimeout)
	}
	if cfg.Kiosk.SampleInterval != 10*time.Millisecond {
		t.Errorf("sample interval = %v, want 10ms", cfg.Kiosk.SampleInterval)
	}
	if cfg.Printer.Destination != "Epson_L5290" {
		t.Errorf("destination = %q", cfg.Printer.Destination)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
kiosk:
  session_timeout: 2m
  pulse_value: 5
printer:
  destination: HP_LaserJet
webhooks:
  - name: ops
    url: https://example.com/hook
    secret: s3cret
    events: [job_failed, paper_low]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Kiosk.SessionTimeout != 2*time.Minute {
		t.Errorf("session timeout = %v, want 2m", cfg.Kiosk.SessionTimeout)
	}
	if cfg.Kiosk.PulseValue != 5 {
		t.Errorf("pulse value = %d, want 5", cfg.Kiosk.PulseValue)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.Path != "./data/kiosk.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Name != "ops" || len(cfg.Webhooks[0].Events) != 2 {
		t.Errorf("webhooks = %+v", cfg.Webhooks)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KIOSK_PORT", "7070")
	t.Setenv("KIOSK_DB_PATH", "/var/lib/kiosk.db")
	t.Setenv("KIOSK_PRINTER", "Canon_TS3350")
	t.Setenv("KIOSK_SESSION_TIMEOUT", "90s")

	cfg := LoadFromEnv()
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Path != "/var/lib/kiosk.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Printer.Destination != "Canon_TS3350" {
		t.Errorf("destination = %q", cfg.Printer.Destination)
	}
	if cfg.Kiosk.SessionTimeout != 90*time.Second {
		t.Errorf("session timeout = %v, want 90s", cfg.Kiosk.SessionTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "empty db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "zero session timeout", mutate: func(c *Config) { c.Kiosk.SessionTimeout = 0 }, wantErr: true},
		{name: "zero sample interval", mutate: func(c *Config) { c.Kiosk.SampleInterval = 0 }, wantErr: true},
		{name: "zero pulse value", mutate: func(c *Config) { c.Kiosk.PulseValue = 0 }, wantErr: true},
		{name: "empty destination", mutate: func(c *Config) { c.Printer.Destination = "" }, wantErr: true},
		{name: "webhook without url", mutate: func(c *Config) {
			c.Webhooks = []WebhookConfig{{Name: "ops"}}
		}, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
