package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Port != 8080 || cfg.Room.AdminName != "AdminGPU" || cfg.Store.Driver != "file" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.RateLimit.Interval != 10*time.Second || cfg.PingPeriod != 54*time.Second {
		t.Errorf("durations = %v, %v", cfg.RateLimit.Interval, cfg.PingPeriod)
	}
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := `
port: 9000
room:
  admin_name: Host
  fresh: true
store:
  driver: sqlite
  dsn: "file:room.db"
  codec: cbor
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WATCHROOM_PORT", "9100")
	t.Setenv("WATCHROOM_AUDIT_PATH", "/tmp/audit.txt")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("port = %d, env should win", cfg.Port)
	}
	if !cfg.Room.Fresh || cfg.Room.AdminName != "Host" {
		t.Errorf("room = %+v", cfg.Room)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Codec != "cbor" || cfg.Store.DSN != "file:room.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Audit.Path != "/tmp/audit.txt" {
		t.Errorf("audit = %+v", cfg.Audit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"sqlite without dsn", func(c *Config) { c.Store.Driver = "sqlite"; c.Store.DSN = "" }},
		{"file without path", func(c *Config) { c.Store.Path = "" }},
		{"bad port", func(c *Config) { c.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{Port: 8080, Store: StoreConfig{Driver: "file", Path: "x"}}
			tt.mod(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
