package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/pixelfind/internal/pixel"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pixelfind.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
	if cfg.MaskValue() != pixel.FullMask {
		t.Errorf("Default mask = %08x, want full mask", cfg.MaskValue())
	}
	if cfg.Server.Addr != ":8080" || cfg.Match.Limit != 100 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_level: DEBUG
store_dir: /tmp/needles
server:
  addr: ":9000"
  cache_size: 8
match:
  mask: "0xffffff00"
  limit: 5
approx:
  iters: 50
  seed: 7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.StoreDir != "/tmp/needles" || cfg.Server.Addr != ":9000" || cfg.Server.CacheSize != 8 {
		t.Errorf("Unexpected values: %+v", cfg)
	}
	if cfg.MaskValue() != pixel.MaskFromRGBA(0xffffff00) || cfg.Match.Limit != 5 {
		t.Errorf("Match = %+v, mask %08x", cfg.Match, cfg.MaskValue())
	}
	// Unset keys keep their defaults.
	if cfg.Approx.Iters != 50 || cfg.Approx.Seed != 7 || cfg.Approx.Pop != 30 || cfg.Approx.GridLimit != 4096 {
		t.Errorf("Approx = %+v", cfg.Approx)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("PIXELFIND_SERVER_ADDR", ":7777")
	t.Setenv("PIXELFIND_MATCH_LIMIT", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("Addr = %q, want env override :7777", cfg.Server.Addr)
	}
	if cfg.Match.Limit != 3 {
		t.Errorf("Limit = %d, want 3", cfg.Match.Limit)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for a missing explicit config file")
	}
}

func TestLoad_NoDefaultFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load without a config file failed: %v", err)
	}
	if cfg.StoreDir != "./data" {
		t.Errorf("StoreDir = %q, want default", cfg.StoreDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:    "bad mask",
			modify:  func(c *Config) { c.Match.Mask = "0xfff" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name:   "negative limit clamps to unlimited",
			modify: func(c *Config) { c.Match.Limit = -4 },
			check: func(t *testing.T, c *Config) {
				if c.Match.Limit != 0 {
					t.Errorf("Limit = %d, want 0", c.Match.Limit)
				}
			},
		},
		{
			name: "zero values fall back to defaults",
			modify: func(c *Config) {
				c.Server.CacheSize = 0
				c.Approx.Iters = 0
				c.Approx.Pop = -1
				c.StoreDir = ""
			},
			check: func(t *testing.T, c *Config) {
				if c.Server.CacheSize != 64 || c.Approx.Iters != 200 || c.Approx.Pop != 30 || c.StoreDir != "./data" {
					t.Errorf("Not normalized: %+v", c)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
