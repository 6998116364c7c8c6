package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
width: 320
height: 200
backend: software
clear:
  step: 0.5
camera:
  distance: 8
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 200 || cfg.Backend != "software" {
		t.Errorf("parsed %dx%d backend %q", cfg.Width, cfg.Height, cfg.Backend)
	}
	if cfg.Clear.Step != 0.5 || cfg.Camera.Distance != 8 {
		t.Errorf("nested values not parsed: %+v %+v", cfg.Clear, cfg.Camera)
	}
	def := DefaultConfig()
	if cfg.Title != def.Title || cfg.BackBuffers != def.BackBuffers || cfg.Camera.FovY != def.Camera.FovY {
		t.Errorf("absent keys lost their defaults: %+v", cfg)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("width: [1, 2")); err == nil {
		t.Error("Parse(malformed) = nil")
	}
	if _, err := Parse([]byte("back_buffers: 1")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Parse(back_buffers: 1) = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"zero height", func(c *Config) { c.Height = 0 }},
		{"one buffer", func(c *Config) { c.BackBuffers = 1 }},
		{"too many buffers", func(c *Config) { c.BackBuffers = 17 }},
		{"sync interval", func(c *Config) { c.SyncInterval = 5 }},
		{"clear start", func(c *Config) { c.Clear.Start = 1.5 }},
		{"negative step", func(c *Config) { c.Clear.Step = -0.1 }},
		{"flat fov", func(c *Config) { c.Camera.FovY = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }},
		{"zero near", func(c *Config) { c.Camera.Near = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ddn.yaml")
	if err := os.WriteFile(path, []byte("title: test\nframes: 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Title != "test" || cfg.Frames != 7 {
		t.Errorf("Load = title %q frames %d", cfg.Title, cfg.Frames)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want ErrNotExist", err)
	}
}
