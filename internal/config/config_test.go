package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Mesh.USteps != 50 || cfg.Mesh.VSteps != 50 {
		t.Errorf("expected 50x50 steps, got %dx%d", cfg.Mesh.USteps, cfg.Mesh.VSteps)
	}
	if cfg.Mesh.ScaleFactor != 0.04 {
		t.Errorf("expected scale factor 0.04, got %v", cfg.Mesh.ScaleFactor)
	}
	if cfg.Mesh.Pivot != (Pivot{U: 0.5, V: 0.5}) {
		t.Errorf("expected pivot (0.5, 0.5), got %v", cfg.Mesh.Pivot)
	}
	if cfg.Mesh.Debounce != 100*time.Millisecond {
		t.Errorf("expected debounce 100ms, got %v", cfg.Mesh.Debounce)
	}
	if cfg.Render.Color != "255,255,0" {
		t.Errorf("expected yellow base color, got %s", cfg.Render.Color)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hornview.yaml")

	yamlContent := `
mesh:
  u_steps: 80
  v_steps: 24
  tex_scale: 2.5
  pivot:
    u: 0.25
    v: 0.75
  tangents: last-face
  debounce: 250ms

render:
  mode: wireframe
  fps: 60

textures:
  normal: "https://example.com/normal.png"

logging:
  level: "debug"
  log_file: "hornview.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Mesh.USteps != 80 || cfg.Mesh.VSteps != 24 {
		t.Errorf("expected 80x24, got %dx%d", cfg.Mesh.USteps, cfg.Mesh.VSteps)
	}
	if cfg.Mesh.Pivot != (Pivot{U: 0.25, V: 0.75}) {
		t.Errorf("expected pivot (0.25, 0.75), got %v", cfg.Mesh.Pivot)
	}
	if cfg.Mesh.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Mesh.Debounce)
	}
	if cfg.Render.Mode != "wireframe" || cfg.Render.FPS != 60 {
		t.Errorf("render section not loaded: %+v", cfg.Render)
	}
	// Unset keys keep their defaults.
	if cfg.Mesh.ScaleFactor != 0.04 {
		t.Errorf("expected default scale factor, got %v", cfg.Mesh.ScaleFactor)
	}
	if cfg.Textures.Normal != "https://example.com/normal.png" {
		t.Errorf("expected normal map URL, got %q", cfg.Textures.Normal)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
mesh:
  u_steps: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/hornview.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hornview.yaml")
	if err := os.WriteFile(configPath, []byte("mesh:\n  u_steps: 70\n  v_steps: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-v", "20", "-debug"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mesh.USteps != 70 {
		t.Errorf("file should override default u_steps, got %d", cfg.Mesh.USteps)
	}
	if cfg.Mesh.VSteps != 20 {
		t.Errorf("flag should override file v_steps, got %d", cfg.Mesh.VSteps)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Mesh.TexScale != 1 {
		t.Errorf("unset flag should not override, got tex_scale %v", cfg.Mesh.TexScale)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", "/nonexistent/hornview.yaml"}); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(flags); err == nil {
		t.Error("expected error for missing explicit config")
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	flags = RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", "", "-u", "0"}); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(flags); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load = %v, want ErrInvalid", err)
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Mesh.USteps = 0
	cfg.Mesh.VSteps = 101
	cfg.Mesh.ScaleFactor = -1
	cfg.Mesh.Pivot.U = 2
	cfg.Render.Mode = "flat"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Validate = %v, want ErrInvalid", err)
	}
	errs := multierr.Errors(err)
	if len(errs) != 6 {
		t.Errorf("got %d problems, want 6: %v", len(errs), err)
	}
	for _, want := range []string{"u_steps", "v_steps", "scale_factor", "pivot", "render.mode", "logging.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"min steps", func(c *Config) { c.Mesh.USteps, c.Mesh.VSteps = 1, 1 }, false},
		{"max steps", func(c *Config) { c.Mesh.USteps, c.Mesh.VSteps = MaxSteps, MaxSteps }, false},
		{"pivot corner", func(c *Config) { c.Mesh.Pivot = Pivot{U: 0, V: 1} }, false},
		{"zero tex scale", func(c *Config) { c.Mesh.TexScale = 0 }, true},
		{"unknown surface", func(c *Config) { c.Mesh.Surface = "torus" }, true},
		{"unknown tangents", func(c *Config) { c.Mesh.Tangents = "average" }, true},
		{"bad color", func(c *Config) { c.Render.Color = "gold" }, true},
		{"zero fps", func(c *Config) { c.Render.FPS = 0 }, true},
		{"negative debounce", func(c *Config) { c.Mesh.Debounce = -time.Second }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hornview.yaml")

	cfg := Default()
	cfg.Mesh.USteps = 33
	cfg.Textures.Diffuse = "diffuse.png"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Mesh.USteps != 33 || loaded.Textures.Diffuse != "diffuse.png" {
		t.Errorf("saved values not reloaded: %+v", loaded.Mesh)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if got := findConfigFile(); got != "" {
		t.Errorf("expected no config file, got %s", got)
	}

	if err := os.WriteFile(FileName, []byte("mesh:\n  u_steps: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != filepath.Join(".", FileName) {
		t.Errorf("expected ./%s, got %s", FileName, got)
	}
}
