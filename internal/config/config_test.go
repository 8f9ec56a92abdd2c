package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Snap.GuardFrames != 8 || cfg.Snap.LatchFrames != 18 {
		t.Fatalf("unexpected hysteresis defaults: %+v", cfg.Snap)
	}
	if cfg.Directory.MinWidth != 200 || cfg.Directory.MinHeight != 60 {
		t.Fatalf("unexpected size filter defaults: %+v", cfg.Directory)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no file, got %q", res.File)
	}
	if res.Config.Directory.ActiveHz != 15 {
		t.Fatalf("expected default active_hz, got %v", res.Config.Directory.ActiveHz)
	}
}

func TestLoadFromPath_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"snap:",
		"  hold_seconds: 0.5",
		"smoothing:",
		"  enabled: false",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Snap.HoldSeconds != 0.5 {
		t.Fatalf("expected hold_seconds 0.5, got %v", res.Config.Snap.HoldSeconds)
	}
	if res.Config.Smoothing.Enabled {
		t.Fatalf("expected smoothing disabled")
	}
	// untouched fields keep their defaults
	if res.Config.Snap.MinDragPixels != 4 || res.Config.Smoothing.MaxSpeed != 6000 {
		t.Fatalf("defaults lost: %+v %+v", res.Config.Snap, res.Config.Smoothing)
	}
}

func TestLoadFromPath_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("snap:\n  hold_secs: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadFromPath_ValidationErrorHasSourcePosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "snap:\n  seat_offset_px: 999\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("expected line 2, got %d (%v)", verr.Source.Line, err)
	}
	if !strings.Contains(err.Error(), "snap.seat_offset_px") {
		t.Fatalf("expected path in error, got %q", err.Error())
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero idle hz", func(c *Config) { c.Directory.IdleHz = 0 }, "directory.idle_hz"},
		{"alpha out of range", func(c *Config) { c.Directory.LayeredAlphaIgnoreBelow = 300 }, "directory.layered_alpha_ignore_below"},
		{"smoothing too slow", func(c *Config) { c.Smoothing.Time = 2 }, "smoothing.time"},
		{"prewarm over max", func(c *Config) { c.Occlusion.PrewarmQuads = 20 }, "occlusion.prewarm_quads"},
		{"duplicate hotkeys", func(c *Config) { c.Hotkeys.Release = c.Hotkeys.Toggle }, "hotkeys.release"},
		{"empty block flag", func(c *Config) { c.WindowSit.BlockFlags = []string{" "} }, "window_sit.block_flags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Snap.GuardRadiusPx = 120
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Snap.GuardRadiusPx != 120 {
		t.Fatalf("expected guard radius 120, got %v", res.Config.Snap.GuardRadiusPx)
	}
}
