package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WindowSit toggles the feature and names the pose flags that block it.
type WindowSit struct {
	Enabled bool `yaml:"enabled"`
	// BlockFlags are rig pose flags that suppress sitting while any is set.
	BlockFlags []string `yaml:"block_flags,omitempty"`
	// SitVariants is the number of window-sit poses to pick from on snap.
	SitVariants int `yaml:"sit_variants"`
}

// Directory configures window enumeration and classification.
type Directory struct {
	MinWidth  int `yaml:"min_width"`
	MinHeight int `yaml:"min_height"`
	// ActiveHz is the poll rate while dragging or snapped.
	ActiveHz float64 `yaml:"active_hz"`
	// IdleHz is the poll rate otherwise.
	IdleHz float64 `yaml:"idle_hz"`

	LayeredAlphaIgnoreBelow int  `yaml:"layered_alpha_ignore_below"` // 0-255
	IgnoreClickThrough      bool `yaml:"ignore_click_through"`
	IgnoreToolOrNoActivate  bool `yaml:"ignore_tool_or_no_activate"`
	IgnoreColorKey          bool `yaml:"ignore_color_key"`

	TaskbarClasses      []string `yaml:"taskbar_classes"`
	IgnoredClasses      []string `yaml:"ignored_classes"`
	IgnoredClassPrefix  []string `yaml:"ignored_class_prefixes"`
	IgnoredClassContain []string `yaml:"ignored_class_substrings"`
	// OverlayClasses are render-engine window classes treated as fellow
	// overlays when captionless.
	OverlayClasses []string `yaml:"overlay_classes"`
}

// Snap configures the dock decision.
type Snap struct {
	HoldSeconds      float64 `yaml:"hold_seconds"`
	MinDragPixels    int     `yaml:"min_drag_pixels"`
	ProbeRadiusPx    float64 `yaml:"probe_radius_px"`
	ProbeYOffset     float64 `yaml:"probe_y_offset"` // local units, scaled by rig height scale
	UseGuardZone     bool    `yaml:"use_guard_zone"`
	GuardRadiusPx    float64 `yaml:"guard_radius_px"`
	GuardFrames      int     `yaml:"guard_frames"`
	LatchFrames      int     `yaml:"latch_frames"`
	UnsnapBandPx     int     `yaml:"unsnap_band_px"`
	SeatOffsetPx     float64 `yaml:"seat_offset_px"`     // -256..256
	SeatFractionBias float64 `yaml:"seat_fraction_bias"` // -0.05..0.05
	SettleFrames     int     `yaml:"settle_frames"`
}

// Smoothing configures the host window follow motion.
type Smoothing struct {
	Enabled  bool    `yaml:"enabled"`
	Time     float64 `yaml:"time"` // seconds, 0.01-0.5
	MaxSpeed float64 `yaml:"max_speed"`
}

// Occlusion configures occluder quads.
type Occlusion struct {
	TargetDepth   float64 `yaml:"target_depth"`
	OthersDepth   float64 `yaml:"others_depth"`
	MaxOtherQuads int     `yaml:"max_other_quads"`
	PrewarmQuads  int     `yaml:"prewarm_quads"`

	AutoScaleTarget bool    `yaml:"auto_scale_target"`
	TargetZBase     float64 `yaml:"target_z_base"`
	TargetZRefScale float64 `yaml:"target_z_ref_scale"`
	TargetZSens     float64 `yaml:"target_z_sensitivity"`
	TargetZMin      float64 `yaml:"target_z_min"`
	TargetZMax      float64 `yaml:"target_z_max"`
}

// Hotkeys are global key sequences (xgbutil syntax, e.g. "Mod4-Shift-s")
// handled by `perch run` on X11. Empty disables a binding.
type Hotkeys struct {
	Toggle  string `yaml:"toggle"`
	Release string `yaml:"release"`
}

// Config is the effective perch configuration.
type Config struct {
	LogLevel  string    `yaml:"log_level"`
	Hotkeys   Hotkeys   `yaml:"hotkeys"`
	WindowSit WindowSit `yaml:"window_sit"`
	Directory Directory `yaml:"directory"`
	Snap      Snap      `yaml:"snap"`
	Smoothing Smoothing `yaml:"smoothing"`
	Occlusion Occlusion `yaml:"occlusion"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Hotkeys: Hotkeys{
			Toggle:  "Mod4-Shift-s",
			Release: "Mod4-Shift-x",
		},
		WindowSit: WindowSit{
			Enabled:     true,
			SitVariants: 4,
		},
		Directory: Directory{
			MinWidth:                200,
			MinHeight:               60,
			ActiveHz:                15,
			IdleHz:                  8,
			LayeredAlphaIgnoreBelow: 230,
			IgnoreClickThrough:      true,
			IgnoreToolOrNoActivate:  true,
			IgnoreColorKey:          true,
			TaskbarClasses:          []string{"Shell_TrayWnd", "Shell_SecondaryTrayWnd"},
			IgnoredClasses:          []string{"Progman", "WorkerW", "DV2ControlHost", "MsgrIMEWindowClass"},
			IgnoredClassPrefix:      []string{"#"},
			IgnoredClassContain:     []string{"Desktop"},
			OverlayClasses:          []string{"UnityWndClass", "UnityGUIView"},
		},
		Snap: Snap{
			HoldSeconds:   1,
			MinDragPixels: 4,
			ProbeRadiusPx: 24,
			UseGuardZone:  true,
			GuardRadiusPx: 240,
			GuardFrames:   8,
			LatchFrames:   18,
			UnsnapBandPx:  16,
			SettleFrames:  1,
		},
		Smoothing: Smoothing{
			Enabled:  true,
			Time:     0.12,
			MaxSpeed: 6000,
		},
		Occlusion: Occlusion{
			TargetDepth:     0.001,
			OthersDepth:     0.002,
			MaxOtherQuads:   12,
			PrewarmQuads:    6,
			AutoScaleTarget: true,
			TargetZBase:     3.2,
			TargetZRefScale: 1,
			TargetZSens:     3,
			TargetZMin:      0.05,
			TargetZMax:      10,
		},
	}
}

// Save writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if k := strings.TrimSpace(c.Hotkeys.Toggle); k != "" && k == strings.TrimSpace(c.Hotkeys.Release) {
		return &ValidationError{Path: "hotkeys.release", Err: fmt.Errorf("release hotkey must differ from toggle")}
	}
	for _, flag := range c.WindowSit.BlockFlags {
		if strings.TrimSpace(flag) == "" {
			return &ValidationError{Path: "window_sit.block_flags", Err: fmt.Errorf("block_flags contains an empty name")}
		}
	}
	if c.WindowSit.SitVariants < 1 {
		return &ValidationError{Path: "window_sit.sit_variants", Err: fmt.Errorf("sit_variants must be >= 1")}
	}

	d := c.Directory
	if d.MinWidth < 0 || d.MinHeight < 0 {
		return &ValidationError{Path: "directory.min_width", Err: fmt.Errorf("minimum window size must be >= 0")}
	}
	if d.ActiveHz <= 0 {
		return &ValidationError{Path: "directory.active_hz", Err: fmt.Errorf("active_hz must be > 0")}
	}
	if d.IdleHz <= 0 {
		return &ValidationError{Path: "directory.idle_hz", Err: fmt.Errorf("idle_hz must be > 0")}
	}
	if d.LayeredAlphaIgnoreBelow < 0 || d.LayeredAlphaIgnoreBelow > 255 {
		return &ValidationError{Path: "directory.layered_alpha_ignore_below", Err: fmt.Errorf("layered_alpha_ignore_below must be within 0-255")}
	}

	s := c.Snap
	if s.HoldSeconds < 0 {
		return &ValidationError{Path: "snap.hold_seconds", Err: fmt.Errorf("hold_seconds must be >= 0")}
	}
	if s.MinDragPixels < 0 {
		return &ValidationError{Path: "snap.min_drag_pixels", Err: fmt.Errorf("min_drag_pixels must be >= 0")}
	}
	if s.ProbeRadiusPx <= 0 {
		return &ValidationError{Path: "snap.probe_radius_px", Err: fmt.Errorf("probe_radius_px must be > 0")}
	}
	if s.GuardRadiusPx < 0 {
		return &ValidationError{Path: "snap.guard_radius_px", Err: fmt.Errorf("guard_radius_px must be >= 0")}
	}
	if s.GuardFrames < 0 || s.LatchFrames < 0 || s.SettleFrames < 0 {
		return &ValidationError{Path: "snap.guard_frames", Err: fmt.Errorf("frame counts must be >= 0")}
	}
	if s.UnsnapBandPx < 0 {
		return &ValidationError{Path: "snap.unsnap_band_px", Err: fmt.Errorf("unsnap_band_px must be >= 0")}
	}
	if s.SeatOffsetPx < -256 || s.SeatOffsetPx > 256 {
		return &ValidationError{Path: "snap.seat_offset_px", Err: fmt.Errorf("seat_offset_px must be within -256..256")}
	}
	if s.SeatFractionBias < -0.05 || s.SeatFractionBias > 0.05 {
		return &ValidationError{Path: "snap.seat_fraction_bias", Err: fmt.Errorf("seat_fraction_bias must be within -0.05..0.05")}
	}

	if c.Smoothing.Time < 0.01 || c.Smoothing.Time > 0.5 {
		return &ValidationError{Path: "smoothing.time", Err: fmt.Errorf("smoothing time must be within 0.01-0.5")}
	}
	if c.Smoothing.MaxSpeed <= 0 {
		return &ValidationError{Path: "smoothing.max_speed", Err: fmt.Errorf("max_speed must be > 0")}
	}

	o := c.Occlusion
	if o.MaxOtherQuads < 0 {
		return &ValidationError{Path: "occlusion.max_other_quads", Err: fmt.Errorf("max_other_quads must be >= 0")}
	}
	if o.PrewarmQuads < 0 || o.PrewarmQuads > o.MaxOtherQuads {
		return &ValidationError{Path: "occlusion.prewarm_quads", Err: fmt.Errorf("prewarm_quads must be within 0..max_other_quads")}
	}
	if o.TargetZMin > o.TargetZMax {
		return &ValidationError{Path: "occlusion.target_z_min", Err: fmt.Errorf("target_z_min must be <= target_z_max")}
	}
	return nil
}
