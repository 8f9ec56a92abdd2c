// Package sim replays scripted drag scenarios against an in-memory window
// system and records what the dock did on every step.
package sim

import (
	"errors"
	"fmt"
	"os"

	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
	"gopkg.in/yaml.v3"
)

// ErrScenario marks a malformed scenario file.
var ErrScenario = errors.New("invalid scenario")

type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type Host struct {
	Rect geom.Rect `yaml:"rect"`
	// Insets shrink Rect to the client area: left, top, right, bottom.
	Insets [4]int `yaml:"insets,omitempty"`
}

type Camera struct {
	Position geom.Vec3 `yaml:"position"`
	FOV      float64   `yaml:"fov"`
	Width    int       `yaml:"width"`
	Height   int       `yaml:"height"`
}

type Rig struct {
	Height   float64   `yaml:"height"`
	Position geom.Vec3 `yaml:"position"`
	Yaw      float64   `yaml:"yaw,omitempty"`
	Scale    float64   `yaml:"scale,omitempty"`
	Flags    []string  `yaml:"flags,omitempty"`
}

type WindowState struct {
	Iconic     bool `yaml:"iconic,omitempty"`
	Cloaked    bool `yaml:"cloaked,omitempty"`
	Maximized  bool `yaml:"maximized,omitempty"`
	Fullscreen bool `yaml:"fullscreen,omitempty"`
}

type Window struct {
	ID           uint64      `yaml:"id"`
	PID          int         `yaml:"pid,omitempty"`
	Class        string      `yaml:"class"`
	Title        string      `yaml:"title"`
	Rect         geom.Rect   `yaml:"rect"`
	Hidden       bool        `yaml:"hidden,omitempty"`
	Captionless  bool        `yaml:"captionless,omitempty"`
	Owned        bool        `yaml:"owned,omitempty"`
	Dock         bool        `yaml:"dock,omitempty"`
	Layered      bool        `yaml:"layered,omitempty"`
	ClickThrough bool        `yaml:"click_through,omitempty"`
	ToolWindow   bool        `yaml:"tool_window,omitempty"`
	NoActivate   bool        `yaml:"no_activate,omitempty"`
	ColorKey     bool        `yaml:"color_key,omitempty"`
	Alpha        *int        `yaml:"alpha,omitempty"`
	State        WindowState `yaml:"state,omitempty"`
}

// Memory converts the window to its backend form. pid is used when the
// window names none.
func (w Window) Memory(pid int) platform.MemoryWindow {
	if w.PID != 0 {
		pid = w.PID
	}
	style := platform.Style{
		Layered:      w.Layered,
		ClickThrough: w.ClickThrough,
		ToolWindow:   w.ToolWindow,
		NoActivate:   w.NoActivate,
		ColorKey:     w.ColorKey,
		Caption:      !w.Captionless,
		Owned:        w.Owned,
		Dock:         w.Dock,
	}
	if w.Alpha != nil {
		style.HasAlpha = true
		style.Alpha = uint8(max(0, min(255, *w.Alpha)))
	}
	return platform.MemoryWindow{
		Info: platform.WindowInfo{
			ID:      platform.WindowID(w.ID),
			PID:     pid,
			Class:   w.Class,
			Title:   w.Title,
			Bounds:  w.Rect,
			Visible: !w.Hidden,
			Style:   style,
		},
		State: platform.WindowState(w.State),
	}
}

type Move struct {
	ID   uint64    `yaml:"id"`
	Rect geom.Rect `yaml:"rect"`
}

type SetState struct {
	ID          uint64 `yaml:"id"`
	WindowState `yaml:",inline"`
}

type Raise struct {
	ID  uint64 `yaml:"id"`
	Pos int    `yaml:"pos"`
}

// Step is applied once, then run for Frames frames.
type Step struct {
	Label    string  `yaml:"label,omitempty"`
	Frames   int     `yaml:"frames,omitempty"`
	Dt       float64 `yaml:"dt,omitempty"`
	Dragging bool    `yaml:"dragging,omitempty"`
	Cursor   *Point  `yaml:"cursor,omitempty"`

	Add       []Window        `yaml:"add,omitempty"`
	Remove    []uint64        `yaml:"remove,omitempty"`
	Move      []Move          `yaml:"move,omitempty"`
	State     []SetState      `yaml:"state,omitempty"`
	Raise     []Raise         `yaml:"raise,omitempty"`
	Flags     map[string]bool `yaml:"flags,omitempty"`
	Enabled   *bool           `yaml:"enabled,omitempty"`
	BigScreen bool            `yaml:"big_screen,omitempty"`
	Sitting   bool            `yaml:"sitting,omitempty"`
	ForceExit bool            `yaml:"force_exit,omitempty"`
}

// Scenario is a scripted session. Windows are listed top-most first.
type Scenario struct {
	Name     string      `yaml:"name"`
	PID      int         `yaml:"pid,omitempty"`
	Seed     uint64      `yaml:"seed,omitempty"`
	Monitors []geom.Rect `yaml:"monitors,omitempty"`
	Host     Host        `yaml:"host"`
	Camera   Camera      `yaml:"camera"`
	Rig      Rig         `yaml:"rig"`
	Windows  []Window    `yaml:"windows"`
	Steps    []Step      `yaml:"steps"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario and fills defaults.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) applyDefaults() {
	if sc.PID == 0 {
		sc.PID = 1000
	}
	if sc.Camera.FOV == 0 {
		sc.Camera.FOV = 60
	}
	if sc.Camera.Width == 0 {
		sc.Camera.Width = sc.Host.Rect.Width - sc.Host.Insets[0] - sc.Host.Insets[2]
	}
	if sc.Camera.Height == 0 {
		sc.Camera.Height = sc.Host.Rect.Height - sc.Host.Insets[1] - sc.Host.Insets[3]
	}
	if sc.Camera.Position == (geom.Vec3{}) {
		sc.Camera.Position = geom.Vec3{Y: 1, Z: -5}
	}
	if sc.Rig.Height == 0 {
		sc.Rig.Height = 1.6
	}
	if sc.Rig.Scale == 0 {
		sc.Rig.Scale = 1
	}
	for i := range sc.Steps {
		if sc.Steps[i].Frames <= 0 {
			sc.Steps[i].Frames = 1
		}
		if sc.Steps[i].Dt <= 0 {
			sc.Steps[i].Dt = 1.0 / 60
		}
	}
}

// Validate checks the scenario for structural problems.
func (sc *Scenario) Validate() error {
	if sc.Host.Rect.Empty() {
		return fmt.Errorf("%w: host.rect must have a size", ErrScenario)
	}
	if sc.Camera.Width <= 0 || sc.Camera.Height <= 0 {
		return fmt.Errorf("%w: camera size must be positive", ErrScenario)
	}
	seen := map[uint64]bool{hostID: true}
	check := func(w Window, where string) error {
		if w.ID == 0 {
			return fmt.Errorf("%w: %s: window id must be non-zero", ErrScenario, where)
		}
		if seen[w.ID] {
			return fmt.Errorf("%w: %s: duplicate window id %d", ErrScenario, where, w.ID)
		}
		seen[w.ID] = true
		return nil
	}
	for i, w := range sc.Windows {
		if err := check(w, fmt.Sprintf("windows[%d]", i)); err != nil {
			return err
		}
	}
	for i, st := range sc.Steps {
		for j, w := range st.Add {
			if err := check(w, fmt.Sprintf("steps[%d].add[%d]", i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}
