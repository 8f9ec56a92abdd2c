package snap

import (
	"time"

	"github.com/1broseidon/perch/internal/follow"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
)

// Phase is the dock state of the character.
type Phase int

const (
	// PhaseIdle means no drag is in progress and nothing is bound.
	PhaseIdle Phase = iota
	// PhaseArmed means the pointer is down but the hold or distance gate
	// has not passed yet.
	PhaseArmed
	// PhaseSnapped means the host follows a bound window.
	PhaseSnapped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseSnapped:
		return "snapped"
	default:
		return "unknown"
	}
}

// Policy carries the external signals that override docking.
type Policy struct {
	Enabled bool
	// Blocked is set while a blocking pose flag is raised.
	Blocked bool
	// BigScreen is set while an owning full-screen mode is engaged.
	BigScreen bool
	// Sitting is set while a non-window sit pose is playing; it suppresses
	// new snaps but does not release an existing one.
	Sitting bool
}

// Input is one frame of drag and camera state.
type Input struct {
	Now              time.Time
	Dragging         bool
	CursorX, CursorY int
	Transform        geom.Transform
	Policy           Policy
}

// Pin asks the position controller to place the seat on the target's edge.
type Pin struct {
	Goal follow.Goal
	// OneShot applies the whole correction this frame.
	OneShot bool
	// Restart begins a fresh smoothed approach.
	Restart bool
}

// Result reports what one update did.
type Result struct {
	Snapped  bool
	Released bool
	Reason   string
	Pin      *Pin
	// Target is the bound window's live rectangle read this update.
	Target   geom.Rect
	TargetID platform.WindowID
}

// Occlusion answers whether a point on a window is covered by a higher one.
type Occlusion interface {
	OccludedAt(target platform.WindowID, x, y int) bool
}

// guardZone blocks re-snapping near the point of a forced release.
type guardZone struct {
	active bool
	x, y   float64
	radius float64
}

func (g guardZone) contains(x, y float64) bool {
	dx, dy := x-g.x, y-g.y
	return dx*dx+dy*dy < g.radius*g.radius
}
