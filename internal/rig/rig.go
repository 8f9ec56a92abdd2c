// Package rig describes the character capabilities the docking core reads:
// named landmarks, combined render bounds, the root transform and pose flags.
package rig

import (
	"math"

	"github.com/1broseidon/perch/internal/geom"
)

// Landmark names a skeletal reference point.
type Landmark int

const (
	Hips Landmark = iota
	LeftUpperLeg
	RightUpperLeg
	LeftFoot
	RightFoot
	Head
)

var landmarkNames = map[Landmark]string{
	Hips:          "hips",
	LeftUpperLeg:  "left_upper_leg",
	RightUpperLeg: "right_upper_leg",
	LeftFoot:      "left_foot",
	RightFoot:     "right_foot",
	Head:          "head",
}

func (l Landmark) String() string {
	if s, ok := landmarkNames[l]; ok {
		return s
	}
	return "unknown"
}

// ParseLandmark resolves a landmark by name.
func ParseLandmark(name string) (Landmark, bool) {
	for l, s := range landmarkNames {
		if s == name {
			return l, true
		}
	}
	return 0, false
}

// SeatLandmarks bound the vertical seat search.
var SeatLandmarks = []Landmark{Head, Hips, LeftUpperLeg, RightUpperLeg, LeftFoot, RightFoot}

// FlagID is a resolved pose flag handle.
type FlagID int

// Rig is the character as seen by the docking core.
type Rig interface {
	// Landmark returns the world position of a landmark, if the rig has it.
	Landmark(l Landmark) (geom.Vec3, bool)
	// Bounds returns the combined world-space render bounds.
	Bounds() (geom.Bounds, bool)
	// LocalToWorld is the root transform.
	LocalToWorld() geom.Mat4
	// ResolveFlag maps a flag name to a stable handle once.
	ResolveFlag(name string) (FlagID, bool)
	// Flag reads a resolved flag.
	Flag(id FlagID) bool
}

// Root returns the world position of the rig root.
func Root(r Rig) geom.Vec3 {
	return r.LocalToWorld().MulPoint(geom.Vec3{})
}

// UpDir returns the root's up direction in world space.
func UpDir(r Rig) geom.Vec3 {
	return r.LocalToWorld().MulDir(geom.Up).Normalize()
}

// WorldScale returns the uniform world scale of the rig, 1 at rest size.
func WorldScale(r Rig) float64 {
	s := r.LocalToWorld().AxisScale()
	return math.Max(0.0001, s.Len()/math.Sqrt(3))
}

// HipWorld returns the hips, falling back to the root.
func HipWorld(r Rig) geom.Vec3 {
	if p, ok := r.Landmark(Hips); ok {
		return p
	}
	return Root(r)
}

// CombinedBounds returns the world render bounds, or a half-unit box at the
// root when the rig has nothing to render.
func CombinedBounds(r Rig) geom.Bounds {
	if b, ok := r.Bounds(); ok {
		return b
	}
	return geom.BoundsAt(Root(r), geom.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
}

// LocalBounds returns CombinedBounds expressed in the root's local frame.
func LocalBounds(r Rig) geom.Bounds {
	inv, ok := r.LocalToWorld().Inverse()
	if !ok {
		return CombinedBounds(r)
	}
	return CombinedBounds(r).Transform(inv)
}

// FlagSet caches resolved handles for a list of flag names.
type FlagSet struct {
	ids []FlagID
}

// ResolveFlags resolves names once; names the rig does not know are dropped.
func ResolveFlags(r Rig, names []string) FlagSet {
	var fs FlagSet
	for _, n := range names {
		if id, ok := r.ResolveFlag(n); ok {
			fs.ids = append(fs.ids, id)
		}
	}
	return fs
}

// Any reports whether any flag in the set is raised.
func (fs FlagSet) Any(r Rig) bool {
	for _, id := range fs.ids {
		if r.Flag(id) {
			return true
		}
	}
	return false
}

// Len is the number of resolved flags.
func (fs FlagSet) Len() int { return len(fs.ids) }
