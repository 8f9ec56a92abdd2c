package rig

import "github.com/1broseidon/perch/internal/geom"

// StaticRig is a settable rig. Landmarks and bounds are given in local space
// and follow the root transform.
type StaticRig struct {
	Root        geom.Mat4
	Landmarks   map[Landmark]geom.Vec3
	LocalBounds *geom.Bounds

	flagNames []string
	flags     []bool
}

var _ Rig = (*StaticRig)(nil)

// NewStaticRig returns a rig at the origin with identity transform.
func NewStaticRig() *StaticRig {
	return &StaticRig{Root: geom.Identity(), Landmarks: map[Landmark]geom.Vec3{}}
}

// Humanoid returns a rig shaped like a standing figure of the given height,
// feet at the local origin.
func Humanoid(height float64) *StaticRig {
	r := NewStaticRig()
	r.Landmarks[Hips] = geom.Vec3{Y: 0.53 * height}
	r.Landmarks[LeftUpperLeg] = geom.Vec3{X: -0.06 * height, Y: 0.5 * height}
	r.Landmarks[RightUpperLeg] = geom.Vec3{X: 0.06 * height, Y: 0.5 * height}
	r.Landmarks[LeftFoot] = geom.Vec3{X: -0.07 * height, Y: 0.04 * height}
	r.Landmarks[RightFoot] = geom.Vec3{X: 0.07 * height, Y: 0.04 * height}
	r.Landmarks[Head] = geom.Vec3{Y: 0.9 * height}
	b := geom.Bounds{
		Min: geom.Vec3{X: -0.25 * height, Z: -0.1 * height},
		Max: geom.Vec3{X: 0.25 * height, Y: height, Z: 0.1 * height},
	}
	r.LocalBounds = &b
	return r
}

func (r *StaticRig) Landmark(l Landmark) (geom.Vec3, bool) {
	p, ok := r.Landmarks[l]
	if !ok {
		return geom.Vec3{}, false
	}
	return r.Root.MulPoint(p), true
}

func (r *StaticRig) Bounds() (geom.Bounds, bool) {
	if r.LocalBounds == nil {
		return geom.Bounds{}, false
	}
	return r.LocalBounds.Transform(r.Root), true
}

func (r *StaticRig) LocalToWorld() geom.Mat4 { return r.Root }

func (r *StaticRig) ResolveFlag(name string) (FlagID, bool) {
	for i, n := range r.flagNames {
		if n == name {
			return FlagID(i), true
		}
	}
	return 0, false
}

func (r *StaticRig) Flag(id FlagID) bool {
	if int(id) < 0 || int(id) >= len(r.flags) {
		return false
	}
	return r.flags[id]
}

// DeclareFlag adds a flag the rig exposes.
func (r *StaticRig) DeclareFlag(name string) FlagID {
	if id, ok := r.ResolveFlag(name); ok {
		return id
	}
	r.flagNames = append(r.flagNames, name)
	r.flags = append(r.flags, false)
	return FlagID(len(r.flags) - 1)
}

// SetFlag raises or lowers a declared flag.
func (r *StaticRig) SetFlag(name string, on bool) {
	if id, ok := r.ResolveFlag(name); ok {
		r.flags[id] = on
	}
}
