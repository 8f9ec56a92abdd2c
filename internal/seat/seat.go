// Package seat finds the point of the character that rests on a window's top
// edge and keeps it stable as the character's bounds change.
package seat

import (
	"errors"
	"math"

	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/rig"
)

// ErrCalibrationUnavailable is returned when the search interval cannot be
// projected; the caller keeps its previous anchor.
var ErrCalibrationUnavailable = errors.New("seat calibration unavailable")

const (
	// Iterations of the vertical bisection.
	Iterations = 20

	minFraction = -0.5
	maxFraction = 1.5
)

// Anchor is a calibrated seat point in the rig's local frame. Fraction is
// the seat height normalized against the local bounds at calibration time.
type Anchor struct {
	Local      geom.Vec3
	Fraction   float64
	BoundsMin  geom.Vec3
	BoundsSize geom.Vec3
	// Error is the residual pixel distance to the target line.
	Error float64
}

// Guess returns a world-space point near where the character sits. With a
// skeleton it is just below the thighs; otherwise it is taken from the
// lower part of the render bounds.
func Guess(r rig.Rig) geom.Vec3 {
	pelvis := rig.HipWorld(r)
	l, okL := r.Landmark(rig.LeftUpperLeg)
	rr, okR := r.Landmark(rig.RightUpperLeg)
	if !okL && !okR {
		if _, ok := r.Landmark(rig.Hips); !ok {
			b := rig.CombinedBounds(r)
			c := b.Center()
			return geom.Vec3{X: c.X, Y: geom.Lerp(b.Min.Y, c.Y, 0.2), Z: c.Z}
		}
	}

	thighs := pelvis
	switch {
	case okL && okR:
		thighs = l.Add(rr).Scale(0.5)
	case okL:
		thighs = l
	case okR:
		thighs = rr
	}

	headY := pelvis.Y + 0.5
	if h, ok := r.Landmark(rig.Head); ok {
		headY = h.Y
	}
	footY := pelvis.Y
	lf, okLF := r.Landmark(rig.LeftFoot)
	rf, okRF := r.Landmark(rig.RightFoot)
	switch {
	case okLF && okRF:
		footY = math.Min(lf.Y, rf.Y)
	case okLF:
		footY = lf.Y
	case okRF:
		footY = rf.Y
	}

	h := math.Max(0.1, headY-footY)
	down := geom.Clamp(h*0.12, 0.01, h*0.5)
	return thighs.Sub(geom.Vec3{Y: down})
}

// searchRange returns the local-Y interval searched by the bisection.
func searchRange(r rig.Rig, toLocal geom.Mat4) (lo, hi float64) {
	root := rig.Root(r)
	found := false
	for _, l := range rig.SeatLandmarks {
		p, ok := r.Landmark(l)
		if !ok {
			continue
		}
		y := toLocal.MulPoint(geom.Vec3{X: root.X, Y: p.Y, Z: root.Z}).Y
		if !found {
			lo, hi, found = y, y, true
			continue
		}
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if found {
		pad := math.Max(0.05, 0.2*(hi-lo))
		return lo - pad, hi + pad
	}
	lb := rig.LocalBounds(r)
	h := math.Max(0.1, lb.Size().Y)
	return lb.Min.Y - 0.5*h - 0.25, lb.Max.Y + 0.5*h + 0.25
}

// Calibrate finds the local seat height whose projection lands on targetY,
// a desktop-pixel row. The search runs a fixed number of bisection steps and
// keeps the best candidate seen.
func Calibrate(r rig.Rig, t geom.Transform, targetY float64) (Anchor, error) {
	toWorld := r.LocalToWorld()
	toLocal, ok := toWorld.Inverse()
	if !ok {
		return Anchor{}, ErrCalibrationUnavailable
	}
	guess := toLocal.MulPoint(Guess(r))
	lo, hi := searchRange(r, toLocal)

	project := func(y float64) (float64, bool) {
		_, py, err := t.WorldToDesktop(toWorld.MulPoint(geom.Vec3{X: guess.X, Y: y, Z: guess.Z}))
		return py, err == nil
	}

	// Higher local Y normally maps to a smaller desktop row; check with the
	// unclamped projection so a rolled or flipped camera still converges.
	rising := true
	if t.Camera != nil {
		a := t.Camera.WorldToScreen(toWorld.MulPoint(geom.Vec3{X: guess.X, Y: lo, Z: guess.Z}))
		b := t.Camera.WorldToScreen(toWorld.MulPoint(geom.Vec3{X: guess.X, Y: hi, Z: guess.Z}))
		if b.Y < a.Y {
			rising = false
		}
	}

	bestY, bestErr := guess.Y, math.Inf(1)
	for range Iterations {
		mid := (lo + hi) * 0.5
		py, ok := project(mid)
		if !ok {
			return Anchor{}, ErrCalibrationUnavailable
		}
		diff := py - targetY
		if e := math.Abs(diff); e < bestErr {
			bestErr, bestY = e, mid
		}
		// diff > 0: the point sits below the target row.
		if (diff > 0) == rising {
			lo = mid
		} else {
			hi = mid
		}
	}

	lb := rig.LocalBounds(r)
	size := lb.Size()
	frac := 0.0
	if size.Y > 1e-6 {
		frac = geom.Clamp((bestY-lb.Min.Y)/size.Y, minFraction, maxFraction)
	}
	return Anchor{
		Local:      geom.Vec3{X: guess.X, Y: bestY, Z: guess.Z},
		Fraction:   frac,
		BoundsMin:  lb.Min,
		BoundsSize: size,
		Error:      bestErr,
	}, nil
}

// World returns the anchor's current world position. The height is
// recomputed from Fraction against the rig's current local bounds, shifted
// by bias (a fraction of the height).
func (a Anchor) World(r rig.Rig, bias float64) geom.Vec3 {
	bmin, size := a.BoundsMin, a.BoundsSize
	if b, ok := r.Bounds(); ok {
		if inv, ok := r.LocalToWorld().Inverse(); ok {
			lb := b.Transform(inv)
			bmin, size = lb.Min, lb.Size()
		}
	}
	frac := geom.Clamp(a.Fraction+bias, minFraction, maxFraction)
	local := geom.Vec3{X: a.Local.X, Y: bmin.Y + frac*size.Y, Z: a.Local.Z}
	return r.LocalToWorld().MulPoint(local)
}
