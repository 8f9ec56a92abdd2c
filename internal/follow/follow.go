// Package follow moves the host window so the character's seat tracks a
// point on the target window's top edge.
package follow

import (
	"math"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/geom"
)

// SettlePx is the distance at which motion snaps to the target.
const SettlePx = 1

// SmoothDamp moves current toward target with a critically damped spring,
// limited to maxSpeed. vel carries the velocity between calls.
func SmoothDamp(current, target float64, vel *float64, smoothTime, maxSpeed, dt float64) float64 {
	if dt <= 0 {
		return current
	}
	smoothTime = math.Max(0.0001, smoothTime)
	omega := 2 / smoothTime
	x := omega * dt
	exp := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	change := current - target
	orig := target
	maxChange := maxSpeed * smoothTime
	change = geom.Clamp(change, -maxChange, maxChange)
	target = current - change

	temp := (*vel + omega*change) * dt
	*vel = (*vel - omega*temp) * exp
	out := target + (change+temp)*exp

	// no overshoot
	if (orig-current > 0) == (out > orig) {
		out = orig
		*vel = (out - orig) / dt
	}
	return out
}

// Goal is where the seat should be, in desktop pixels.
type Goal struct {
	Target   geom.Rect
	Fraction float64
	OffsetY  float64
}

// Point returns the desired seat position on the target's top edge.
func (g Goal) Point() (x, y float64) {
	w := float64(max(1, g.Target.Width))
	return float64(g.Target.Left()) + geom.Clamp(g.Fraction, 0, 1)*w, float64(g.Target.Top()) + g.OffsetY
}

// Follower keeps smoothing state between frames.
type Follower struct {
	cfg config.Smoothing

	active     bool
	velX, velY float64
	last       geom.Rect
	haveLast   bool
}

func New(cfg config.Smoothing) *Follower {
	return &Follower{cfg: cfg}
}

// Active reports whether a smoothed approach is in progress.
func (f *Follower) Active() bool { return f.active }

// Reset drops all motion state.
func (f *Follower) Reset() {
	f.active = false
	f.velX, f.velY = 0, 0
	f.haveLast = false
}

// Restart begins a fresh smoothed approach, when smoothing is enabled.
func (f *Follower) Restart() {
	f.Reset()
	f.active = f.cfg.Enabled
}

// Step computes the next host window position. host is the current host
// window rectangle, seatX and seatY the seat's current desktop position.
// oneShot applies the whole correction at once. It returns false when the
// host should not move.
func (f *Follower) Step(host geom.Rect, seatX, seatY float64, g Goal, dragging, oneShot bool, dt float64) (x, y int, move bool) {
	// the target jumped: abandon the approach instead of chasing it
	if f.haveLast && f.last != g.Target {
		f.active = false
		f.velX, f.velY = 0, 0
	}
	f.last, f.haveLast = g.Target, true

	wantX, wantY := g.Point()
	tx := float64(host.X) + (wantX - seatX)
	ty := float64(host.Y) + (wantY - seatY)
	cx, cy := float64(host.X), float64(host.Y)

	nx, ny := tx, ty
	if f.active && f.cfg.Enabled && !oneShot {
		st := geom.Clamp(f.cfg.Time, 0.01, 0.5)
		nx = SmoothDamp(cx, tx, &f.velX, st, f.cfg.MaxSpeed, dt)
		ny = SmoothDamp(cy, ty, &f.velY, st, f.cfg.MaxSpeed, dt)

		if dragging {
			// keep the seat from sinking below the edge between frames
			after := seatY + (ny - cy) - wantY
			if after > 0 {
				step := f.cfg.MaxSpeed * max(dt, 0)
				need := math.Max(0, after-SettlePx)
				ny -= math.Min(step, need)
			}
		}

		if math.Abs(tx-nx) <= SettlePx && math.Abs(ty-ny) <= SettlePx {
			nx, ny = tx, ty
			f.active = false
			f.velX, f.velY = 0, 0
		}
	}

	x, y = geom.RoundPx(nx), geom.RoundPx(ny)
	if x == host.X && y == host.Y {
		return x, y, false
	}
	return x, y, true
}
