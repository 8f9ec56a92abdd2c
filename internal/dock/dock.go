// Package dock runs the per-frame docking loop: it polls the window
// directory, drives the snap machine, moves the host window and places the
// occlusion quads, all from one snapshot per frame.
package dock

import (
	"log/slog"
	"math"
	"time"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/directory"
	"github.com/1broseidon/perch/internal/follow"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/occlusion"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/rig"
	"github.com/1broseidon/perch/internal/snap"
)

// Frame is the per-frame input from the drag handler and the owner.
type Frame struct {
	Now              time.Time
	Dt               float64 // seconds since the previous frame
	Dragging         bool
	CursorX, CursorY int
	// BigScreen is set while an owning full-screen mode is engaged.
	BigScreen bool
	// Sitting is set while a non-window sit pose plays.
	Sitting bool
}

// Status is the observable dock state for animation and audio layers.
type Status struct {
	Phase     snap.Phase
	WindowSit bool
	Taskbar   bool
	Variant   int
	Target    platform.WindowID
}

// Options configure a Dock.
type Options struct {
	Config  *config.Config
	Backend platform.Backend
	Rig     rig.Rig
	Camera  geom.Camera
	Logger  *slog.Logger
	// Seed fixes sit pose selection; zero is random.
	Seed uint64
	// OnChange is called whenever Status changes.
	OnChange func(Status)
}

// Dock owns every docking component for one host window.
type Dock struct {
	cfg      *config.Config
	backend  platform.Backend
	rig      rig.Rig
	camera   geom.Camera
	logger   *slog.Logger
	onChange func(Status)

	dir      *directory.Directory
	machine  *snap.Machine
	follower *follow.Follower
	quads    *occlusion.Synthesizer
	blockers rig.FlagSet

	enabled   bool
	occluders []directory.Record
	lastScale float64
	status    Status
}

func New(opts Options) *Dock {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dir := directory.New(opts.Backend, cfg.Directory, logger)
	d := &Dock{
		cfg:      cfg,
		backend:  opts.Backend,
		rig:      opts.Rig,
		camera:   opts.Camera,
		logger:   logger,
		onChange: opts.OnChange,
		dir:      dir,
		follower: follow.New(cfg.Smoothing),
		quads:    occlusion.New(cfg.Occlusion, logger),
		blockers: rig.ResolveFlags(opts.Rig, cfg.WindowSit.BlockFlags),
		enabled:  cfg.WindowSit.Enabled,
	}
	d.machine = snap.New(snap.Options{
		Snap:        cfg.Snap,
		SitVariants: cfg.WindowSit.SitVariants,
		Backend:     opts.Backend,
		Occlusion:   dir,
		Rig:         opts.Rig,
		Logger:      logger,
		Seed:        opts.Seed,
	})
	return d
}

// SetEnabled turns window sitting on or off. Turning it off unwinds a
// binding on the next frame.
func (d *Dock) SetEnabled(on bool) { d.enabled = on }

func (d *Dock) Enabled() bool { return d.enabled }

// Directory exposes the window directory.
func (d *Dock) Directory() *directory.Directory { return d.dir }

// Machine exposes the snap state machine.
func (d *Dock) Machine() *snap.Machine { return d.machine }

// Quads exposes the occlusion quads.
func (d *Dock) Quads() *occlusion.Synthesizer { return d.quads }

// Status returns the current observable state.
func (d *Dock) Status() Status { return d.status }

// IsWindowSit reports whether the character sits on a window.
func (d *Dock) IsWindowSit() bool { return d.status.WindowSit }

// IsTaskbarSit reports whether the character sits on a taskbar.
func (d *Dock) IsTaskbarSit() bool { return d.status.Taskbar }

// Transform returns the projection for the host's current client area.
func (d *Dock) Transform() geom.Transform {
	tr := geom.Transform{Camera: d.camera}
	if client, err := d.backend.ClientRect(d.backend.Host()); err == nil {
		tr.Client = client
	}
	return tr
}

// ForceExitWindowSitting releases any binding immediately.
func (d *Dock) ForceExitWindowSitting() {
	res := d.machine.ForceExit()
	if res.Released {
		d.unwind()
	}
	d.publish()
}

// Update runs one frame.
func (d *Dock) Update(fr Frame) {
	tr := d.Transform()

	scale := rig.WorldScale(d.rig)
	if d.lastScale != 0 && math.Abs(scale-d.lastScale) > 1e-4 {
		d.logger.Debug("dock: rig scale changed", "from", d.lastScale, "to", scale)
		d.follower.Reset()
	}
	d.lastScale = scale

	active := fr.Dragging || d.machine.Phase() == snap.PhaseSnapped
	snapshot, refreshed := d.dir.Poll(fr.Now, active)

	res := d.machine.Update(snap.Input{
		Now:       fr.Now,
		Dragging:  fr.Dragging,
		CursorX:   fr.CursorX,
		CursorY:   fr.CursorY,
		Transform: tr,
		Policy:    d.policy(fr),
	}, snapshot)

	switch {
	case res.Released:
		d.unwind()
	case res.Snapped:
		d.follower.Reset()
		d.occluders = d.dir.Occluders(snapshot, res.TargetID, d.cfg.Occlusion.MaxOtherQuads)
		if err := d.backend.SetTopMost(d.backend.Host(), true); err != nil {
			d.logger.Debug("dock: set top-most failed", "error", err)
		}
	case refreshed && d.machine.Phase() == snap.PhaseSnapped:
		d.occluders = d.dir.Occluders(snapshot, res.TargetID, d.cfg.Occlusion.MaxOtherQuads)
	}

	// the owner may have disabled docking while this frame ran
	if res.Pin != nil && d.enabled && d.machine.Phase() == snap.PhaseSnapped {
		tr = d.place(tr, res.Pin, fr)
	}

	if d.machine.Phase() == snap.PhaseSnapped && d.enabled {
		others := make([]occlusion.Occluder, 0, len(d.occluders))
		for _, r := range d.occluders {
			others = append(others, occlusion.Occluder{ID: r.ID, Rect: r.Rect})
		}
		d.quads.Update(tr, occlusion.Occluder{ID: res.TargetID, Rect: res.Target}, others, scale)
	} else {
		d.quads.Deactivate()
	}

	d.publish()
}

func (d *Dock) policy(fr Frame) snap.Policy {
	return snap.Policy{
		Enabled:   d.enabled,
		Blocked:   d.blockers.Any(d.rig),
		BigScreen: fr.BigScreen,
		Sitting:   fr.Sitting,
	}
}

// place moves the host so the seat follows the pin, and returns the
// projection for the host's new position.
func (d *Dock) place(tr geom.Transform, pin *snap.Pin, fr Frame) geom.Transform {
	if pin.Restart {
		d.follower.Restart()
	}
	host := d.backend.Host()
	hostRect, err := d.backend.Rect(host)
	if err != nil {
		d.logger.Debug("dock: host rect unavailable", "error", err)
		return tr
	}
	sx, sy, ok := d.machine.SeatDesktop(tr)
	if !ok {
		return tr
	}
	x, y, move := d.follower.Step(hostRect, sx, sy, pin.Goal, fr.Dragging, pin.OneShot, fr.Dt)
	if !move {
		return tr
	}
	if err := d.backend.Move(host, x, y); err != nil {
		d.logger.Debug("dock: move failed", "error", err)
		return tr
	}
	tr.Client.X += x - hostRect.X
	tr.Client.Y += y - hostRect.Y
	return tr
}

func (d *Dock) unwind() {
	d.follower.Reset()
	d.occluders = nil
	d.quads.Deactivate()
}

func (d *Dock) publish() {
	target, _ := d.machine.Target()
	st := Status{
		Phase:     d.machine.Phase(),
		WindowSit: d.machine.IsWindowSit(),
		Taskbar:   d.machine.IsTaskbarSit(),
		Variant:   d.machine.Variant(),
		Target:    target,
	}
	if !st.WindowSit {
		st.Variant = 0
		st.Target = 0
	}
	changed := st != d.status
	d.status = st
	if changed && d.onChange != nil {
		d.onChange(st)
	}
}
