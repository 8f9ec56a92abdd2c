// Package snap decides when the character docks onto a window's top edge,
// keeps it bound while the window moves, and releases it.
package snap

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/directory"
	"github.com/1broseidon/perch/internal/follow"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/rig"
	"github.com/1broseidon/perch/internal/seat"
)

// Machine is the dock state machine. It is driven by one Update per frame
// and is not safe for concurrent use.
type Machine struct {
	cfg      config.Snap
	variants int
	backend  platform.Backend
	occl     Occlusion
	rig      rig.Rig
	logger   *slog.Logger
	rng      *rand.Rand

	phase    Phase
	target   platform.WindowID
	taskbar  bool
	fraction float64
	anchor   seat.Anchor
	hasSeat  bool
	variant  int

	wasDragging  bool
	dragX, dragY int
	dragStart    time.Time
	holdOK       bool

	guard        guardZone
	recentUnsnap bool
	lastSnapTop  int
	snapCursorY  int

	latch, guardFrames int
	settle             int
	recalibrate        bool
}

// Options configure a Machine.
type Options struct {
	Snap config.Snap
	// SitVariants is the number of window-sit poses to choose from.
	SitVariants int
	Backend     platform.Backend
	Occlusion   Occlusion
	Rig         rig.Rig
	Logger      *slog.Logger
	// Seed fixes pose selection; zero picks a random seed.
	Seed uint64
}

func New(opts Options) *Machine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Machine{
		cfg:      opts.Snap,
		variants: max(1, opts.SitVariants),
		backend:  opts.Backend,
		occl:     opts.Occlusion,
		rig:      opts.Rig,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (m *Machine) Phase() Phase { return m.phase }

// Target returns the bound window.
func (m *Machine) Target() (platform.WindowID, bool) {
	return m.target, m.phase == PhaseSnapped
}

// IsWindowSit reports whether the character sits on a window.
func (m *Machine) IsWindowSit() bool { return m.phase == PhaseSnapped }

// IsTaskbarSit reports whether the bound window is a taskbar.
func (m *Machine) IsTaskbarSit() bool { return m.phase == PhaseSnapped && m.taskbar }

// Variant is the sit pose chosen at snap time.
func (m *Machine) Variant() int { return m.variant }

// Fraction is the seat's horizontal position along the target's width.
func (m *Machine) Fraction() float64 { return m.fraction }

// Anchor returns the calibrated seat, if any.
func (m *Machine) Anchor() (seat.Anchor, bool) { return m.anchor, m.hasSeat }

// GuardActive reports whether a guard zone is blocking re-snaps.
func (m *Machine) GuardActive() bool { return m.guard.active }

func (m *Machine) scale() float64 { return rig.WorldScale(m.rig) }

// ProbeRadius is the vertical snap tolerance in desktop pixels.
func (m *Machine) ProbeRadius() int {
	return max(1, geom.RoundPx(m.cfg.ProbeRadiusPx*m.scale()))
}

func (m *Machine) band() int {
	return max(m.cfg.UnsnapBandPx, m.ProbeRadius())
}

// Probe returns the desktop position of the snap probe: the hips lifted
// by the configured offset along the rig's up axis.
func (m *Machine) Probe(tr geom.Transform) (x, y float64, ok bool) {
	lift := m.cfg.ProbeYOffset * m.rig.LocalToWorld().AxisScale().Y
	p := rig.HipWorld(m.rig).Add(rig.UpDir(m.rig).Scale(lift))
	x, y, err := tr.WorldToDesktop(p)
	return x, y, err == nil
}

// SeatDesktop returns the desktop position of the calibrated seat, falling
// back to the hips before calibration.
func (m *Machine) SeatDesktop(tr geom.Transform) (x, y float64, ok bool) {
	p := rig.HipWorld(m.rig)
	if m.hasSeat {
		p = m.anchor.World(m.rig, m.cfg.SeatFractionBias)
	}
	x, y, err := tr.WorldToDesktop(p)
	return x, y, err == nil
}

// Update advances the machine by one frame. snap is the directory
// snapshot shared by every consumer this frame.
func (m *Machine) Update(in Input, snap directory.Snapshot) Result {
	var res Result
	defer func() { m.wasDragging = in.Dragging }()

	switch {
	case !in.Policy.Enabled:
		m.release(&res, "disabled", in.Dragging)
		m.resetDrag()
		in.Dragging = false
		return res
	case in.Policy.Blocked:
		m.release(&res, "blocked", in.Dragging)
		m.resetDrag()
		in.Dragging = false
		return res
	case in.Policy.BigScreen:
		m.release(&res, "big screen", in.Dragging)
		m.resetDrag()
		in.Dragging = false
		return res
	}

	m.trackDrag(in)

	probeX, probeY, probeOK := m.Probe(in.Transform)

	if m.recentUnsnap {
		if !in.Dragging {
			m.recentUnsnap = false
		} else if probeOK && math.Abs(probeY-float64(m.lastSnapTop)) >= float64(m.band()) {
			m.recentUnsnap = false
		}
	}

	if m.phase == PhaseSnapped {
		rect, reason := m.checkTarget(snap)
		if reason != "" {
			m.release(&res, reason, in.Dragging)
			return res
		}
		res.Target, res.TargetID = rect, m.target

		skip := m.tickHysteresis()
		if in.Dragging && !skip && !m.stillNear(in, snap, probeX, probeY, probeOK) {
			if m.cfg.UseGuardZone && probeOK {
				m.guard = guardZone{active: true, x: probeX, y: probeY, radius: m.cfg.GuardRadiusPx * m.scale()}
			}
			m.release(&res, "dragged away", in.Dragging)
			return res
		}
		if in.Dragging && probeOK {
			m.fraction = fractionAlong(rect, probeX)
		}
		res.Pin = &Pin{Goal: m.goal(rect)}
		m.settleStep(in, &res, rect)
		return res
	}

	if in.Dragging && !in.Policy.Sitting && m.holdOK && m.draggedFar(in) && probeOK {
		m.trySnap(in, snap, &res, probeX, probeY)
	}
	return res
}

func (m *Machine) resetDrag() {
	m.holdOK = false
	m.wasDragging = false
	if m.phase == PhaseArmed {
		m.phase = PhaseIdle
	}
}

func (m *Machine) trackDrag(in Input) {
	if in.Dragging && !m.wasDragging {
		m.dragX, m.dragY = in.CursorX, in.CursorY
		m.dragStart = in.Now
		m.holdOK = false
		if m.phase == PhaseSnapped {
			m.snapCursorY = in.CursorY
		}
	}
	if !in.Dragging {
		m.holdOK = false
		if m.phase == PhaseArmed {
			m.phase = PhaseIdle
		}
		return
	}
	if m.phase == PhaseIdle {
		m.phase = PhaseArmed
	}
	hold := time.Duration(m.cfg.HoldSeconds * float64(time.Second))
	if !m.holdOK && in.Now.Sub(m.dragStart) >= hold {
		m.holdOK = true
	}
}

func (m *Machine) draggedFar(in Input) bool {
	dx := in.CursorX - m.dragX
	dy := in.CursorY - m.dragY
	lim := m.cfg.MinDragPixels
	return dx >= lim || dx <= -lim || dy >= lim || dy <= -lim
}

func (m *Machine) trySnap(in Input, snap directory.Snapshot, res *Result, px, py float64) {
	if m.guard.active {
		if m.cfg.UseGuardZone && m.guard.contains(px, py) {
			return
		}
		m.guard.active = false
	}
	if m.recentUnsnap && math.Abs(py-float64(m.lastSnapTop)) < float64(m.band()) {
		return
	}

	host := m.backend.Host()
	radius := float64(m.ProbeRadius())
	for _, rec := range snap.Records {
		if rec.ID == host {
			continue
		}
		r := rec.Rect
		if px < float64(r.Left()) || px > float64(r.Right()) {
			continue
		}
		top := float64(r.Top())
		if math.Abs(py-top) > radius {
			continue
		}
		if m.occl != nil && m.occl.OccludedAt(rec.ID, geom.RoundPx(px), geom.RoundPx(py)) {
			continue
		}

		anchor, err := seat.Calibrate(m.rig, in.Transform, top+m.cfg.SeatOffsetPx)
		if err != nil {
			m.logger.Debug("snap: calibration unavailable", "window", rec.ID, "error", err)
			return
		}
		m.bind(rec, anchor, in, px)
		res.Snapped = true
		res.Target, res.TargetID = r, rec.ID
		res.Pin = &Pin{Goal: m.goal(r), OneShot: true}
		return
	}
}

func (m *Machine) bind(rec directory.Record, anchor seat.Anchor, in Input, px float64) {
	m.phase = PhaseSnapped
	m.target = rec.ID
	m.taskbar = rec.IsTaskbar
	m.anchor, m.hasSeat = anchor, true
	m.fraction = fractionAlong(rec.Rect, px)
	m.variant = m.rng.IntN(m.variants)
	m.guard.active = false
	m.recentUnsnap = false
	m.lastSnapTop = rec.Rect.Top()
	m.snapCursorY = in.CursorY
	m.latch = max(1, m.cfg.LatchFrames)
	m.guardFrames = max(1, m.cfg.GuardFrames)
	m.settle = max(0, m.cfg.SettleFrames)
	m.recalibrate = true
	m.logger.Info("snapped",
		"window", rec.ID,
		"title", rec.Title,
		"taskbar", rec.IsTaskbar,
		"fraction", m.fraction,
	)
}

// checkTarget reads the bound window's live state. A non-empty reason means
// the binding is stale.
func (m *Machine) checkTarget(snap directory.Snapshot) (geom.Rect, string) {
	if !m.hasSeat {
		return geom.Rect{}, "no seat"
	}
	if _, ok := snap.Find(m.target); !ok {
		return geom.Rect{}, "target left directory"
	}
	rect, err := m.backend.Rect(m.target)
	if err != nil {
		return geom.Rect{}, "target gone"
	}
	state, err := m.backend.State(m.target)
	if err != nil {
		return geom.Rect{}, "target gone"
	}
	switch {
	case state.Iconic:
		return rect, "target minimized"
	case state.Cloaked:
		return rect, "target cloaked"
	case state.Maximized:
		return rect, "target maximized"
	case state.Fullscreen, geom.FullscreenEquivalent(rect, snap.Monitors):
		return rect, "target fullscreen"
	}
	return rect, ""
}

// tickHysteresis spends one hysteresis frame, latch first. It reports
// whether a frame was spent, in which case unsnap checks are skipped.
func (m *Machine) tickHysteresis() bool {
	if m.latch > 0 {
		m.latch--
		return true
	}
	if m.guardFrames > 0 {
		m.guardFrames--
		return true
	}
	return false
}

func (m *Machine) stillNear(in Input, snap directory.Snapshot, px, py float64, ok bool) bool {
	rec, found := snap.Find(m.target)
	if !found {
		return false
	}
	if !ok {
		return true
	}
	r := rec.Rect
	if px < float64(r.Left()) || px > float64(r.Right()) {
		return false
	}
	band := float64(m.band())
	if math.Abs(py-float64(r.Top())) > band {
		return false
	}
	if abs(in.CursorY-m.snapCursorY) > m.band() {
		return false
	}
	return true
}

// settleStep recalibrates the seat once the first placement has landed.
func (m *Machine) settleStep(in Input, res *Result, rect geom.Rect) {
	if !m.recalibrate {
		return
	}
	if m.settle > 0 {
		m.settle--
		return
	}
	m.recalibrate = false
	anchor, err := seat.Calibrate(m.rig, in.Transform, float64(rect.Top())+m.cfg.SeatOffsetPx)
	if err != nil {
		m.logger.Debug("snap: recalibration skipped", "error", err)
		return
	}
	m.anchor = anchor
	res.Pin = &Pin{Goal: m.goal(rect), Restart: true}
}

func (m *Machine) goal(r geom.Rect) follow.Goal {
	return follow.Goal{Target: r, Fraction: m.fraction, OffsetY: m.cfg.SeatOffsetPx}
}

// ForceExit clears the binding immediately. Calling it again is a no-op.
func (m *Machine) ForceExit() Result {
	var res Result
	m.release(&res, "forced", m.wasDragging)
	return res
}

func (m *Machine) release(res *Result, reason string, dragging bool) {
	was := m.phase == PhaseSnapped
	if was && dragging {
		m.recentUnsnap = true
	}
	m.target = 0
	m.taskbar = false
	m.hasSeat = false
	m.anchor = seat.Anchor{}
	m.latch, m.guardFrames = 0, 0
	m.settle = 0
	m.recalibrate = false
	if m.phase != PhaseArmed || !dragging {
		m.phase = PhaseIdle
	}
	if was {
		res.Released = true
		res.Reason = reason
		m.logger.Info("released", "reason", reason)
	}
}

func fractionAlong(r geom.Rect, x float64) float64 {
	w := float64(max(1, r.Width))
	return geom.Clamp((x-float64(r.Left()))/w, 0, 1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
