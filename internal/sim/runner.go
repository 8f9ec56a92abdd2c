package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/dock"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/rig"
)

// hostID is the window id reserved for the host overlay.
const hostID = 1

// TraceEntry is the dock state after one step.
type TraceEntry struct {
	Step       int               `yaml:"step"`
	Label      string            `yaml:"label,omitempty"`
	Time       float64           `yaml:"time"`
	Phase      string            `yaml:"phase"`
	Target     platform.WindowID `yaml:"target,omitempty"`
	Taskbar    bool              `yaml:"taskbar,omitempty"`
	Host       geom.Rect         `yaml:"host"`
	TargetQuad bool              `yaml:"target_quad"`
	OtherQuads int               `yaml:"other_quads"`
	Moves      int               `yaml:"moves"`
}

// Runner plays a scenario.
type Runner struct {
	sc      *Scenario
	backend *platform.MemoryBackend
	rig     *rig.StaticRig
	dock    *dock.Dock
	logger  *slog.Logger

	start   time.Time
	now     time.Time
	cursor  Point
	prevCur Point
	drag    bool
}

// NewRunner builds the in-memory desktop described by sc.
func NewRunner(sc *Scenario, cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := platform.NewMemoryBackend(sc.PID, sc.Monitors...)
	b.SetHost(platform.MemoryWindow{
		Info:   platform.WindowInfo{ID: hostID, Class: "perch", Title: "perch", Bounds: sc.Host.Rect},
		Insets: sc.Host.Insets,
	})
	for _, w := range sc.Windows {
		b.Push(w.Memory(0))
	}

	r := rig.Humanoid(sc.Rig.Height)
	s := sc.Rig.Scale
	r.Root = geom.TRS(sc.Rig.Position, sc.Rig.Yaw, geom.Vec3{X: s, Y: s, Z: s})
	for _, f := range sc.Rig.Flags {
		r.DeclareFlag(f)
	}

	cam := geom.NewPerspectiveCamera(sc.Camera.Position, sc.Camera.FOV, sc.Camera.Width, sc.Camera.Height)
	start := time.Unix(0, 0)
	run := &Runner{
		sc:      sc,
		backend: b,
		rig:     r,
		logger:  logger,
		start:   start,
		now:     start,
	}
	run.dock = dock.New(dock.Options{
		Config:  cfg,
		Backend: b,
		Rig:     r,
		Camera:  cam,
		Logger:  logger,
		Seed:    max(1, sc.Seed),
	})
	return run, nil
}

// Backend exposes the in-memory window system.
func (r *Runner) Backend() *platform.MemoryBackend { return r.backend }

// Dock exposes the dock under test.
func (r *Runner) Dock() *dock.Dock { return r.dock }

// Run plays every step and returns one trace entry per step.
func (r *Runner) Run(ctx context.Context) ([]TraceEntry, error) {
	trace := make([]TraceEntry, 0, len(r.sc.Steps))
	for i, st := range r.sc.Steps {
		if err := ctx.Err(); err != nil {
			return trace, err
		}
		if err := r.apply(st); err != nil {
			return trace, fmt.Errorf("step %d: %w", i, err)
		}
		for range st.Frames {
			r.frame(st)
		}
		trace = append(trace, r.entry(i, st))
	}
	return trace, nil
}

func (r *Runner) apply(st Step) error {
	for _, w := range st.Add {
		r.backend.Insert(w.Memory(0), 1)
	}
	for _, id := range st.Remove {
		r.backend.Remove(platform.WindowID(id))
	}
	for _, m := range st.Move {
		if err := r.backend.SetBounds(platform.WindowID(m.ID), m.Rect); err != nil {
			return err
		}
	}
	for _, s := range st.State {
		if err := r.backend.SetState(platform.WindowID(s.ID), platform.WindowState(s.WindowState)); err != nil {
			return err
		}
	}
	for _, rs := range st.Raise {
		if err := r.backend.Raise(platform.WindowID(rs.ID), rs.Pos); err != nil {
			return err
		}
	}
	for name, on := range st.Flags {
		r.rig.SetFlag(name, on)
	}
	if st.Enabled != nil {
		r.dock.SetEnabled(*st.Enabled)
	}
	if st.Cursor != nil {
		r.cursor = *st.Cursor
	}
	if st.ForceExit {
		r.dock.ForceExitWindowSitting()
	}
	return nil
}

// frame advances one frame. While dragging and not sitting, the host is
// carried by the pointer the way the drag handler would move it.
func (r *Runner) frame(st Step) {
	r.now = r.now.Add(time.Duration(st.Dt * float64(time.Second)))
	r.backend.SetCursor(r.cursor.X, r.cursor.Y)

	if st.Dragging && r.drag && !r.dock.IsWindowSit() {
		dx, dy := r.cursor.X-r.prevCur.X, r.cursor.Y-r.prevCur.Y
		if dx != 0 || dy != 0 {
			if h, err := r.backend.Rect(hostID); err == nil {
				r.backend.SetBounds(hostID, geom.Rect{X: h.X + dx, Y: h.Y + dy, Width: h.Width, Height: h.Height})
			}
		}
	}
	r.drag = st.Dragging
	r.prevCur = r.cursor

	r.dock.Update(dock.Frame{
		Now:       r.now,
		Dt:        st.Dt,
		Dragging:  st.Dragging,
		CursorX:   r.cursor.X,
		CursorY:   r.cursor.Y,
		BigScreen: st.BigScreen,
		Sitting:   st.Sitting,
	})
}

func (r *Runner) entry(i int, st Step) TraceEntry {
	status := r.dock.Status()
	host, _ := r.backend.Rect(hostID)
	q := r.dock.Quads()
	return TraceEntry{
		Step:       i,
		Label:      st.Label,
		Time:       r.now.Sub(r.start).Seconds(),
		Phase:      status.Phase.String(),
		Target:     status.Target,
		Taskbar:    status.Taskbar,
		Host:       host,
		TargetQuad: q.Target().Active,
		OtherQuads: len(q.Others()),
		Moves:      r.backend.Moves,
	}
}
