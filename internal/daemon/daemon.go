// Package daemon drives the dock against a live window system: one frame per
// tick, with drags inferred from host motion and a control socket for the
// CLI.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/dock"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/ipc"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/rig"
	"github.com/google/uuid"
)

// Options configure a Daemon.
type Options struct {
	Config *config.Config
	// ConfigPath is re-read on Reload. Empty means Reload keeps Config.
	ConfigPath string
	Backend    platform.Backend
	// Rig defaults to a 1.6 unit humanoid at the origin.
	Rig rig.Rig
	// FrameHz defaults to 60.
	FrameHz   int
	DragGrace time.Duration
	Logger    *slog.Logger
	Seed      uint64
}

// Daemon owns a Dock and serializes frames with control requests.
type Daemon struct {
	mu         sync.Mutex
	cfg        *config.Config
	configPath string
	backend    platform.Backend
	tracked    trackingBackend
	rig        rig.Rig
	camera     *geom.PerspectiveCamera
	interval   time.Duration
	logger     *slog.Logger
	seed       uint64
	instance   string

	dock      *dock.Dock
	drag      DragDetector
	lastFrame time.Time
	started   time.Time
}

var _ ipc.Controller = (*Daemon)(nil)

func New(opts Options) *Daemon {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := opts.Rig
	if r == nil {
		r = rig.Humanoid(1.6)
	}
	hz := opts.FrameHz
	if hz <= 0 {
		hz = 60
	}
	d := &Daemon{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		rig:        r,
		camera:     geom.NewPerspectiveCamera(geom.Vec3{Y: 1, Z: -5}, 60, 800, 600),
		interval:   time.Second / time.Duration(hz),
		logger:     logger,
		seed:       opts.Seed,
		drag:       DragDetector{Grace: opts.DragGrace},
		started:    time.Now(),
		instance:   uuid.NewString(),
	}
	d.tracked = trackingBackend{Backend: opts.Backend, drag: &d.drag, host: opts.Backend.Host()}
	d.dock = d.newDock(cfg)
	return d
}

func (d *Daemon) newDock(cfg *config.Config) *dock.Dock {
	return dock.New(dock.Options{
		Config:  cfg,
		Backend: d.tracked,
		Rig:     d.rig,
		Camera:  d.camera,
		Logger:  d.logger,
		Seed:    d.seed,
		OnChange: func(st dock.Status) {
			d.logger.Info("dock state changed",
				"phase", st.Phase.String(),
				"window_sit", st.WindowSit,
				"taskbar", st.Taskbar,
				"target", st.Target)
		},
	})
}

// Run steps frames until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("daemon started", "host", d.backend.Host(), "interval", d.interval)

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.dock.ForceExitWindowSitting()
			d.mu.Unlock()
			d.logger.Info("daemon stopped")
			return nil
		case now := <-ticker.C:
			if err := d.Step(now); err != nil {
				d.logger.Warn("daemon: frame failed", "error", err)
			}
		}
	}
}

// Step runs one frame at now.
func (d *Daemon) Step(now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	host := d.backend.Host()
	hostRect, err := d.backend.Rect(host)
	if err != nil {
		return fmt.Errorf("host window: %w", err)
	}
	if client, err := d.backend.ClientRect(host); err == nil && !client.Empty() {
		d.camera.Width, d.camera.Height = client.Width, client.Height
	}
	cx, cy, err := d.backend.Cursor()
	if err != nil {
		return fmt.Errorf("cursor: %w", err)
	}

	dt := 0.0
	if !d.lastFrame.IsZero() {
		dt = now.Sub(d.lastFrame).Seconds()
	}
	d.lastFrame = now

	d.dock.Update(dock.Frame{
		Now:      now,
		Dt:       dt,
		Dragging: d.drag.Observe(now, hostRect.X, hostRect.Y),
		CursorX:  cx,
		CursorY:  cy,
	})
	return nil
}

func (d *Daemon) statusLocked() ipc.StatusData {
	st := d.dock.Status()
	return ipc.StatusData{
		Instance:      d.instance,
		Enabled:       d.dock.Enabled(),
		Phase:         st.Phase.String(),
		WindowSit:     st.WindowSit,
		Taskbar:       st.Taskbar,
		Variant:       st.Variant,
		Target:        uint64(st.Target),
		Host:          uint64(d.backend.Host()),
		UptimeSeconds: int64(time.Since(d.started).Seconds()),
	}
}

func (d *Daemon) Status() ipc.StatusData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked()
}

func (d *Daemon) SetEnabled(on bool) ipc.StatusData {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setEnabledLocked(on)
	return d.statusLocked()
}

// Toggle flips window sitting. The read and the flip share one critical
// section so concurrent toggles alternate.
func (d *Daemon) Toggle() ipc.StatusData {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setEnabledLocked(!d.dock.Enabled())
	return d.statusLocked()
}

func (d *Daemon) setEnabledLocked(on bool) {
	d.logger.Info("window sitting toggled", "enabled", on)
	d.dock.SetEnabled(on)
}

func (d *Daemon) Release() ipc.StatusData {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dock.ForceExitWindowSitting()
	return d.statusLocked()
}

// Reload re-reads the config file and rebuilds the dock. A binding does not
// survive a reload.
func (d *Daemon) Reload() (ipc.StatusData, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.configPath == "" {
		return d.statusLocked(), nil
	}
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		d.logger.Warn("daemon: reload failed", "error", err)
		return ipc.StatusData{}, err
	}
	d.dock.ForceExitWindowSitting()
	d.cfg = res.Config
	d.dock = d.newDock(res.Config)
	d.drag.Reset()
	d.logger.Info("config reloaded", "file", d.configPath)
	return d.statusLocked(), nil
}
