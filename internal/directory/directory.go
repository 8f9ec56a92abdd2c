// Package directory keeps a throttled, filtered snapshot of the top-level
// windows the character can sit on, and answers z-order questions about them.
package directory

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
)

// MaxZWalk bounds every walk up the z-order.
const MaxZWalk = 2048

// Record is one candidate window in a snapshot.
type Record struct {
	ID        platform.WindowID
	Rect      geom.Rect
	IsTaskbar bool
	Class     string
	Title     string
}

// Snapshot is an immutable list of candidates, top-most first.
type Snapshot struct {
	Records  []Record
	Monitors []geom.Rect
	Taken    time.Time
}

// Find returns the record for id.
func (s Snapshot) Find(id platform.WindowID) (Record, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Directory polls the backend and caches the latest snapshot.
type Directory struct {
	backend    platform.Backend
	classifier Classifier
	cfg        config.Directory
	logger     *slog.Logger

	snap     Snapshot
	nextPoll time.Time
	polled   bool
}

// New creates a directory. A nil logger discards output.
func New(backend platform.Backend, cfg config.Directory, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Directory{
		backend:    backend,
		classifier: NewClassifier(cfg),
		cfg:        cfg,
		logger:     logger,
	}
}

// Classifier returns the filters in use.
func (d *Directory) Classifier() Classifier { return d.classifier }

// Snapshot returns the most recent snapshot.
func (d *Directory) Snapshot() Snapshot { return d.snap }

// Interval is the poll period for the given activity level. Rates below
// 1 Hz are raised to 1 Hz.
func (d *Directory) Interval(active bool) time.Duration {
	hz := d.cfg.IdleHz
	if active {
		hz = d.cfg.ActiveHz
	}
	hz = max(1, hz)
	return time.Duration(float64(time.Second) / hz)
}

// Poll refreshes the snapshot when the poll interval has elapsed. It returns
// the current snapshot and whether it was rebuilt.
func (d *Directory) Poll(now time.Time, active bool) (Snapshot, bool) {
	if d.polled && now.Before(d.nextPoll) {
		return d.snap, false
	}
	d.nextPoll = now.Add(d.Interval(active))
	d.polled = true
	if _, err := d.Refresh(now); err != nil {
		d.logger.Warn("directory: refresh failed", "error", err)
		return d.snap, false
	}
	return d.snap, true
}

// Refresh rebuilds the snapshot immediately. On error the previous snapshot
// is kept.
func (d *Directory) Refresh(now time.Time) (Snapshot, error) {
	ids, err := d.backend.Windows()
	if err != nil {
		return d.snap, fmt.Errorf("list windows: %w", err)
	}
	monitors, err := d.backend.Monitors()
	if err != nil {
		d.logger.Debug("directory: monitors unavailable", "error", err)
		monitors = d.snap.Monitors
	}

	host := d.backend.Host()
	pid := d.backend.ProcessID()
	snap := Snapshot{Monitors: monitors, Taken: now}
	for _, id := range ids {
		if id == host {
			continue
		}
		info, err := d.backend.Info(id)
		if err != nil {
			if !errors.Is(err, platform.ErrWindowGone) {
				d.logger.Debug("directory: skip window", "window", id, "error", err)
			}
			continue
		}
		if info.PID != 0 && info.PID == pid {
			continue
		}
		rect, err := d.backend.Rect(id)
		if err != nil {
			continue
		}
		info.Bounds = rect
		state, err := d.backend.State(id)
		if err != nil {
			continue
		}
		class := d.classifier.Classify(info, state)
		if class == Excluded {
			continue
		}
		snap.Records = append(snap.Records, Record{
			ID:        id,
			Rect:      rect,
			IsTaskbar: class == Taskbar,
			Class:     info.Class,
			Title:     info.Title,
		})
	}

	if len(snap.Records) != len(d.snap.Records) {
		d.logger.Debug("directory: snapshot changed", "windows", len(snap.Records))
	}
	d.snap = snap
	return snap, nil
}

// OccludedAt reports whether an opaque window above target covers the
// desktop point (x, y). Transparent, overlay, click-through and nearly
// invisible windows do not count, nor do windows of the host process.
func (d *Directory) OccludedAt(target platform.WindowID, x, y int) bool {
	host := d.backend.Host()
	pid := d.backend.ProcessID()
	px, py := float64(x), float64(y)

	cur := target
	for range MaxZWalk {
		above, err := d.backend.Predecessor(cur)
		if err != nil || above == 0 {
			return false
		}
		cur = above
		if above == host {
			continue
		}
		info, err := d.backend.Info(above)
		if err != nil || !info.Visible {
			continue
		}
		if info.PID != 0 && info.PID == pid {
			continue
		}
		state, err := d.backend.State(above)
		if err != nil || state.Cloaked || state.Iconic {
			continue
		}
		rect, err := d.backend.Rect(above)
		if err != nil || !rect.Contains(px, py) {
			continue
		}
		if d.classifier.Transparent(info) || d.classifier.Overlay(info) {
			continue
		}
		s := info.Style
		if s.ClickThrough {
			continue
		}
		if s.Layered && s.HasAlpha && s.Alpha <= 8 {
			continue
		}
		return true
	}
	return false
}

// IsAbove reports whether a is higher than b in the z-order.
func (d *Directory) IsAbove(a, b platform.WindowID) bool {
	if a == 0 || b == 0 || a == b {
		return false
	}
	cur := b
	for range MaxZWalk {
		above, err := d.backend.Predecessor(cur)
		if err != nil || above == 0 {
			return false
		}
		if above == a {
			return true
		}
		cur = above
	}
	return false
}

// Occluders returns the snapshot windows that can hide part of the
// character while it sits on target: every taskbar and every window above
// the target, at most limit of them, top-most first. Records are already in
// z-order, so only a target missing from the snapshot costs a z-order walk.
func (d *Directory) Occluders(snap Snapshot, target platform.WindowID, limit int) []Record {
	rank := -1
	for i, r := range snap.Records {
		if r.ID == target {
			rank = i
			break
		}
	}
	var above map[platform.WindowID]bool
	if rank < 0 {
		above = d.windowsAbove(target)
	}

	var out []Record
	for i, r := range snap.Records {
		if len(out) >= limit {
			break
		}
		if r.ID == target {
			continue
		}
		if r.IsTaskbar || (rank >= 0 && i < rank) || above[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// windowsAbove walks the z-order once from id to the top.
func (d *Directory) windowsAbove(id platform.WindowID) map[platform.WindowID]bool {
	out := make(map[platform.WindowID]bool)
	if id == 0 {
		return out
	}
	cur := id
	for range MaxZWalk {
		above, err := d.backend.Predecessor(cur)
		if err != nil || above == 0 {
			break
		}
		out[above] = true
		cur = above
	}
	return out
}
