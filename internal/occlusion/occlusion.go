// Package occlusion turns desktop window rectangles into depth-only quads
// in front of the camera, so the renderer hides the parts of the character
// that sit behind the target window or behind windows stacked above it.
package occlusion

import (
	"log/slog"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
)

// Quad is one occluder surface. Corners are in the camera's local frame,
// ordered bottom-left, top-left, top-right, bottom-right.
type Quad struct {
	Active  bool
	Source  platform.WindowID
	Rect    geom.Rect
	Depth   float64
	Corners [4]geom.Vec3
}

// Occluder is a window rectangle to turn into a quad.
type Occluder struct {
	ID   platform.WindowID
	Rect geom.Rect
}

// Synthesizer owns the target quad and a bounded pool of other quads.
// Quads are deactivated, never freed.
type Synthesizer struct {
	cfg    config.Occlusion
	logger *slog.Logger

	target Quad
	pool   []Quad
	active int
}

func New(cfg config.Occlusion, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := max(0, min(cfg.PrewarmQuads, cfg.MaxOtherQuads))
	return &Synthesizer{
		cfg:    cfg,
		logger: logger,
		pool:   make([]Quad, n, max(n, cfg.MaxOtherQuads)),
	}
}

// TargetOffset is the target quad's distance past the near plane. With
// auto-scaling it grows with the character's scale so a larger body still
// falls inside the occluded depth range.
func (s *Synthesizer) TargetOffset(scale float64) float64 {
	if !s.cfg.AutoScaleTarget {
		return s.cfg.TargetDepth
	}
	z := s.cfg.TargetZBase + (scale-s.cfg.TargetZRefScale)*s.cfg.TargetZSens
	return geom.Clamp(z, s.cfg.TargetZMin, s.cfg.TargetZMax)
}

// Update places the target quad and one quad per entry of others, up to
// the pool limit. Rectangles are clipped to the host client area first;
// anything that does not overlap it leaves its quad inactive.
func (s *Synthesizer) Update(tr geom.Transform, target Occluder, others []Occluder, scale float64) {
	if tr.Camera == nil {
		s.Deactivate()
		return
	}
	near := tr.Camera.NearClip()

	s.target = s.place(tr, target, near+s.TargetOffset(scale))

	limit := max(0, s.cfg.MaxOtherQuads)
	n := 0
	for _, o := range others {
		if n >= limit {
			break
		}
		if n >= len(s.pool) {
			s.pool = append(s.pool, Quad{})
		}
		q := s.place(tr, o, near+s.cfg.OthersDepth)
		if !q.Active {
			continue
		}
		s.pool[n] = q
		n++
	}
	for i := n; i < len(s.pool); i++ {
		s.pool[i].Active = false
	}
	s.active = n
}

func (s *Synthesizer) place(tr geom.Transform, o Occluder, depth float64) Quad {
	r := o.Rect.Intersect(tr.Client)
	q := Quad{Source: o.ID, Rect: r, Depth: depth}
	if r.Empty() {
		return q
	}
	corners, err := tr.DesktopRectToCamera(r, depth)
	if err != nil {
		s.logger.Debug("occlusion: quad skipped", "window", o.ID, "error", err)
		return q
	}
	q.Corners = corners
	q.Active = true
	return q
}

// Deactivate hides every quad.
func (s *Synthesizer) Deactivate() {
	s.target.Active = false
	for i := range s.pool {
		s.pool[i].Active = false
	}
	s.active = 0
}

// Target returns the target quad.
func (s *Synthesizer) Target() Quad { return s.target }

// Others returns the active other quads, top-most window first.
func (s *Synthesizer) Others() []Quad { return s.pool[:s.active] }

// PoolSize is the number of other quads allocated so far.
func (s *Synthesizer) PoolSize() int { return len(s.pool) }

// AnyActive reports whether any quad is visible.
func (s *Synthesizer) AnyActive() bool { return s.target.Active || s.active > 0 }
