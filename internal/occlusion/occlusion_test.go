package occlusion

import (
	"math"
	"testing"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/geom"
)

func testTransform() geom.Transform {
	cam := geom.NewPerspectiveCamera(geom.Vec3{}, 60, 800, 600)
	return geom.Transform{Camera: cam, Client: geom.Rect{X: 100, Y: 100, Width: 800, Height: 600}}
}

func TestTargetOffset(t *testing.T) {
	cfg := config.DefaultConfig().Occlusion
	s := New(cfg, nil)
	tests := []struct {
		scale, want float64
	}{
		{1, 3.2},
		{2, 6.2},
		{0.5, 1.7},
		{10, 10},
		{-1, 0.05},
	}
	for _, tt := range tests {
		if got := s.TargetOffset(tt.scale); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("TargetOffset(%v) = %v, want %v", tt.scale, got, tt.want)
		}
	}
	cfg.AutoScaleTarget = false
	if got := New(cfg, nil).TargetOffset(3); got != cfg.TargetDepth {
		t.Fatalf("fixed depth = %v", got)
	}
}

func TestUpdate_PlacesQuadsAtDepth(t *testing.T) {
	s := New(config.DefaultConfig().Occlusion, nil)
	tr := testTransform()
	target := Occluder{ID: 10, Rect: geom.Rect{X: 0, Y: 50, Width: 800, Height: 400}}
	others := []Occluder{{ID: 11, Rect: geom.Rect{X: 300, Y: 0, Width: 200, Height: 200}}}

	s.Update(tr, target, others, 1)

	tq := s.Target()
	if !tq.Active || tq.Source != 10 {
		t.Fatalf("target quad = %+v", tq)
	}
	wantZ := tr.Camera.NearClip() + 3.2
	for _, c := range tq.Corners {
		if math.Abs(c.Z-wantZ) > 1e-9 {
			t.Fatalf("target corner depth %v, want %v", c.Z, wantZ)
		}
	}
	// bottom-left is below and left of top-right
	if !(tq.Corners[0].X < tq.Corners[2].X && tq.Corners[0].Y < tq.Corners[2].Y) {
		t.Fatalf("corner order wrong: %+v", tq.Corners)
	}
	if want := (geom.Rect{X: 100, Y: 100, Width: 700, Height: 350}); tq.Rect != want {
		t.Fatalf("target clipped to %v, want %v", tq.Rect, want)
	}

	o := s.Others()
	if len(o) != 1 || o[0].Source != 11 {
		t.Fatalf("others = %+v", o)
	}
	if math.Abs(o[0].Corners[0].Z-(tr.Camera.NearClip()+0.002)) > 1e-9 {
		t.Fatalf("other depth = %v", o[0].Corners[0].Z)
	}
}

func TestUpdate_PoolGrowsToMaxAndRecycles(t *testing.T) {
	cfg := config.DefaultConfig().Occlusion
	s := New(cfg, nil)
	if s.PoolSize() != cfg.PrewarmQuads {
		t.Fatalf("prewarmed %d quads, want %d", s.PoolSize(), cfg.PrewarmQuads)
	}
	tr := testTransform()
	target := Occluder{ID: 1, Rect: geom.Rect{Width: 800, Height: 400}}

	var many []Occluder
	for i := 0; i < 20; i++ {
		many = append(many, Occluder{ID: 100, Rect: geom.Rect{X: 100 + i*10, Y: 150, Width: 50, Height: 50}})
	}
	s.Update(tr, target, many, 1)
	if len(s.Others()) != cfg.MaxOtherQuads || s.PoolSize() != cfg.MaxOtherQuads {
		t.Fatalf("active %d pool %d, want %d", len(s.Others()), s.PoolSize(), cfg.MaxOtherQuads)
	}

	s.Update(tr, target, many[:2], 1)
	if len(s.Others()) != 2 || s.PoolSize() != cfg.MaxOtherQuads {
		t.Fatalf("active %d pool %d", len(s.Others()), s.PoolSize())
	}
	for i := 2; i < s.PoolSize(); i++ {
		if s.pool[i].Active {
			t.Fatalf("quad %d still active", i)
		}
	}
}

func TestDeactivate(t *testing.T) {
	s := New(config.DefaultConfig().Occlusion, nil)
	tr := testTransform()
	s.Update(tr, Occluder{ID: 1, Rect: geom.Rect{Width: 800, Height: 400}},
		[]Occluder{{ID: 2, Rect: geom.Rect{X: 150, Y: 150, Width: 50, Height: 50}}}, 1)
	if !s.AnyActive() {
		t.Fatalf("expected active quads")
	}
	s.Deactivate()
	if s.AnyActive() || len(s.Others()) != 0 || s.Target().Active {
		t.Fatalf("expected all quads inactive")
	}
	if s.PoolSize() == 0 {
		t.Fatalf("pool must be kept")
	}
}

func TestUpdate_NoClientRect(t *testing.T) {
	s := New(config.DefaultConfig().Occlusion, nil)
	tr := geom.Transform{Camera: geom.NewPerspectiveCamera(geom.Vec3{}, 60, 800, 600)}
	s.Update(tr, Occluder{ID: 1, Rect: geom.Rect{Width: 800, Height: 400}}, nil, 1)
	if s.Target().Active {
		t.Fatalf("target quad cannot be placed without a client rect")
	}
}

func TestUpdate_OutsideClientIsInactive(t *testing.T) {
	s := New(config.DefaultConfig().Occlusion, nil)
	tr := testTransform()
	s.Update(tr, Occluder{ID: 1, Rect: geom.Rect{X: 1000, Y: 0, Width: 200, Height: 200}},
		[]Occluder{{ID: 2, Rect: geom.Rect{X: 0, Y: 0, Width: 50, Height: 50}}}, 1)
	if s.Target().Active || len(s.Others()) != 0 {
		t.Fatalf("expected no quads for rectangles outside the client area")
	}
}
