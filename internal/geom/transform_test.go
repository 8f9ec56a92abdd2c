package geom

import (
	"errors"
	"math"
	"testing"
)

func testTransform() Transform {
	cam := NewPerspectiveCamera(Vec3{Y: 1, Z: -5}, 60, 800, 600)
	// Surface is half the client size on both axes, as on a 2x DPI display.
	return Transform{Camera: cam, Client: Rect{X: 100, Y: 100, Width: 1600, Height: 1200}}
}

func TestTransform_RoundTripWithinClient(t *testing.T) {
	tr := testTransform()
	points := [][2]float64{
		{100, 100},
		{900, 700},
		{1699, 1299},
		{432.5, 1010.25},
	}
	for _, p := range points {
		for _, depth := range []float64{0.5, 5, 40} {
			w, err := tr.DesktopToWorld(p[0], p[1], depth)
			if err != nil {
				t.Fatalf("DesktopToWorld(%v): %v", p, err)
			}
			x, y, err := tr.WorldToDesktop(w)
			if err != nil {
				t.Fatalf("WorldToDesktop(%v): %v", w, err)
			}
			if math.Abs(x-p[0]) > 1 || math.Abs(y-p[1]) > 1 {
				t.Errorf("round trip %v at depth %v = (%v, %v)", p, depth, x, y)
			}
		}
	}
}

func TestTransform_BehindCamera(t *testing.T) {
	tr := testTransform()
	_, _, err := tr.WorldToDesktop(Vec3{Y: 1, Z: -10})
	if !errors.Is(err, ErrBehindCamera) {
		t.Fatalf("expected ErrBehindCamera, got %v", err)
	}
}

func TestTransform_NoClientRect(t *testing.T) {
	tr := testTransform()
	tr.Client = Rect{}
	_, _, err := tr.WorldToDesktop(Vec3{Y: 1})
	if !errors.Is(err, ErrNoClientRect) {
		t.Fatalf("expected ErrNoClientRect, got %v", err)
	}
	tr = Transform{Client: Rect{Width: 10, Height: 10}}
	if _, _, err := tr.WorldToDesktop(Vec3{}); !errors.Is(err, ErrNoCamera) {
		t.Fatalf("expected ErrNoCamera, got %v", err)
	}
}

func TestTransform_CameraCenterMapsToClientCenter(t *testing.T) {
	tr := testTransform()
	x, y, err := tr.WorldToDesktop(Vec3{Y: 1, Z: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(x-900) > 1e-6 || math.Abs(y-700) > 1e-6 {
		t.Fatalf("expected (900, 700), got (%v, %v)", x, y)
	}
	// Higher in the world is smaller desktop Y.
	_, yUp, _ := tr.WorldToDesktop(Vec3{Y: 1.5, Z: 3})
	if yUp >= y {
		t.Fatalf("expected higher world point above center, got y=%v", yUp)
	}
}

func TestTransform_DesktopRectToCameraLiesOnDepthPlane(t *testing.T) {
	tr := testTransform()
	quad, err := tr.DesktopRectToCamera(Rect{X: 100, Y: 100, Width: 800, Height: 600}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range quad {
		if math.Abs(c.Z-2) > 1e-9 {
			t.Errorf("corner %d depth = %v, want 2", i, c.Z)
		}
	}
	// bottom-left is below top-left, top-right is right of top-left
	if quad[0].Y >= quad[1].Y || quad[2].X <= quad[1].X {
		t.Fatalf("unexpected corner order: %+v", quad)
	}
}

func TestMat4_InverseOfTRS(t *testing.T) {
	m := TRS(Vec3{X: 1, Y: -2, Z: 3}, 30, Vec3{X: 2, Y: 2, Z: 2})
	inv, ok := m.Inverse()
	if !ok {
		t.Fatalf("expected invertible matrix")
	}
	p := Vec3{X: 0.3, Y: 4, Z: -1}
	back := inv.MulPoint(m.MulPoint(p))
	if back.Sub(p).Len() > 1e-9 {
		t.Fatalf("inverse round trip = %+v, want %+v", back, p)
	}
	if s := m.AxisScale(); math.Abs(s.Y-2) > 1e-9 {
		t.Fatalf("axis scale Y = %v, want 2", s.Y)
	}
}

func TestRect_Intersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"overlap", Rect{0, 0, 100, 100}, Rect{50, 50, 100, 100}, Rect{50, 50, 50, 50}},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 10, 10}, Rect{}},
		{"touching edge", Rect{0, 0, 10, 10}, Rect{10, 0, 10, 10}, Rect{}},
		{"contained", Rect{0, 0, 100, 100}, Rect{10, 10, 5, 5}, Rect{10, 10, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.want {
				t.Errorf("Intersect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFullscreenEquivalent(t *testing.T) {
	monitors := []Rect{{0, 0, 1920, 1080}, {1920, 0, 2560, 1440}}
	if !FullscreenEquivalent(Rect{1920, 0, 2561, 1439}, monitors) {
		t.Errorf("expected full-screen on second monitor")
	}
	if FullscreenEquivalent(Rect{0, 0, 1920, 1040}, monitors) {
		t.Errorf("work-area sized window is not full-screen")
	}
	if got := VirtualScreen(monitors); got != (Rect{0, 0, 4480, 1440}) {
		t.Errorf("VirtualScreen = %v", got)
	}
}
