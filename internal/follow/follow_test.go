package follow

import (
	"math"
	"testing"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/geom"
)

func TestSmoothDamp_NeverOvershoots(t *testing.T) {
	tests := []struct {
		name          string
		from, to      float64
		smooth, speed float64
	}{
		{"down", 0, 500, 0.12, 6000},
		{"up", 500, -20, 0.12, 6000},
		{"slow cap", 0, 1000, 0.3, 200},
		{"tiny time", 0, 50, 0.01, 6000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, vel := tt.from, 0.0
			for i := 0; i < 600; i++ {
				next := SmoothDamp(cur, tt.to, &vel, tt.smooth, tt.speed, 1.0/60)
				if tt.to > tt.from && next > tt.to+1e-9 {
					t.Fatalf("overshot: %v > %v", next, tt.to)
				}
				if tt.to < tt.from && next < tt.to-1e-9 {
					t.Fatalf("overshot: %v < %v", next, tt.to)
				}
				if math.Abs(next-cur) > tt.speed/60+1e-6 {
					t.Fatalf("step %v exceeds max speed", next-cur)
				}
				cur = next
			}
			if math.Abs(cur-tt.to) > 1 {
				t.Fatalf("did not converge: %v", cur)
			}
		})
	}
}

func TestSmoothDamp_ZeroDt(t *testing.T) {
	vel := 3.0
	if got := SmoothDamp(10, 20, &vel, 0.12, 6000, 0); got != 10 {
		t.Fatalf("got %v", got)
	}
}

func goal() Goal {
	return Goal{Target: geom.Rect{X: 0, Y: 50, Width: 800, Height: 400}, Fraction: 0.5}
}

func TestStep_OneShotMovesFullDelta(t *testing.T) {
	f := New(config.DefaultConfig().Smoothing)
	f.Restart()
	host := geom.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	// seat at (500, 300), target point (400, 50)
	x, y, move := f.Step(host, 500, 300, goal(), false, true, 1.0/60)
	if !move || x != 0 || y != -150 {
		t.Fatalf("Step = %d,%d,%v", x, y, move)
	}
}

func TestStep_SmoothsThenSettles(t *testing.T) {
	f := New(config.DefaultConfig().Smoothing)
	f.Restart()
	host := geom.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	seatX, seatY := 500.0, 300.0
	var frames int
	for frames = 0; frames < 300 && f.Active(); frames++ {
		x, y, move := f.Step(host, seatX, seatY, goal(), false, false, 1.0/60)
		if !move {
			continue
		}
		seatX += float64(x - host.X)
		seatY += float64(y - host.Y)
		host.X, host.Y = x, y
	}
	if f.Active() {
		t.Fatalf("expected approach to settle")
	}
	if frames < 2 {
		t.Fatalf("expected a smoothed approach, settled in %d frames", frames)
	}
	if host.X != 0 || host.Y != -150 {
		t.Fatalf("host = %+v", host)
	}
}

func TestStep_TargetJumpCancelsSmoothing(t *testing.T) {
	f := New(config.DefaultConfig().Smoothing)
	f.Restart()
	host := geom.Rect{X: 100, Y: 100, Width: 800, Height: 600}
	g := goal()
	f.Step(host, 500, 300, g, false, false, 1.0/60)
	if !f.Active() {
		t.Fatalf("expected smoothing to continue")
	}
	g.Target.X += 40
	x, y, _ := f.Step(host, 500, 300, g, false, false, 1.0/60)
	if f.Active() {
		t.Fatalf("expected smoothing cancelled")
	}
	if x != 40 || y != -150 {
		t.Fatalf("expected direct placement, got %d,%d", x, y)
	}
}

func TestStep_DisabledIsDirect(t *testing.T) {
	cfg := config.DefaultConfig().Smoothing
	cfg.Enabled = false
	f := New(cfg)
	f.Restart()
	host := geom.Rect{X: 100, Y: 100}
	x, y, move := f.Step(host, 500, 300, goal(), false, false, 1.0/60)
	if !move || x != 0 || y != -150 {
		t.Fatalf("Step = %d,%d,%v", x, y, move)
	}
	if _, _, move := f.Step(geom.Rect{X: 0, Y: -150}, 400, 50, goal(), false, false, 1.0/60); move {
		t.Fatalf("already in place, expected no move")
	}
}

func TestStep_DraggingKeepsSeatAboveEdge(t *testing.T) {
	cfg := config.DefaultConfig().Smoothing
	cfg.Time = 0.5
	f := New(cfg)
	f.Restart()
	// seat 10px below the edge; smoothing alone would leave it sunk
	host := geom.Rect{X: 0, Y: 0}
	g := Goal{Target: geom.Rect{X: 0, Y: 100, Width: 800, Height: 400}, Fraction: 0.5}
	_, y, move := f.Step(host, 400, 110, g, true, false, 1.0/60)
	if !move {
		t.Fatalf("expected a move")
	}
	if seat := 110 + y; seat > 100+SettlePx {
		t.Fatalf("seat left at %d, want within %d px of the edge", seat, SettlePx)
	}
}
