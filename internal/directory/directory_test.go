package directory

import (
	"testing"
	"time"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
)

const hostPID = 4242

func win(id platform.WindowID, title string, r geom.Rect) platform.MemoryWindow {
	return platform.MemoryWindow{Info: platform.WindowInfo{
		ID:      id,
		PID:     int(id) + 100,
		Class:   "Editor",
		Title:   title,
		Bounds:  r,
		Visible: true,
		Style:   platform.Style{Caption: true},
	}}
}

func newBackend() *platform.MemoryBackend {
	b := platform.NewMemoryBackend(hostPID)
	b.SetHost(platform.MemoryWindow{Info: platform.WindowInfo{
		ID: 1, Class: "UnityWndClass", Bounds: geom.Rect{X: 100, Y: 100, Width: 800, Height: 600},
	}})
	return b
}

func ids(s Snapshot) []platform.WindowID {
	var out []platform.WindowID
	for _, r := range s.Records {
		out = append(out, r.ID)
	}
	return out
}

func TestRefresh_Filters(t *testing.T) {
	b := newBackend()
	cfg := config.DefaultConfig().Directory

	b.Push(win(10, "Editor", geom.Rect{Y: 50, Width: 800, Height: 400}))

	small := win(11, "Tiny", geom.Rect{Width: 150, Height: 400})
	b.Push(small)

	untitled := win(12, "", geom.Rect{Width: 800, Height: 400})
	b.Push(untitled)

	owned := win(13, "Dialog", geom.Rect{Width: 800, Height: 400})
	owned.Info.Style.Owned = true
	b.Push(owned)

	minimized := win(14, "Minimized", geom.Rect{Width: 800, Height: 400})
	minimized.State.Iconic = true
	b.Push(minimized)

	desktop := win(15, "Program Manager", geom.Rect{Width: 1920, Height: 1080})
	desktop.Info.Class = "Progman"
	b.Push(desktop)

	sameProc := win(16, "Settings", geom.Rect{Width: 800, Height: 400})
	sameProc.Info.PID = hostPID
	b.Push(sameProc)

	ghost := win(17, "Overlay", geom.Rect{Width: 800, Height: 400})
	ghost.Info.Style = platform.Style{Layered: true, HasAlpha: true, Alpha: 100, Caption: true}
	b.Push(ghost)

	taskbar := win(18, "", geom.Rect{Y: 1040, Width: 1920, Height: 40})
	taskbar.Info.Class = "Shell_TrayWnd"
	b.Push(taskbar)

	dock := win(19, "", geom.Rect{Width: 1920, Height: 30})
	dock.Info.Style.Dock = true
	b.Push(dock)

	hashClass := win(20, "Popup", geom.Rect{Width: 800, Height: 400})
	hashClass.Info.Class = "#32770"
	b.Push(hashClass)

	hidden := win(21, "Hidden", geom.Rect{Width: 800, Height: 400})
	hidden.Info.Visible = false
	b.Push(hidden)

	d := New(b, cfg, nil)
	snap, err := d.Refresh(time.Unix(0, 0))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	got := ids(snap)
	want := []platform.WindowID{10, 18, 19}
	if len(got) != len(want) {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("records = %v, want %v", got, want)
		}
	}
	if r, _ := snap.Find(18); !r.IsTaskbar {
		t.Fatalf("expected 18 to be a taskbar")
	}
	if r, _ := snap.Find(10); r.IsTaskbar {
		t.Fatalf("10 is not a taskbar")
	}
	if len(snap.Monitors) != 1 {
		t.Fatalf("expected monitors in snapshot")
	}
}

func TestClassifier_Transparent(t *testing.T) {
	c := NewClassifier(config.DefaultConfig().Directory)
	tests := []struct {
		name string
		info platform.WindowInfo
		want bool
	}{
		{"opaque", platform.WindowInfo{Title: "A", Style: platform.Style{Caption: true}}, false},
		{"not layered ignores alpha", platform.WindowInfo{Title: "A", Style: platform.Style{HasAlpha: true, Alpha: 10, Caption: true}}, false},
		{"layered click-through", platform.WindowInfo{Title: "A", Style: platform.Style{Layered: true, ClickThrough: true, Caption: true}}, true},
		{"layered tool", platform.WindowInfo{Title: "A", Style: platform.Style{Layered: true, ToolWindow: true, Caption: true}}, true},
		{"layered colorkey", platform.WindowInfo{Title: "A", Style: platform.Style{Layered: true, ColorKey: true, Caption: true}}, true},
		{"layered alpha at threshold", platform.WindowInfo{Title: "A", Style: platform.Style{Layered: true, HasAlpha: true, Alpha: 230, Caption: true}}, true},
		{"layered alpha opaque", platform.WindowInfo{Title: "A", Style: platform.Style{Layered: true, HasAlpha: true, Alpha: 255, Caption: true}}, false},
		{"layered captionless untitled", platform.WindowInfo{Title: "x", Style: platform.Style{Layered: true}}, true},
		{"layered captionless overlay class", platform.WindowInfo{Title: "Mascot", Class: "UnityWndClass", Style: platform.Style{Layered: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Transparent(tt.info); got != tt.want {
				t.Fatalf("Transparent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifier_Overlay(t *testing.T) {
	c := NewClassifier(config.DefaultConfig().Directory)
	mascot := platform.WindowInfo{Style: platform.Style{Layered: true, NoActivate: true}}
	if !c.Overlay(mascot) {
		t.Fatalf("expected untitled no-activate layered window to be an overlay")
	}
	titled := platform.WindowInfo{Title: "Music", Style: platform.Style{Layered: true, NoActivate: true, Caption: true}}
	if c.Overlay(titled) {
		t.Fatalf("captioned window is not an overlay")
	}
	opaque := platform.WindowInfo{Style: platform.Style{Layered: true}}
	if c.Overlay(opaque) {
		t.Fatalf("opaque interactive layered window is not an overlay")
	}
}

func TestPoll_AdaptiveRate(t *testing.T) {
	b := newBackend()
	d := New(b, config.DefaultConfig().Directory, nil)
	start := time.Unix(100, 0)

	if _, refreshed := d.Poll(start, false); !refreshed {
		t.Fatalf("first poll must refresh")
	}
	if _, refreshed := d.Poll(start.Add(100*time.Millisecond), false); refreshed {
		t.Fatalf("idle poll before 1/8 s must not refresh")
	}
	if _, refreshed := d.Poll(start.Add(126*time.Millisecond), true); !refreshed {
		t.Fatalf("idle interval elapsed, expected refresh")
	}
	next := start.Add(126 * time.Millisecond)
	if _, refreshed := d.Poll(next.Add(60*time.Millisecond), true); refreshed {
		t.Fatalf("active poll before 1/15 s must not refresh")
	}
	if _, refreshed := d.Poll(next.Add(67*time.Millisecond), true); !refreshed {
		t.Fatalf("active interval elapsed, expected refresh")
	}
}

func TestInterval_FloorsAtOneHz(t *testing.T) {
	cfg := config.DefaultConfig().Directory
	cfg.IdleHz = 0.1
	d := New(newBackend(), cfg, nil)
	if got := d.Interval(false); got != time.Second {
		t.Fatalf("interval = %v, want 1s", got)
	}
	if got := d.Interval(true); got != time.Second/15 {
		t.Fatalf("interval = %v", got)
	}
}

func TestOccludedAt(t *testing.T) {
	b := newBackend()
	target := win(10, "Target", geom.Rect{Y: 50, Width: 800, Height: 400})

	cover := win(20, "Cover", geom.Rect{X: 300, Y: 0, Width: 200, Height: 200})
	ghost := win(21, "Ghost", geom.Rect{X: 0, Y: 0, Width: 200, Height: 200})
	ghost.Info.Style = platform.Style{Layered: true, HasAlpha: true, Alpha: 5, Caption: true}
	mine := win(22, "Own", geom.Rect{X: 600, Y: 0, Width: 200, Height: 200})
	mine.Info.PID = hostPID
	cloaked := win(23, "Elsewhere", geom.Rect{X: 600, Y: 0, Width: 200, Height: 200})
	cloaked.State.Cloaked = true
	below := win(24, "Below", geom.Rect{X: 0, Y: 0, Width: 1920, Height: 1080})

	b.Push(cover)
	b.Push(ghost)
	b.Push(mine)
	b.Push(cloaked)
	b.Push(target)
	b.Push(below)

	d := New(b, config.DefaultConfig().Directory, nil)
	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"under opaque window", 400, 50, true},
		{"on cover edge inclusive", 500, 50, true},
		{"under near-invisible window", 100, 50, false},
		{"under own process window", 700, 50, false},
		{"uncovered", 550, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.OccludedAt(10, tt.x, tt.y); got != tt.want {
				t.Fatalf("OccludedAt(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
	if d.OccludedAt(999, 400, 50) {
		t.Fatalf("missing target must not report occlusion")
	}
}

func TestIsAboveAndOccluders(t *testing.T) {
	b := newBackend()
	b.Push(win(10, "Top", geom.Rect{Width: 800, Height: 400}))
	b.Push(win(11, "Target", geom.Rect{Width: 800, Height: 400}))
	b.Push(win(12, "Bottom", geom.Rect{Width: 800, Height: 400}))
	tb := win(13, "", geom.Rect{Y: 1040, Width: 1920, Height: 40})
	tb.Info.Style.Dock = true
	b.Push(tb)

	d := New(b, config.DefaultConfig().Directory, nil)
	if !d.IsAbove(10, 11) || d.IsAbove(12, 11) || d.IsAbove(11, 11) {
		t.Fatalf("unexpected IsAbove results")
	}
	snap, err := d.Refresh(time.Unix(0, 0))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	occ := d.Occluders(snap, 11, 12)
	if len(occ) != 2 || occ[0].ID != 10 || occ[1].ID != 13 {
		t.Fatalf("occluders = %+v", occ)
	}
	if got := d.Occluders(snap, 11, 1); len(got) != 1 {
		t.Fatalf("limit not applied: %+v", got)
	}
}

// countingBackend counts z-order queries.
type countingBackend struct {
	*platform.MemoryBackend
	predecessors int
}

func (c *countingBackend) Predecessor(id platform.WindowID) (platform.WindowID, error) {
	c.predecessors++
	return c.MemoryBackend.Predecessor(id)
}

func TestOccluders_BoundedZOrderQueries(t *testing.T) {
	mem := newBackend()
	const stacked = 40
	for i := range stacked {
		mem.Push(win(platform.WindowID(100+i), "Editor", geom.Rect{Width: 800, Height: 400}))
	}
	target := platform.WindowID(100 + stacked - 1)
	b := &countingBackend{MemoryBackend: mem}

	d := New(b, config.DefaultConfig().Directory, nil)
	snap, err := d.Refresh(time.Unix(0, 0))
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	b.predecessors = 0
	occ := d.Occluders(snap, target, 12)
	if len(occ) != 12 || occ[0].ID != 100 {
		t.Fatalf("occluders = %+v", occ)
	}
	if b.predecessors != 0 {
		t.Fatalf("Occluders issued %d z-order queries for a snapshot target", b.predecessors)
	}

	// A target outside the snapshot costs one walk to the top: one query per
	// window above it, the host included, plus the one that finds the top.
	hidden := win(7, "", geom.Rect{Width: 800, Height: 400})
	mem.Push(hidden)
	b.predecessors = 0
	occ = d.Occluders(snap, 7, stacked)
	if len(occ) != stacked {
		t.Fatalf("occluders above hidden target = %d, want %d", len(occ), stacked)
	}
	if want := stacked + 2; b.predecessors > want {
		t.Fatalf("Occluders issued %d z-order queries, want at most %d", b.predecessors, want)
	}
}
