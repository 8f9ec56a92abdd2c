package daemon

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/google/uuid"
)

func TestDragDetector(t *testing.T) {
	t0 := time.Unix(100, 0)
	at := func(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

	var d DragDetector
	if d.Observe(at(0), 10, 10) {
		t.Fatal("first observation must only set the baseline")
	}
	if d.Observe(at(16), 10, 10) {
		t.Fatal("no motion is not a drag")
	}
	if !d.Observe(at(32), 14, 10) {
		t.Fatal("external motion should start a drag")
	}
	if !d.Observe(at(150), 14, 10) {
		t.Fatal("drag should survive a pause shorter than the grace")
	}
	if d.Observe(at(300), 14, 10) {
		t.Fatal("drag should end after the grace")
	}

	d.Commanded(40, 12)
	if d.Observe(at(316), 40, 12) {
		t.Fatal("a commanded move is not a drag")
	}
	if !d.Observe(at(332), 41, 12) {
		t.Fatal("motion after a commanded move is external")
	}

	d.Reset()
	if d.Observe(at(400), 0, 0) {
		t.Fatal("reset should drop the baseline")
	}
}

type fixture struct {
	t   *testing.T
	b   *platform.MemoryBackend
	d   *Daemon
	now time.Time
}

// newFixture mirrors the dock tests: the host sits at (100,100) and the
// character's hips project just below the top of window 10.
func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	b := platform.NewMemoryBackend(42)
	b.SetHost(platform.MemoryWindow{Info: platform.WindowInfo{ID: 1, Bounds: geom.Rect{X: 100, Y: 100, Width: 800, Height: 600}}})
	b.Push(platform.MemoryWindow{Info: platform.WindowInfo{
		ID: 10, PID: 710, Class: "Editor", Title: "Editor",
		Bounds: geom.Rect{X: 200, Y: 410, Width: 800, Height: 300}, Visible: true,
		Style: platform.Style{Caption: true},
	}})
	opts.Backend = b
	opts.Seed = 7
	f := &fixture{t: t, b: b, d: New(opts), now: time.Unix(5000, 0)}
	f.step(0)
	return f
}

func (f *fixture) step(after time.Duration) {
	f.t.Helper()
	f.now = f.now.Add(after)
	if err := f.d.Step(f.now); err != nil {
		f.t.Fatalf("Step: %v", err)
	}
}

// drag moves the host the way a window manager drag would.
func (f *fixture) drag(x, y, cx, cy int, after time.Duration) {
	f.t.Helper()
	if err := f.b.SetBounds(1, geom.Rect{X: x, Y: y, Width: 800, Height: 600}); err != nil {
		f.t.Fatalf("set bounds: %v", err)
	}
	f.b.SetCursor(cx, cy)
	f.step(after)
}

func (f *fixture) snap() {
	f.t.Helper()
	f.drag(101, 100, 500, 500, 16*time.Millisecond)
	if got := f.d.Status().Phase; got != "armed" {
		f.t.Fatalf("setup: phase %q after first drag frame, want armed", got)
	}
	f.drag(102, 100, 510, 500, time.Second)
	if st := f.d.Status(); !st.WindowSit || st.Target != 10 {
		f.t.Fatalf("setup: expected sit on 10, got %+v", st)
	}
}

func TestDaemon_SnapsWhileDraggedAndHolds(t *testing.T) {
	f := newFixture(t, Options{})
	f.snap()

	// drag ends; our own follow moves must not restart it
	for i := 0; i < 30; i++ {
		f.step(16 * time.Millisecond)
	}
	st := f.d.Status()
	if st.Phase != "snapped" || !st.WindowSit || !st.Enabled || st.Host != 1 {
		t.Fatalf("status after drop = %+v", st)
	}
	if _, err := uuid.Parse(st.Instance); err != nil {
		t.Fatalf("instance %q is not a uuid: %v", st.Instance, err)
	}
}

func TestDaemon_ReleaseAndDisable(t *testing.T) {
	f := newFixture(t, Options{})
	f.snap()

	st := f.d.Release()
	if st.WindowSit || st.Phase == "snapped" {
		t.Fatalf("release left %+v", st)
	}

	st = f.d.SetEnabled(false)
	if st.Enabled {
		t.Fatalf("expected disabled, got %+v", st)
	}
	f.drag(103, 100, 520, 500, 16*time.Millisecond)
	f.drag(104, 100, 530, 500, time.Second)
	if f.d.Status().WindowSit {
		t.Fatal("snapped while disabled")
	}
}

func TestDaemon_Toggle(t *testing.T) {
	f := newFixture(t, Options{})
	if st := f.d.Toggle(); st.Enabled {
		t.Fatalf("first toggle should disable, got %+v", st)
	}
	if st := f.d.Toggle(); !st.Enabled {
		t.Fatalf("second toggle should enable, got %+v", st)
	}
}

func TestDaemon_ConcurrentTogglesAlternate(t *testing.T) {
	f := newFixture(t, Options{})
	const n = 64
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		disabled int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if st := f.d.Toggle(); !st.Enabled {
				mu.Lock()
				disabled++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if disabled != n/2 {
		t.Fatalf("%d of %d toggles disabled, want %d", disabled, n, n/2)
	}
	if !f.d.Status().Enabled {
		t.Fatal("an even number of toggles should leave sitting enabled")
	}
}

func TestDaemon_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("window_sit:\n  enabled: false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, Options{ConfigPath: path})
	if !f.d.Status().Enabled {
		t.Fatal("initial config should be the defaults")
	}
	st, err := f.d.Reload()
	if err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if st.Enabled {
		t.Fatalf("reloaded config not applied: %+v", st)
	}

	if err := os.WriteFile(path, []byte("window_sit: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.d.Reload(); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
	if f.d.Status().Enabled {
		t.Fatal("failed reload must keep the previous config")
	}
}

func TestDaemon_StepWithoutHost(t *testing.T) {
	f := newFixture(t, Options{})
	f.b.Remove(1)
	if err := f.d.Step(f.now.Add(time.Second)); err == nil {
		t.Fatal("expected an error once the host window is gone")
	}
}
