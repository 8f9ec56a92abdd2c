package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/perch/internal/geom"
)

// MemoryWindow is one window held by a MemoryBackend.
type MemoryWindow struct {
	Info  WindowInfo
	State WindowState
	// Insets shrink Bounds to the client area (left, top, right, bottom).
	Insets [4]int
}

// MemoryBackend is an in-process window system. It backs the scenario
// simulator and tests.
type MemoryBackend struct {
	mu       sync.Mutex
	order    []WindowID // top-most first
	windows  map[WindowID]*MemoryWindow
	monitors []geom.Rect
	host     WindowID
	pid      int
	cursorX  int
	cursorY  int
	topMost  bool

	// Moves counts Move calls on the host window.
	Moves int
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a backend whose host window belongs to pid.
func NewMemoryBackend(pid int, monitors ...geom.Rect) *MemoryBackend {
	if len(monitors) == 0 {
		monitors = []geom.Rect{{Width: 1920, Height: 1080}}
	}
	return &MemoryBackend{
		windows:  make(map[WindowID]*MemoryWindow),
		monitors: monitors,
		pid:      pid,
	}
}

// SetHost registers the host overlay window, placing it top-most.
func (b *MemoryBackend) SetHost(w MemoryWindow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w.Info.PID == 0 {
		w.Info.PID = b.pid
	}
	w.Info.Visible = true
	b.host = w.Info.ID
	b.insertLocked(w, 0)
}

// Push adds a window directly below the current bottom of the stack.
func (b *MemoryBackend) Push(w MemoryWindow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insertLocked(w, len(b.order))
}

// Insert adds a window at z-index pos (0 is top-most).
func (b *MemoryBackend) Insert(w MemoryWindow, pos int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insertLocked(w, pos)
}

func (b *MemoryBackend) insertLocked(w MemoryWindow, pos int) {
	b.removeLocked(w.Info.ID)
	pos = max(0, min(pos, len(b.order)))
	cp := w
	b.windows[w.Info.ID] = &cp
	b.order = append(b.order, 0)
	copy(b.order[pos+1:], b.order[pos:])
	b.order[pos] = w.Info.ID
}

// Remove destroys a window.
func (b *MemoryBackend) Remove(id WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(id)
}

func (b *MemoryBackend) removeLocked(id WindowID) {
	if _, ok := b.windows[id]; !ok {
		return
	}
	delete(b.windows, id)
	for i, o := range b.order {
		if o == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Raise moves a window to z-index pos (0 is top-most).
func (b *MemoryBackend) Raise(id WindowID, pos int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	if !ok {
		return fmt.Errorf("raise %d: %w", id, ErrWindowGone)
	}
	b.insertLocked(*w, pos)
	return nil
}

// SetBounds moves or resizes a window.
func (b *MemoryBackend) SetBounds(id WindowID, r geom.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	if !ok {
		return fmt.Errorf("set bounds %d: %w", id, ErrWindowGone)
	}
	w.Info.Bounds = r
	return nil
}

// SetState replaces a window's visibility state.
func (b *MemoryBackend) SetState(id WindowID, s WindowState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	if !ok {
		return fmt.Errorf("set state %d: %w", id, ErrWindowGone)
	}
	w.State = s
	return nil
}

// SetCursor sets the pointer position in desktop pixels.
func (b *MemoryBackend) SetCursor(x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursorX, b.cursorY = x, y
}

// TopMost reports the last SetTopMost value for the host.
func (b *MemoryBackend) TopMost() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.topMost
}

func (b *MemoryBackend) Windows() ([]WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]WindowID, len(b.order))
	copy(out, b.order)
	return out, nil
}

func (b *MemoryBackend) lookup(id WindowID) (*MemoryWindow, error) {
	w, ok := b.windows[id]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", id, ErrWindowGone)
	}
	return w, nil
}

func (b *MemoryBackend) Info(id WindowID) (WindowInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return WindowInfo{}, err
	}
	return w.Info, nil
}

func (b *MemoryBackend) Rect(id WindowID) (geom.Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return geom.Rect{}, err
	}
	return w.Info.Bounds, nil
}

func (b *MemoryBackend) ClientRect(id WindowID) (geom.Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return geom.Rect{}, err
	}
	r := w.Info.Bounds
	return geom.RectFromEdges(
		r.Left()+w.Insets[0],
		r.Top()+w.Insets[1],
		r.Right()-w.Insets[2],
		r.Bottom()-w.Insets[3],
	), nil
}

func (b *MemoryBackend) State(id WindowID) (WindowState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return WindowState{}, err
	}
	return w.State, nil
}

func (b *MemoryBackend) Predecessor(id WindowID) (WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, o := range b.order {
		if o != id {
			continue
		}
		if i == 0 {
			return 0, nil
		}
		return b.order[i-1], nil
	}
	return 0, fmt.Errorf("predecessor of %d: %w", id, ErrWindowGone)
}

func (b *MemoryBackend) Monitors() ([]geom.Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]geom.Rect, len(b.monitors))
	copy(out, b.monitors)
	return out, nil
}

func (b *MemoryBackend) Cursor() (int, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursorX, b.cursorY, nil
}

func (b *MemoryBackend) Move(id WindowID, x, y int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup(id)
	if err != nil {
		return err
	}
	w.Info.Bounds.X, w.Info.Bounds.Y = x, y
	if id == b.host {
		b.Moves++
	}
	return nil
}

func (b *MemoryBackend) SetTopMost(id WindowID, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == b.host {
		b.topMost = on
	}
	return nil
}

func (b *MemoryBackend) Host() WindowID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.host
}

func (b *MemoryBackend) ProcessID() int { return b.pid }
