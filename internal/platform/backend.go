package platform

import (
	"errors"

	"github.com/1broseidon/perch/internal/geom"
)

// ErrWindowGone is returned when a window handle no longer resolves.
var ErrWindowGone = errors.New("window no longer exists")

// WindowID is a platform-neutral window identifier.
type WindowID uint64

// Style carries the style bits used to decide whether a window is a real,
// opaque surface that the character can sit on or be hidden by.
type Style struct {
	Layered      bool
	ClickThrough bool
	ToolWindow   bool
	NoActivate   bool
	ColorKey     bool
	// HasAlpha reports whether Alpha is meaningful.
	HasAlpha bool
	Alpha    uint8
	Caption  bool
	// Owned is true for child, owned or transient windows.
	Owned bool
	// Dock is set for panels and taskbars the window system flags as such.
	Dock bool
}

// WindowInfo contains metadata and geometry for a top-level window.
type WindowInfo struct {
	ID      WindowID
	PID     int
	Class   string
	Title   string
	Bounds  geom.Rect
	Visible bool
	Style   Style
}

// WindowState is the visibility state of a window.
type WindowState struct {
	Iconic     bool
	Cloaked    bool
	Maximized  bool
	Fullscreen bool
}

// Backend abstracts the window-system queries the docking core needs.
//
// Windows returns top-level windows front-to-back (top-most first).
// Predecessor returns the window directly above id in z-order, or 0 when id
// is top-most. Any per-window query for a window that has disappeared returns
// an error wrapping ErrWindowGone.
type Backend interface {
	Windows() ([]WindowID, error)
	Info(id WindowID) (WindowInfo, error)
	Rect(id WindowID) (geom.Rect, error)
	ClientRect(id WindowID) (geom.Rect, error)
	State(id WindowID) (WindowState, error)
	Predecessor(id WindowID) (WindowID, error)
	Monitors() ([]geom.Rect, error)
	Cursor() (x, y int, err error)
	Move(id WindowID, x, y int) error
	SetTopMost(id WindowID, on bool) error
	// Host is the overlay window rendering the character.
	Host() WindowID
	// ProcessID is the PID that owns the host window.
	ProcessID() int
}
