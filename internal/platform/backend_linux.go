//go:build linux

package platform

import (
	"fmt"
	"os"

	"github.com/1broseidon/perch/internal/geom"
	"github.com/1broseidon/perch/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// LinuxBackend implements Backend on top of an X11 connection.
type LinuxBackend struct {
	conn *x11.Connection
	host WindowID
	pid  int
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a backend from an existing X11 connection. host is
// the overlay's X window, or 0 when only inspecting other windows.
func NewLinuxBackend(conn *x11.Connection, host WindowID) *LinuxBackend {
	return &LinuxBackend{conn: conn, host: host, pid: os.Getpid()}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection.
func NewLinuxBackendFromDisplay(host WindowID) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, host), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Connection exposes the X11 connection for hotkey registration.
func (b *LinuxBackend) Connection() *x11.Connection { return b.conn }

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func (b *LinuxBackend) Windows() ([]WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	stack, err := conn.StackingOrder()
	if err != nil {
		return nil, err
	}
	out := make([]WindowID, 0, len(stack))
	for _, w := range stack {
		out = append(out, WindowID(w))
	}
	return out, nil
}

func (b *LinuxBackend) Info(id WindowID) (WindowInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return WindowInfo{}, err
	}
	win := xproto.Window(id)
	bounds, err := b.Rect(id)
	if err != nil {
		return WindowInfo{}, err
	}

	info := WindowInfo{
		ID:      id,
		PID:     conn.PID(win),
		Class:   conn.Class(win),
		Title:   conn.Title(win),
		Bounds:  bounds,
		Visible: true,
	}

	_, _, top, _ := conn.GetFrameExtents(win)
	info.Style.Caption = top > 0
	info.Style.Owned = conn.IsTransient(win)
	info.Style.NoActivate = !conn.AcceptsFocus(win)
	if alpha, ok := conn.Opacity(win); ok {
		// A compositor opacity hint is the X11 analogue of a layered window.
		info.Style.Layered = true
		info.Style.HasAlpha = true
		info.Style.Alpha = alpha
	}
	for _, t := range conn.WindowTypes(win) {
		switch t {
		case "_NET_WM_WINDOW_TYPE_DOCK":
			info.Style.Dock = true
		case "_NET_WM_WINDOW_TYPE_UTILITY", "_NET_WM_WINDOW_TYPE_TOOLBAR",
			"_NET_WM_WINDOW_TYPE_TOOLTIP", "_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU", "_NET_WM_WINDOW_TYPE_POPUP_MENU":
			info.Style.ToolWindow = true
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			info.Visible = false
		}
	}
	return info, nil
}

func (b *LinuxBackend) Rect(id WindowID) (geom.Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return geom.Rect{}, err
	}
	x, y, w, h, err := conn.FrameGeometry(xproto.Window(id))
	if err != nil {
		return geom.Rect{}, fmt.Errorf("window %d: %w", id, ErrWindowGone)
	}
	return geom.Rect{X: x, Y: y, Width: w, Height: h}, nil
}

func (b *LinuxBackend) ClientRect(id WindowID) (geom.Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return geom.Rect{}, err
	}
	x, y, w, h, err := conn.ClientGeometry(xproto.Window(id))
	if err != nil {
		return geom.Rect{}, fmt.Errorf("window %d: %w", id, ErrWindowGone)
	}
	return geom.Rect{X: x, Y: y, Width: w, Height: h}, nil
}

func (b *LinuxBackend) State(id WindowID) (WindowState, error) {
	conn, err := b.connection()
	if err != nil {
		return WindowState{}, err
	}
	win := xproto.Window(id)
	if _, err := b.Rect(id); err != nil {
		return WindowState{}, err
	}
	// Windows without _NET_WM_STATE are simply normal.
	ws, _ := conn.States(win)
	return WindowState{
		Iconic:     ws.Hidden,
		Cloaked:    conn.OnOtherDesktop(win),
		Maximized:  ws.MaxHorz && ws.MaxVert,
		Fullscreen: ws.Fullscreen,
	}, nil
}

func (b *LinuxBackend) Predecessor(id WindowID) (WindowID, error) {
	stack, err := b.Windows()
	if err != nil {
		return 0, err
	}
	for i, w := range stack {
		if w != id {
			continue
		}
		if i == 0 {
			return 0, nil
		}
		return stack[i-1], nil
	}
	return 0, fmt.Errorf("predecessor of %d: %w", id, ErrWindowGone)
}

func (b *LinuxBackend) Monitors() ([]geom.Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	return conn.Monitors()
}

func (b *LinuxBackend) Cursor() (int, int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, 0, err
	}
	return conn.Pointer()
}

func (b *LinuxBackend) Move(id WindowID, x, y int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveWindow(xproto.Window(id), x, y)
}

func (b *LinuxBackend) SetTopMost(id WindowID, on bool) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetAbove(xproto.Window(id), on)
}

func (b *LinuxBackend) Host() WindowID { return b.host }
func (b *LinuxBackend) ProcessID() int { return b.pid }
