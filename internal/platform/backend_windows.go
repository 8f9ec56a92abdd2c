//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"github.com/1broseidon/perch/internal/geom"
	"golang.org/x/sys/windows"
)

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procGetWindowRect              = user32.NewProc("GetWindowRect")
	procGetClientRect              = user32.NewProc("GetClientRect")
	procClientToScreen             = user32.NewProc("ClientToScreen")
	procGetWindowLongW             = user32.NewProc("GetWindowLongW")
	procGetLayeredWindowAttributes = user32.NewProc("GetLayeredWindowAttributes")
	procGetWindow                  = user32.NewProc("GetWindow")
	procGetParent                  = user32.NewProc("GetParent")
	procGetAncestor                = user32.NewProc("GetAncestor")
	procIsIconic                   = user32.NewProc("IsIconic")
	procGetWindowTextLengthW       = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW             = user32.NewProc("GetWindowTextW")
	procGetWindowPlacement         = user32.NewProc("GetWindowPlacement")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procGetCursorPos               = user32.NewProc("GetCursorPos")
	procEnumDisplayMonitors        = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW            = user32.NewProc("GetMonitorInfoW")
)

const (
	gwlStyle        = -16
	gwlExStyle      = -20
	gwHwndPrev      = 3
	gaRoot          = 2
	swMaximize      = 3
	wsCaption       = 0x00C00000
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExNoActivate  = 0x08000000
	lwaColorKey     = 0x00000001
	lwaAlpha        = 0x00000002
	swpNoSize       = 0x0001
	swpNoMove       = 0x0002
	swpNoZOrder     = 0x0004
	swpNoActivate   = 0x0010
)

var (
	hwndTopMost   = ^uintptr(0)     // HWND_TOPMOST (-1)
	hwndNoTopMost = ^uintptr(0) - 1 // HWND_NOTOPMOST (-2)
)

// point is the Win32 POINT layout.
type point struct{ X, Y int32 }

type windowPlacement struct {
	Length        uint32
	Flags         uint32
	ShowCmd       uint32
	PtMinPosition point
	PtMaxPosition point
	RcNormalPos   windows.Rect
}

type monitorInfo struct {
	CbSize    uint32
	RcMonitor windows.Rect
	RcWork    windows.Rect
	DwFlags   uint32
}

// WindowsBackend implements Backend with Win32 calls.
type WindowsBackend struct {
	host WindowID
	pid  int
}

var _ Backend = (*WindowsBackend)(nil)

// NewWindowsBackend creates a backend for the given host HWND (0 to inspect
// only).
func NewWindowsBackend(host WindowID) *WindowsBackend {
	return &WindowsBackend{host: host, pid: int(windows.GetCurrentProcessId())}
}

// windowLongIndex sign-extends a negative GWL_* index into a call argument.
func windowLongIndex(idx int32) uintptr { return uintptr(idx) }

func hwnd(id WindowID) windows.HWND { return windows.HWND(uintptr(id)) }

func rectFromWin(r windows.Rect) geom.Rect {
	return geom.RectFromEdges(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
}

func (b *WindowsBackend) Windows() ([]WindowID, error) {
	var out []WindowID
	cb := windows.NewCallback(func(h windows.HWND, _ uintptr) uintptr {
		out = append(out, WindowID(h))
		return 1
	})
	// EnumWindows walks top-level windows in z-order, top-most first.
	if err := windows.EnumWindows(cb, nil); err != nil {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}
	return out, nil
}

func (b *WindowsBackend) Info(id WindowID) (WindowInfo, error) {
	h := hwnd(id)
	if !windows.IsWindow(h) {
		return WindowInfo{}, fmt.Errorf("window %d: %w", id, ErrWindowGone)
	}
	bounds, err := b.Rect(id)
	if err != nil {
		return WindowInfo{}, err
	}
	var pid uint32
	_, _ = windows.GetWindowThreadProcessId(h, &pid)

	info := WindowInfo{
		ID:      id,
		PID:     int(pid),
		Class:   className(h),
		Title:   windowText(h),
		Bounds:  bounds,
		Visible: windows.IsWindowVisible(h),
	}

	style, _, _ := procGetWindowLongW.Call(uintptr(h), windowLongIndex(gwlStyle))
	ex, _, _ := procGetWindowLongW.Call(uintptr(h), windowLongIndex(gwlExStyle))
	info.Style.Caption = uint32(style)&wsCaption == wsCaption
	info.Style.Layered = uint32(ex)&wsExLayered != 0
	info.Style.ClickThrough = uint32(ex)&wsExTransparent != 0
	info.Style.ToolWindow = uint32(ex)&wsExToolWindow != 0
	info.Style.NoActivate = uint32(ex)&wsExNoActivate != 0
	if info.Style.Layered {
		var key uint32
		var alpha byte
		var flags uint32
		ok, _, _ := procGetLayeredWindowAttributes.Call(uintptr(h),
			uintptr(unsafe.Pointer(&key)), uintptr(unsafe.Pointer(&alpha)), uintptr(unsafe.Pointer(&flags)))
		if ok != 0 {
			info.Style.ColorKey = flags&lwaColorKey != 0
			if flags&lwaAlpha != 0 {
				info.Style.HasAlpha = true
				info.Style.Alpha = alpha
			}
		}
	}
	parent, _, _ := procGetParent.Call(uintptr(h))
	root, _, _ := procGetAncestor.Call(uintptr(h), gaRoot)
	info.Style.Owned = parent != 0 || root != uintptr(h)
	return info, nil
}

func className(h windows.HWND) string {
	buf := make([]uint16, 256)
	n, err := windows.GetClassName(h, &buf[0], int32(len(buf)))
	if err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func windowText(h windows.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(h))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf)
}

func (b *WindowsBackend) Rect(id WindowID) (geom.Rect, error) {
	var r windows.Rect
	ok, _, _ := procGetWindowRect.Call(uintptr(id), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return geom.Rect{}, fmt.Errorf("window %d: %w", id, ErrWindowGone)
	}
	return rectFromWin(r), nil
}

func (b *WindowsBackend) ClientRect(id WindowID) (geom.Rect, error) {
	var r windows.Rect
	ok, _, _ := procGetClientRect.Call(uintptr(id), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return geom.Rect{}, fmt.Errorf("client rect %d: %w", id, ErrWindowGone)
	}
	var p point
	ok, _, _ = procClientToScreen.Call(uintptr(id), uintptr(unsafe.Pointer(&p)))
	if ok == 0 {
		return geom.Rect{}, fmt.Errorf("client origin %d: %w", id, ErrWindowGone)
	}
	return geom.Rect{X: int(p.X), Y: int(p.Y), Width: int(r.Right), Height: int(r.Bottom)}, nil
}

func (b *WindowsBackend) State(id WindowID) (WindowState, error) {
	h := hwnd(id)
	if !windows.IsWindow(h) {
		return WindowState{}, fmt.Errorf("window %d: %w", id, ErrWindowGone)
	}
	var ws WindowState
	iconic, _, _ := procIsIconic.Call(uintptr(h))
	ws.Iconic = iconic != 0

	var cloaked uint32
	if err := windows.DwmGetWindowAttribute(h, windows.DWMWA_CLOAKED, unsafe.Pointer(&cloaked), uint32(unsafe.Sizeof(cloaked))); err == nil {
		ws.Cloaked = cloaked != 0
	}

	wp := windowPlacement{Length: uint32(unsafe.Sizeof(windowPlacement{}))}
	if ok, _, _ := procGetWindowPlacement.Call(uintptr(h), uintptr(unsafe.Pointer(&wp))); ok != 0 {
		ws.Maximized = wp.ShowCmd == swMaximize
	}
	if r, err := b.Rect(id); err == nil {
		if monitors, err := b.Monitors(); err == nil {
			ws.Fullscreen = geom.FullscreenEquivalent(r, monitors)
		}
	}
	return ws, nil
}

func (b *WindowsBackend) Predecessor(id WindowID) (WindowID, error) {
	if !windows.IsWindow(hwnd(id)) {
		return 0, fmt.Errorf("predecessor of %d: %w", id, ErrWindowGone)
	}
	prev, _, _ := procGetWindow.Call(uintptr(id), gwHwndPrev)
	return WindowID(prev), nil
}

func (b *WindowsBackend) Monitors() ([]geom.Rect, error) {
	var out []geom.Rect
	cb := windows.NewCallback(func(hMon, _ uintptr, _ *windows.Rect, _ uintptr) uintptr {
		mi := monitorInfo{CbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
		if ok, _, _ := procGetMonitorInfoW.Call(hMon, uintptr(unsafe.Pointer(&mi))); ok != 0 {
			out = append(out, rectFromWin(mi.RcMonitor))
		}
		return 1
	})
	ok, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ok == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return out, nil
}

func (b *WindowsBackend) Cursor() (int, int, error) {
	var p point
	ok, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if ok == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos: %w", err)
	}
	return int(p.X), int(p.Y), nil
}

func (b *WindowsBackend) Move(id WindowID, x, y int) error {
	ok, _, err := procSetWindowPos.Call(uintptr(id), 0, uintptr(x), uintptr(y), 0, 0,
		swpNoSize|swpNoZOrder|swpNoActivate)
	if ok == 0 {
		return fmt.Errorf("move window %d: %w", id, err)
	}
	return nil
}

func (b *WindowsBackend) SetTopMost(id WindowID, on bool) error {
	after := hwndNoTopMost
	if on {
		after = hwndTopMost
	}
	ok, _, err := procSetWindowPos.Call(uintptr(id), after, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoActivate)
	if ok == 0 {
		return fmt.Errorf("set top-most %d: %w", id, err)
	}
	return nil
}

func (b *WindowsBackend) Host() WindowID { return b.host }
func (b *WindowsBackend) ProcessID() int { return b.pid }
