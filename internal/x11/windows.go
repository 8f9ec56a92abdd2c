package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowState is the parsed _NET_WM_STATE of a window.
type WindowState struct {
	Hidden     bool
	Fullscreen bool
	MaxHorz    bool
	MaxVert    bool
	Above      bool
}

// StackingOrder returns managed windows top-most first.
// _NET_CLIENT_LIST_STACKING is bottom-to-top, so the list is reversed.
func (c *Connection) StackingOrder() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get stacking list: %w", err)
	}
	out := make([]xproto.Window, len(clients))
	for i, w := range clients {
		out[len(clients)-1-i] = w
	}
	return out, nil
}

// ClientGeometry returns the client area of a window in root coordinates.
func (c *Connection) ClientGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// GetFrameExtents returns the window decoration sizes (if available)
func (c *Connection) GetFrameExtents(windowID xproto.Window) (left, right, top, bottom int) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, windowID)
	if err != nil {
		// No frame extents available, return zeros
		return 0, 0, 0, 0
	}

	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom)
}

// FrameGeometry returns the outer rectangle including decorations.
func (c *Connection) FrameGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	x, y, width, height, err = c.ClientGeometry(windowID)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	left, right, top, bottom := c.GetFrameExtents(windowID)
	return x - left, y - top, width + left + right, height + top + bottom, nil
}

// States returns the parsed _NET_WM_STATE list.
func (c *Connection) States(windowID xproto.Window) (WindowState, error) {
	var ws WindowState
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return ws, err
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_HIDDEN":
			ws.Hidden = true
		case "_NET_WM_STATE_FULLSCREEN":
			ws.Fullscreen = true
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			ws.MaxHorz = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			ws.MaxVert = true
		case "_NET_WM_STATE_ABOVE":
			ws.Above = true
		}
	}
	return ws, nil
}

// WindowTypes returns _NET_WM_WINDOW_TYPE, empty when unset.
func (c *Connection) WindowTypes(windowID xproto.Window) []string {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return types
}

// Opacity returns the compositor opacity hint scaled to 0-255.
func (c *Connection) Opacity(windowID xproto.Window) (uint8, bool) {
	v, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, windowID, "_NET_WM_WINDOW_OPACITY"))
	if err != nil {
		return 0, false
	}
	return uint8(uint32(v) >> 24), true
}

// AcceptsFocus reports the ICCCM input hint; windows without hints accept focus.
func (c *Connection) AcceptsFocus(windowID xproto.Window) bool {
	hints, err := icccm.WmHintsGet(c.XUtil, windowID)
	if err != nil || hints.Flags&icccm.HintInput == 0 {
		return true
	}
	return hints.Input != 0
}

// IsTransient reports whether WM_TRANSIENT_FOR is set.
func (c *Connection) IsTransient(windowID xproto.Window) bool {
	owner, err := icccm.WmTransientForGet(c.XUtil, windowID)
	return err == nil && owner != 0
}

// PID returns _NET_WM_PID or 0.
func (c *Connection) PID(windowID xproto.Window) int {
	p, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(p)
}

// Class returns the WM_CLASS class name.
func (c *Connection) Class(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// Title prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) Title(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// MoveWindow moves a window without resizing it.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	// Use EWMH move for better WM compatibility
	if err := ewmh.MoveWindow(c.XUtil, windowID, x, y); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).Move(x, y)
	}
	return nil
}

// SetAbove adds or removes _NET_WM_STATE_ABOVE.
func (c *Connection) SetAbove(windowID xproto.Window, on bool) error {
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, "_NET_WM_STATE_ABOVE")
}

// Pointer returns the pointer position on the root window.
func (c *Connection) Pointer() (int, int, error) {
	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}
