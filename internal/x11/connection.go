// Package x11 wraps the X11/EWMH queries the window directory needs.
package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	keybindOnce sync.Once
	randrOnce   sync.Once
	randrErr    error
}

// NewConnection establishes a connection to the X11 server
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// EWMH and RandR extensions are initialized lazily by the callers
	return &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}, nil
}

// EnableKeybindings loads the keyboard mapping needed for global hotkeys.
func (c *Connection) EnableKeybindings() {
	c.keybindOnce.Do(func() { keybind.Initialize(c.XUtil) })
}

// EventLoop runs the X11 event loop until Quit or Close (blocking).
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit asks EventLoop to return after the next event.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
