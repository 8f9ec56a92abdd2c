// Package hotkeys binds global key sequences to daemon actions on X11.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// ErrUnsupported is returned for backends without an X11 connection.
var ErrUnsupported = errors.New("global hotkeys need an X11 backend")

// Binding pairs a key sequence with its action.
type Binding struct {
	Name     string
	Sequence string
	Action   func()
}

// Actions are the daemon operations hotkeys can trigger.
type Actions struct {
	Toggle  func()
	Release func()
}

// Bindings returns the configured bindings, skipping empty sequences.
func Bindings(cfg config.Hotkeys, a Actions) []Binding {
	var out []Binding
	add := func(name, seq string, fn func()) {
		seq = strings.TrimSpace(seq)
		if seq == "" || fn == nil {
			return
		}
		out = append(out, Binding{Name: name, Sequence: seq, Action: fn})
	}
	add("toggle", cfg.Toggle, a.Toggle)
	add("release", cfg.Release, a.Release)
	return out
}

// x11Accessor is implemented by backends that expose their X11 connection.
type x11Accessor interface {
	Connection() *x11.Connection
}

// Handler manages global keyboard shortcuts
type Handler struct {
	conn   *x11.Connection
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on the backend's X11 connection.
func NewHandler(backend platform.Backend, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.Connection() == nil {
		return nil, ErrUnsupported
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	conn := accessor.Connection()
	conn.EnableKeybindings()
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{conn: conn, logger: logger}, nil
}

// Register grabs every binding. A failed grab is logged and skipped so one
// taken key does not disable the rest.
func (h *Handler) Register(bindings []Binding) int {
	n := 0
	for _, b := range bindings {
		if err := h.RegisterFunc(b.Sequence, b.Action); err != nil {
			h.logger.Warn("hotkeys: failed to register", "name", b.Name, "sequence", b.Sequence, "error", err)
			continue
		}
		h.logger.Info("hotkey registered", "name", b.Name, "sequence", b.Sequence)
		n++
	}
	return n
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	err := keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.conn.XUtil, h.conn.Root, keySequence, true)
	if err != nil {
		return fmt.Errorf("%s: %w", keySequence, err)
	}
	return nil
}

// Run dispatches key events until Stop. It blocks.
func (h *Handler) Run() {
	h.conn.EventLoop()
}

// Stop makes Run return after the next event.
func (h *Handler) Stop() {
	h.conn.Quit()
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}
	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns 0 plus every non-empty combination of base.
func ignoreMasks(base []uint16) []uint16 {
	out := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
