package directory

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/platform"
)

// Class is the directory's verdict on a window.
type Class int

const (
	Excluded Class = iota
	Eligible
	Taskbar
)

func (c Class) String() string {
	switch c {
	case Eligible:
		return "eligible"
	case Taskbar:
		return "taskbar"
	default:
		return "excluded"
	}
}

// Classifier applies the configured window filters.
type Classifier struct {
	cfg config.Directory
}

func NewClassifier(cfg config.Directory) Classifier {
	return Classifier{cfg: cfg}
}

// Transparent reports whether a window draws nothing opaque the character
// could sit on or hide behind. Only layered windows qualify.
func (c Classifier) Transparent(info platform.WindowInfo) bool {
	s := info.Style
	if !s.Layered {
		return false
	}
	if c.cfg.IgnoreClickThrough && s.ClickThrough {
		return true
	}
	if c.cfg.IgnoreToolOrNoActivate && (s.ToolWindow || s.NoActivate) {
		return true
	}
	if c.cfg.IgnoreColorKey && s.ColorKey {
		return true
	}
	if s.HasAlpha && int(s.Alpha) <= c.cfg.LayeredAlphaIgnoreBelow {
		return true
	}
	if !s.Caption && utf8.RuneCountInString(info.Title) <= 1 {
		return true
	}
	if !s.Caption && c.overlayClass(info.Class) {
		return true
	}
	return false
}

// Overlay reports whether a window looks like another desktop mascot: a
// layered, translucent or non-interactive surface with no real caption.
func (c Classifier) Overlay(info platform.WindowInfo) bool {
	s := info.Style
	if !s.Layered {
		return false
	}
	translucent := (s.HasAlpha && s.Alpha < 255) || s.ColorKey
	if !(s.ToolWindow || s.NoActivate || s.ClickThrough || translucent) {
		return false
	}
	untitled := !s.Caption && utf8.RuneCountInString(info.Title) <= 1
	return untitled || c.overlayClass(info.Class)
}

func (c Classifier) overlayClass(class string) bool {
	return slices.Contains(c.cfg.OverlayClasses, class)
}

// TaskbarClass reports whether the class names a taskbar.
func (c Classifier) TaskbarClass(class string) bool {
	return slices.Contains(c.cfg.TaskbarClasses, class)
}

// IgnoredClass reports whether the class is a shell or desktop surface.
func (c Classifier) IgnoredClass(class string) bool {
	if class == "" {
		return false
	}
	if slices.Contains(c.cfg.IgnoredClasses, class) {
		return true
	}
	for _, p := range c.cfg.IgnoredClassPrefix {
		if p != "" && strings.HasPrefix(class, p) {
			return true
		}
	}
	for _, sub := range c.cfg.IgnoredClassContain {
		if sub != "" && strings.Contains(class, sub) {
			return true
		}
	}
	return false
}

// SitEligible reports whether a window can be sat on.
func (c Classifier) SitEligible(info platform.WindowInfo, state platform.WindowState) bool {
	if info.Style.Owned || state.Iconic || state.Cloaked {
		return false
	}
	if strings.TrimSpace(info.Title) == "" {
		return false
	}
	if info.Bounds.Width < c.cfg.MinWidth || info.Bounds.Height < c.cfg.MinHeight {
		return false
	}
	return !c.IgnoredClass(info.Class)
}

// Classify decides whether a window belongs in the snapshot. It does not
// consider process ownership; the directory filters the host process first.
func (c Classifier) Classify(info platform.WindowInfo, state platform.WindowState) Class {
	if !info.Visible || info.Bounds.Empty() {
		return Excluded
	}
	if c.Transparent(info) {
		return Excluded
	}
	if info.Style.Dock || c.TaskbarClass(info.Class) {
		return Taskbar
	}
	if c.Overlay(info) || !c.SitEligible(info, state) {
		return Excluded
	}
	return Eligible
}
