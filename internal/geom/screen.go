package geom

// FullscreenTolerance is how close, in pixels, a window must be to a monitor
// size on both axes to count as full-screen.
const FullscreenTolerance = 2

// VirtualScreen returns the bounding box of all monitors.
func VirtualScreen(monitors []Rect) Rect {
	var out Rect
	for _, m := range monitors {
		out = out.Union(m)
	}
	return out
}

// MonitorAt returns the monitor containing (x, y).
func MonitorAt(monitors []Rect, x, y float64) (Rect, bool) {
	for _, m := range monitors {
		if m.Contains(x, y) {
			return m, true
		}
	}
	return Rect{}, false
}

// FullscreenEquivalent reports whether r covers a whole monitor, within
// FullscreenTolerance, on the monitor holding its center.
func FullscreenEquivalent(r Rect, monitors []Rect) bool {
	cx := float64(r.X) + float64(r.Width)/2
	cy := float64(r.Y) + float64(r.Height)/2
	m, ok := MonitorAt(monitors, cx, cy)
	if !ok {
		return false
	}
	return abs(r.Width-m.Width) <= FullscreenTolerance &&
		abs(r.Height-m.Height) <= FullscreenTolerance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
