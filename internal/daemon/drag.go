package daemon

import (
	"time"

	"github.com/1broseidon/perch/internal/platform"
)

// DefaultDragGrace is how long a drag stays active after the last external
// host move.
const DefaultDragGrace = 200 * time.Millisecond

// DragDetector infers a user drag from host window motion that perch did
// not command itself. It only sees positions, so a drag that pauses longer
// than Grace ends.
type DragDetector struct {
	Grace time.Duration

	seen      bool
	lastX     int
	lastY     int
	lastMove  time.Time
	dragging  bool
	commanded []point
}

type point struct{ x, y int }

// Observe records the host position for this frame and reports whether a
// drag is in progress.
func (d *DragDetector) Observe(now time.Time, x, y int) bool {
	grace := d.Grace
	if grace <= 0 {
		grace = DefaultDragGrace
	}
	if !d.seen {
		d.seen = true
		d.lastX, d.lastY = x, y
		return false
	}
	if (x != d.lastX || y != d.lastY) && !d.ours(x, y) {
		d.dragging = true
		d.lastMove = now
	}
	d.commanded = d.commanded[:0]
	d.lastX, d.lastY = x, y
	if d.dragging && now.Sub(d.lastMove) > grace {
		d.dragging = false
	}
	return d.dragging
}

// Commanded notes a move perch issued, so it is not mistaken for a drag.
func (d *DragDetector) Commanded(x, y int) {
	d.commanded = append(d.commanded, point{x, y})
}

// Reset forgets the baseline position.
func (d *DragDetector) Reset() {
	*d = DragDetector{Grace: d.Grace}
}

func (d *DragDetector) ours(x, y int) bool {
	for _, p := range d.commanded {
		if p.x == x && p.y == y {
			return true
		}
	}
	return false
}

// trackingBackend reports host moves issued through it to a DragDetector.
type trackingBackend struct {
	platform.Backend
	drag *DragDetector
	host platform.WindowID
}

func (b trackingBackend) Move(id platform.WindowID, x, y int) error {
	if err := b.Backend.Move(id, x, y); err != nil {
		return err
	}
	if id == b.host {
		b.drag.Commanded(x, y)
	}
	return nil
}
