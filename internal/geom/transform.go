package geom

import (
	"errors"
	"math"
)

var (
	// ErrBehindCamera is returned when a point projects behind the camera.
	ErrBehindCamera = errors.New("point is behind the camera")
	// ErrNoClientRect is returned when the host client rectangle is unknown.
	ErrNoClientRect = errors.New("host client rectangle unavailable")
	// ErrNoCamera is returned when no camera is attached.
	ErrNoCamera = errors.New("camera unavailable")
)

// MinDepth is the smallest camera depth considered in front of the camera.
const MinDepth = 0.01

// Transform converts between world points and desktop pixels for one host
// window. Client is the drawable client area of the host in desktop pixels;
// decorations are not part of it. The render surface may have a different
// pixel size than Client (DPI scaling, letterboxing).
type Transform struct {
	Camera Camera
	Client Rect
}

func (t Transform) check() error {
	if t.Camera == nil {
		return ErrNoCamera
	}
	if t.Client.Empty() {
		return ErrNoClientRect
	}
	return nil
}

// scale returns desktop pixels per render pixel on each axis.
func (t Transform) scale() (sx, sy float64, w, h float64) {
	pw, ph := t.Camera.PixelSize()
	w = float64(max(1, pw))
	h = float64(max(1, ph))
	sx = float64(max(1, t.Client.Width)) / w
	sy = float64(max(1, t.Client.Height)) / h
	return sx, sy, w, h
}

// WorldToDesktop projects a world point to desktop pixels. Screen
// coordinates are clamped to the render surface first.
func (t Transform) WorldToDesktop(p Vec3) (x, y float64, err error) {
	if err := t.check(); err != nil {
		return 0, 0, err
	}
	sp := t.Camera.WorldToScreen(p)
	if sp.Z < MinDepth {
		return 0, 0, ErrBehindCamera
	}
	sx, sy, w, h := t.scale()
	x = float64(t.Client.X) + Clamp(sp.X, 0, w)*sx
	y = float64(t.Client.Y) + (h-Clamp(sp.Y, 0, h))*sy
	return x, y, nil
}

// DesktopToScreen maps desktop pixels to render-surface pixels.
func (t Transform) DesktopToScreen(x, y float64) (sx, sy float64, err error) {
	if err := t.check(); err != nil {
		return 0, 0, err
	}
	kx, ky, _, h := t.scale()
	sx = (x - float64(t.Client.X)) / kx
	sy = h - (y-float64(t.Client.Y))/ky
	return sx, sy, nil
}

// DesktopToWorld casts the camera ray through desktop pixel (x, y) and
// returns the point at the given camera depth.
func (t Transform) DesktopToWorld(x, y, depth float64) (Vec3, error) {
	if depth < MinDepth {
		return Vec3{}, ErrBehindCamera
	}
	sx, sy, err := t.DesktopToScreen(x, y)
	if err != nil {
		return Vec3{}, err
	}
	return t.Camera.ScreenToWorld(Vec3{X: sx, Y: sy, Z: depth}), nil
}

// DesktopRectToCamera maps the four corners of a desktop rectangle onto the
// plane at the given depth, expressed in the camera's local frame. Corner
// order is bottom-left, top-left, top-right, bottom-right.
func (t Transform) DesktopRectToCamera(r Rect, depth float64) ([4]Vec3, error) {
	var out [4]Vec3
	if depth < MinDepth {
		return out, ErrBehindCamera
	}
	if err := t.check(); err != nil {
		return out, err
	}
	corners := [4][2]float64{
		{float64(r.Left()), float64(r.Bottom())},
		{float64(r.Left()), float64(r.Top())},
		{float64(r.Right()), float64(r.Top())},
		{float64(r.Right()), float64(r.Bottom())},
	}
	for i, c := range corners {
		w, err := t.DesktopToWorld(c[0], c[1], depth)
		if err != nil {
			return out, err
		}
		out[i] = t.Camera.WorldToCamera(w)
	}
	return out, nil
}

// RoundPx rounds half away from zero.
func RoundPx(v float64) int { return int(math.Round(v)) }
