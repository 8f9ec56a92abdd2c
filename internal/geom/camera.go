package geom

import "math"

// Camera projects between world space and render-surface pixels.
//
// Screen coordinates have their origin at the bottom-left of the render
// surface; Z carries the camera-space depth of the point.
type Camera interface {
	WorldToScreen(p Vec3) Vec3
	ScreenToWorld(s Vec3) Vec3
	// WorldToCamera expresses a world point in the camera's local frame.
	WorldToCamera(p Vec3) Vec3
	PixelSize() (width, height int)
	NearClip() float64
}

// PerspectiveCamera is a pinhole camera with a vertical field of view.
type PerspectiveCamera struct {
	Position Vec3
	Forward  Vec3
	UpHint   Vec3
	FOVY     float64 // degrees
	Width    int
	Height   int
	Near     float64
}

var _ Camera = (*PerspectiveCamera)(nil)

// NewPerspectiveCamera returns a camera at pos looking along +Z.
func NewPerspectiveCamera(pos Vec3, fovY float64, width, height int) *PerspectiveCamera {
	return &PerspectiveCamera{
		Position: pos,
		Forward:  Vec3{Z: 1},
		UpHint:   Up,
		FOVY:     fovY,
		Width:    width,
		Height:   height,
		Near:     0.01,
	}
}

func (c *PerspectiveCamera) basis() (right, up, fwd Vec3) {
	fwd = c.Forward.Normalize()
	hint := c.UpHint
	if hint == (Vec3{}) {
		hint = Up
	}
	right = hint.Cross(fwd).Normalize()
	up = fwd.Cross(right)
	return right, up, fwd
}

func (c *PerspectiveCamera) extents() (tanHalf, aspect float64) {
	tanHalf = math.Tan(c.FOVY * math.Pi / 360)
	aspect = float64(max(1, c.Width)) / float64(max(1, c.Height))
	return tanHalf, aspect
}

func (c *PerspectiveCamera) WorldToCamera(p Vec3) Vec3 {
	r, u, f := c.basis()
	d := p.Sub(c.Position)
	return Vec3{X: d.Dot(r), Y: d.Dot(u), Z: d.Dot(f)}
}

func (c *PerspectiveCamera) WorldToScreen(p Vec3) Vec3 {
	cp := c.WorldToCamera(p)
	if math.Abs(cp.Z) < 1e-9 {
		return Vec3{Z: cp.Z}
	}
	tanHalf, aspect := c.extents()
	ndcX := cp.X / (cp.Z * tanHalf * aspect)
	ndcY := cp.Y / (cp.Z * tanHalf)
	return Vec3{
		X: (ndcX + 1) * 0.5 * float64(c.Width),
		Y: (ndcY + 1) * 0.5 * float64(c.Height),
		Z: cp.Z,
	}
}

func (c *PerspectiveCamera) ScreenToWorld(s Vec3) Vec3 {
	tanHalf, aspect := c.extents()
	ndcX := s.X/float64(max(1, c.Width))*2 - 1
	ndcY := s.Y/float64(max(1, c.Height))*2 - 1
	r, u, f := c.basis()
	return c.Position.
		Add(r.Scale(ndcX * s.Z * tanHalf * aspect)).
		Add(u.Scale(ndcY * s.Z * tanHalf)).
		Add(f.Scale(s.Z))
}

func (c *PerspectiveCamera) PixelSize() (int, int) { return c.Width, c.Height }
func (c *PerspectiveCamera) NearClip() float64     { return c.Near }
