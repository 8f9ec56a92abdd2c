package geom

// Bounds is an axis-aligned box.
type Bounds struct {
	Min Vec3 `yaml:"min"`
	Max Vec3 `yaml:"max"`
}

// BoundsAt returns a box of the given size centered on c.
func BoundsAt(c, size Vec3) Bounds {
	h := size.Scale(0.5)
	return Bounds{Min: c.Sub(h), Max: c.Add(h)}
}

func (b Bounds) Size() Vec3   { return b.Max.Sub(b.Min) }
func (b Bounds) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Encapsulate grows b to include o.
func (b Bounds) Encapsulate(o Bounds) Bounds {
	return Bounds{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Transform maps all eight corners through m and returns their bounding box.
func (b Bounds) Transform(m Mat4) Bounds {
	corners := [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
	first := m.MulPoint(corners[0])
	out := Bounds{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := m.MulPoint(c)
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}
