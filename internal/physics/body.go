package physics

import "math"

// ShapeKind distinguishes the two body geometries the world supports.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeRect
)

// Body is a rigid body in the world. Static bodies never move and have
// infinite effective mass; dynamic bodies are always circles (balls).
type Body struct {
	ID    uint64
	Label string
	Shape ShapeKind

	Position Vec2
	Velocity Vec2

	// Circle geometry
	Radius float64

	// Rect geometry (axis-aligned, Position is the center)
	Width  float64
	Height float64

	Static bool

	// Material parameters, matter.js-style ranges
	Restitution float64 // 0 = no bounce, 1 = perfect bounce
	Friction    float64 // tangential damping on contact, 0-1
	FrictionAir float64 // per-step velocity damping fraction
	Density     float64

	mass float64
}

// Material bundles the tunable parameters for a dynamic body.
type Material struct {
	Restitution float64
	Friction    float64
	FrictionAir float64
	Density     float64
}

// NewCircle creates a dynamic circular body.
func NewCircle(label string, pos Vec2, radius float64, mat Material) *Body {
	return &Body{
		Label:       label,
		Shape:       ShapeCircle,
		Position:    pos,
		Radius:      radius,
		Restitution: mat.Restitution,
		Friction:    mat.Friction,
		FrictionAir: mat.FrictionAir,
		Density:     mat.Density,
		mass:        mat.Density * math.Pi * radius * radius,
	}
}

// NewStaticCircle creates an immovable circular obstacle (a peg).
func NewStaticCircle(label string, pos Vec2, radius float64) *Body {
	return &Body{
		Label:    label,
		Shape:    ShapeCircle,
		Position: pos,
		Radius:   radius,
		Static:   true,
	}
}

// NewStaticRect creates an immovable axis-aligned rectangle centered at
// pos (walls, slot dividers, the floor sensor).
func NewStaticRect(label string, pos Vec2, width, height float64) *Body {
	return &Body{
		Label:    label,
		Shape:    ShapeRect,
		Position: pos,
		Width:    width,
		Height:   height,
		Static:   true,
	}
}

// Mass returns the body mass. Static bodies report infinite mass.
func (b *Body) Mass() float64 {
	if b.Static {
		return math.Inf(1)
	}
	return b.mass
}
