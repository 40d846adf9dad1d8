package sim

import (
	"math"
	"math/rand"
)

// Point is a position in the 2D simulation area.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Bounds describes the rectangular simulation area [0,Width] x [0,Height].
type Bounds struct {
	Width  float64
	Height float64
}

// Contains reports whether p lies inside the area (inclusive edges).
func (b Bounds) Contains(p Point) bool {
	return p.X >= 0 && p.X <= b.Width && p.Y >= 0 && p.Y <= b.Height
}

// Clamp snaps p to the nearest point inside the area.
func (b Bounds) Clamp(p Point) Point {
	return Point{
		X: math.Max(0, math.Min(b.Width, p.X)),
		Y: math.Max(0, math.Min(b.Height, p.Y)),
	}
}

// RandomPoint draws a uniformly distributed point inside the area.
func (b Bounds) RandomPoint(rng *rand.Rand) Point {
	return Point{
		X: rng.Float64() * b.Width,
		Y: rng.Float64() * b.Height,
	}
}
