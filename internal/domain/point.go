package domain

import "math"

// Immutable planar coordinate, in kilometers.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Return the point as [x, y] for external API compatibility.
func (p Point) CoordsToList() []float64 { return []float64{p.X, p.Y} }

// Distancer supplies point-to-point distances to planning code.
// Implementations must be pure: same inputs, same output, no side effects.
type Distancer interface {
	Distance(a, b Point) float64
}

// DistanceFunc adapts a plain function to the Distancer interface.
type DistanceFunc func(a, b Point) float64

func (f DistanceFunc) Distance(a, b Point) float64 { return f(a, b) }

// Map describes the operating area all routes are planned on.
// The depot is the fixed origin every route starts and ends at.
type Map struct {
	Width  float64
	Height float64
	Depot  Point
}

// Distance implements Distancer using plain Euclidean geometry.
func (m Map) Distance(a, b Point) float64 { return Dist(a, b) }

// Contains reports whether a point lies inside the map bounds.
// Maps with non-positive dimensions accept any point.
func (m Map) Contains(p Point) bool {
	if m.Width <= 0 || m.Height <= 0 {
		return true
	}
	return p.X >= 0 && p.X <= m.Width && p.Y >= 0 && p.Y <= m.Height
}
