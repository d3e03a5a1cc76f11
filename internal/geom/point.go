// Package geom implements the 2-D point arithmetic used by the spline
// renderer: addition, scaling, norms, and point reflection.
package geom

import "math"

// Point is a 2-D point or vector in float32 coordinates.
type Point struct {
	X, Y float32
}

// New returns the point (x, y).
func New(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p * s.
func (p Point) Scale(s float32) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// NormSquared returns the squared Euclidean norm of p.
func (p Point) NormSquared() float32 {
	return p.X*p.X + p.Y*p.Y
}

// Norm returns the Euclidean norm of p.
func (p Point) Norm() float32 {
	return float32(math.Sqrt(float64(p.NormSquared())))
}

// Mirror reflects p about center: 2*center - p.
func (p Point) Mirror(center Point) Point {
	return Point{
		X: center.X + center.X - p.X,
		Y: center.Y + center.Y - p.Y,
	}
}
