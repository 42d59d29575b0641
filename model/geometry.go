package model

import "math"

// Point is a position in PDF space (points, origin bottom-left).
type Point struct {
	X, Y float64
}

// BBox is an axis-aligned rectangle anchored at its lower-left corner.
type BBox struct {
	X, Y          float64
	Width, Height float64
}

func (b BBox) Left() float64   { return b.X }
func (b BBox) Right() float64  { return b.X + b.Width }
func (b BBox) Bottom() float64 { return b.Y }
func (b BBox) Top() float64    { return b.Y + b.Height }

// Center returns the midpoint of b.
func (b BBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Contains reports whether p lies in b. Points on an edge are inside.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Bottom() && p.Y <= b.Top()
}

// Union returns the smallest box covering b and other. A zero b is treated
// as absent, so folding boxes into a zero BBox yields their hull.
func (b BBox) Union(other BBox) BBox {
	if b == (BBox{}) {
		return other
	}
	left := math.Min(b.Left(), other.Left())
	bottom := math.Min(b.Bottom(), other.Bottom())
	return BBox{
		X:      left,
		Y:      bottom,
		Width:  math.Max(b.Right(), other.Right()) - left,
		Height: math.Max(b.Top(), other.Top()) - bottom,
	}
}

// IsEmpty reports whether b has no area.
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Matrix is a PDF affine transform [a b c d e f]. Points are row vectors,
// so p' = p × M.
type Matrix [6]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a transform that moves points by (tx, ty).
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Transform maps p through m.
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns the transform that applies m first and then n.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}
