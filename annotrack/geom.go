package annotrack

import (
	"image"
	"math"
)

// BoundingBox is an axis-aligned rectangle in pixel units, origin top-left.
// Width and Height are never negative once constructed.
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewBoundingBox(x, y, width, height float64) BoundingBox {
	return BoundingBox{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

func NewBoundingBoxFrom(rect image.Rectangle) BoundingBox {
	return BoundingBox{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// Equal reports field-wise equality (not identity)
func (b BoundingBox) Equal(other BoundingBox) bool {
	return b.X == other.X && b.Y == other.Y && b.Width == other.Width && b.Height == other.Height
}

// Translate returns a copy of the box shifted by (dx, dy)
func (b BoundingBox) Translate(dx, dy float64) BoundingBox {
	return BoundingBox{
		X:      b.X + dx,
		Y:      b.Y + dy,
		Width:  b.Width,
		Height: b.Height,
	}
}

// Center returns the center point of the box
func (b BoundingBox) Center() Point {
	return Point{
		X: b.X + b.Width/2.0,
		Y: b.Y + b.Height/2.0,
	}
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(float64(p1.X-p2.X), 2) + math.Pow(float64(p1.Y-p2.Y), 2))
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
