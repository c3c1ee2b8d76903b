// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Norm returns the length of the point treated as a vector.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// AngleBetween returns the angle in degrees between two vectors.
// A zero-length vector yields 0.
func AngleBetween(v1, v2 Point2D) float64 {
	m1, m2 := v1.Norm(), v2.Norm()
	if m1 == 0 || m2 == 0 {
		return 0
	}
	cos := (v1.X*v2.X + v1.Y*v2.Y) / (m1 * m2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Offset returns the point shifted by dx, dy.
func (p PointInt) Offset(dx, dy int) PointInt {
	return PointInt{X: p.X + dx, Y: p.Y + dy}
}

// Adjacent4 reports whether q is a horizontal or vertical neighbour of p.
func (p PointInt) Adjacent4(q PointInt) bool {
	dx, dy := absInt(p.X-q.X), absInt(p.Y-q.Y)
	return dx+dy == 1
}

// Offsets4 lists the 4-connected neighbour offsets (left, right, up, down).
var Offsets4 = [4]PointInt{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Offsets8 lists the 8-connected neighbour offsets in row-major order.
var Offsets8 = [8]PointInt{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// NearBorder reports whether p lies within margin pixels of the border of a
// width x height field.
func NearBorder(p Point2D, width, height int, margin float64) bool {
	return p.X < margin || p.Y < margin ||
		p.X >= float64(width)-margin || p.Y >= float64(height)-margin
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// PixelCentroid returns the mean of integer pixel coordinates rounded to two
// decimals.
func PixelCentroid(pixels []PointInt) Point2D {
	if len(pixels) == 0 {
		return Point2D{}
	}
	var sumX, sumY int
	for _, p := range pixels {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(pixels))
	return Point2D{X: Round(float64(sumX)/n, 2), Y: Round(float64(sumY)/n, 2)}
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
