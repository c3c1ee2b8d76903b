package curvature

import (
	"math"
	"sort"

	"nerve-tracer/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Tortuosity is the Kallinikos tortuosity coefficient of an ordered path. The
// path is moved so its endpoints lie on the x-axis, then the squared first
// and second derivatives of y(x) are integrated. Paths with fewer than three
// points score 0.
func Tortuosity(path []geometry.Point2D) float64 {
	if len(path) < 3 {
		return 0
	}
	aligned := Align(path)
	sort.SliceStable(aligned, func(i, j int) bool { return aligned[i].X < aligned[j].X })

	n := len(aligned)
	dx := (aligned[n-1].X - aligned[0].X) / float64(n-1)
	if math.Abs(dx) <= 1e-9 {
		return 0
	}

	var sum float64
	for j := 1; j < n-1; j++ {
		first := (aligned[j+1].Y - aligned[j].Y) / dx
		second := (aligned[j+1].Y - 2*aligned[j].Y + aligned[j-1].Y) / (dx * dx)
		sum += dx * (first*first + second*second)
	}
	return math.Sqrt(sum)
}

// Align translates path so its first point is the origin and rotates it so
// its last point lies on the positive x-axis.
func Align(path []geometry.Point2D) []geometry.Point2D {
	if len(path) == 0 {
		return nil
	}
	origin := path[0]
	end := path[len(path)-1].Sub(origin)
	theta := -math.Atan2(end.Y, end.X)
	c, s := math.Cos(theta), math.Sin(theta)
	rot := mat.NewDense(2, 2, []float64{c, -s, s, c})

	pts := mat.NewDense(2, len(path), nil)
	for i, p := range path {
		d := p.Sub(origin)
		pts.Set(0, i, d.X)
		pts.Set(1, i, d.Y)
	}
	var out mat.Dense
	out.Mul(rot, pts)

	aligned := make([]geometry.Point2D, len(path))
	for i := range aligned {
		aligned[i] = geometry.Point2D{X: out.At(0, i), Y: out.At(1, i)}
	}
	return aligned
}
