// Package curvature measures how sharply a fibre bends at a junction and how
// tortuous a whole trunk path is.
package curvature

import (
	"math"

	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"
)

// Options configures the local curvature estimate.
type Options struct {
	Step  float64 // arc-length resampling step
	Sigma float64 // Gaussian smoothing of the resampled coordinates
}

// DefaultOptions returns the reference settings.
func DefaultOptions() Options {
	return Options{Step: 1.0, Sigma: 10.0}
}

const neighbourRadius = 1.5

// OrderPath chains an unordered pixel set into a path: it starts from the
// first point with exactly one neighbour closer than 1.5 px (the first point
// when none qualifies) and repeatedly steps to the nearest unvisited point.
func OrderPath(points []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, 0, len(points))
	if len(points) <= 2 {
		return append(out, points...)
	}

	start := 0
	for i, p := range points {
		n := 0
		for j, q := range points {
			if i != j && p.Distance(q) < neighbourRadius {
				n++
			}
		}
		if n == 1 {
			start = i
			break
		}
	}

	used := make([]bool, len(points))
	used[start] = true
	out = append(out, points[start])
	for len(out) < len(points) {
		last := out[len(out)-1]
		best, bestDist := -1, math.Inf(1)
		for j, q := range points {
			if used[j] {
				continue
			}
			if d := last.Distance(q); d < bestDist {
				best, bestDist = j, d
			}
		}
		used[best] = true
		out = append(out, points[best])
	}
	return out
}

// Merge orders both lines, orients the first to end near point and the second
// to start near it, and joins them through point.
func Merge(line1 []geometry.Point2D, point geometry.Point2D, line2 []geometry.Point2D) []geometry.Point2D {
	a := OrderPath(line1)
	b := OrderPath(line2)
	if len(a) > 0 && a[0].Distance(point) < a[len(a)-1].Distance(point) {
		reverse(a)
	}
	if len(b) > 0 && b[len(b)-1].Distance(point) < b[0].Distance(point) {
		reverse(b)
	}
	out := make([]geometry.Point2D, 0, len(a)+len(b)+1)
	out = append(out, a...)
	out = append(out, point)
	return append(out, b...)
}

// Resample places points every step units of arc length along path, starting
// at its first point and stopping before the total length.
func Resample(path []geometry.Point2D, step float64) []geometry.Point2D {
	if len(path) == 0 || step <= 0 {
		return nil
	}
	cum := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		cum[i] = cum[i-1] + path[i].Distance(path[i-1])
	}
	total := cum[len(cum)-1]

	var out []geometry.Point2D
	seg := 0
	for i := 0; float64(i)*step < total; i++ {
		s := float64(i) * step
		for seg < len(path)-2 && cum[seg+1] < s {
			seg++
		}
		span := cum[seg+1] - cum[seg]
		t := 0.0
		if span > 0 {
			t = (s - cum[seg]) / span
		}
		p, q := path[seg], path[seg+1]
		out = append(out, geometry.Point2D{X: p.X + t*(q.X-p.X), Y: p.Y + t*(q.Y-p.Y)})
	}
	return out
}

// Smooth applies a 1-D Gaussian with reflected borders to each coordinate.
func Smooth(path []geometry.Point2D, sigma float64) []geometry.Point2D {
	if sigma <= 0 {
		return append([]geometry.Point2D(nil), path...)
	}
	xs, ys := split(path)
	xs, ys = raster.Smooth1D(xs, sigma), raster.Smooth1D(ys, sigma)
	out := make([]geometry.Point2D, len(path))
	for i := range out {
		out[i] = geometry.Point2D{X: xs[i], Y: ys[i]}
	}
	return out
}

// Gradient differentiates uniformly spaced samples: central differences
// inside, one-sided differences at both ends.
func Gradient(f []float64, h float64) []float64 {
	n := len(f)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = (f[1] - f[0]) / h
	out[n-1] = (f[n-1] - f[n-2]) / h
	for i := 1; i < n-1; i++ {
		out[i] = (f[i+1] - f[i-1]) / (2 * h)
	}
	return out
}

// Discrete returns the unsigned curvature at every point of a uniformly
// sampled path.
func Discrete(path []geometry.Point2D, step float64) []float64 {
	xs, ys := split(path)
	dx, dy := Gradient(xs, step), Gradient(ys, step)
	ddx, ddy := Gradient(dx, step), Gradient(dy, step)

	k := make([]float64, len(path))
	for i := range k {
		k[i] = math.Abs(dx[i]*ddy[i]-dy[i]*ddx[i]) / math.Pow(dx[i]*dx[i]+dy[i]*dy[i]+1e-8, 1.5)
	}
	return k
}

// AtPoint estimates the curvature where line1 and line2 meet at point. Paths
// with fewer than three resampled points have curvature 0.
func AtPoint(line1, line2 []geometry.Point2D, point geometry.Point2D, opts Options) float64 {
	resampled := Resample(Merge(line1, point, line2), opts.Step)
	if len(resampled) < 3 {
		return 0
	}
	smooth := Smooth(resampled, opts.Sigma)
	kappa := Discrete(smooth, opts.Step)

	nearest, best := 0, math.Inf(1)
	for i, p := range smooth {
		if d := p.Distance(point); d < best {
			nearest, best = i, d
		}
	}
	return kappa[nearest]
}

// Pixels converts integer pixel coordinates to points.
func Pixels(px []geometry.PointInt) []geometry.Point2D {
	out := make([]geometry.Point2D, len(px))
	for i, p := range px {
		out[i] = p.ToFloat()
	}
	return out
}

func split(path []geometry.Point2D) (xs, ys []float64) {
	xs = make([]float64, len(path))
	ys = make([]float64, len(path))
	for i, p := range path {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

func reverse(p []geometry.Point2D) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
