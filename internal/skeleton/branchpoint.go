package skeleton

import (
	"math"

	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"
)

// TrueBranchPoints picks, inside every branch-cluster component of skel, the
// pixel(s) that represent the actual fibre intersection.
//
// A cluster pixel with both a vertical and a horizontal foreground neighbour
// is a crossing; all such pixels are kept. Without crossings the single pixel
// with the most 4-neighbours wins, ties broken by the largest summed
// neighbour degree and then by the smallest distance to the cluster centre.
func TrueBranchPoints(skel *raster.Raster, cls *Classification) ([]geometry.PointInt, error) {
	clusters, err := raster.Components(cls.Mask(BranchCluster), raster.Conn8)
	if err != nil {
		return nil, err
	}

	var points []geometry.PointInt
	for _, cluster := range clusters {
		var crossings []geometry.PointInt
		for _, p := range cluster {
			vertical := skel.IsOn(p.X, p.Y-1) || skel.IsOn(p.X, p.Y+1)
			horizontal := skel.IsOn(p.X-1, p.Y) || skel.IsOn(p.X+1, p.Y)
			if vertical && horizontal {
				crossings = append(crossings, p)
			}
		}
		if len(crossings) > 0 {
			points = append(points, crossings...)
			continue
		}
		points = append(points, bestClusterPixel(skel, cluster))
	}
	return points, nil
}

func bestClusterPixel(skel *raster.Raster, cluster []geometry.PointInt) geometry.PointInt {
	pts := make([]geometry.Point2D, len(cluster))
	for i, p := range cluster {
		pts[i] = p.ToFloat()
	}
	center := geometry.Centroid(pts)

	best := cluster[0]
	bestN4, bestDeg, bestDist := -1, -1, math.Inf(1)
	for _, p := range cluster {
		n4 := skel.Neighbors4(p.X, p.Y)
		deg := 0
		for _, o := range geometry.Offsets8 {
			q := p.Offset(o.X, o.Y)
			if skel.IsOn(q.X, q.Y) {
				deg += skel.Neighbors8(q.X, q.Y)
			}
		}
		dist := p.ToFloat().Distance(center)

		better := n4 > bestN4 ||
			(n4 == bestN4 && deg > bestDeg) ||
			(n4 == bestN4 && deg == bestDeg && dist < bestDist)
		if better {
			best, bestN4, bestDeg, bestDist = p, n4, deg, dist
		}
	}
	return best
}

// fourConnected reports whether pts form a single 4-connected group.
// An empty set is not connected.
func fourConnected(pts []geometry.PointInt) bool {
	if len(pts) == 0 {
		return false
	}
	set := make(map[geometry.PointInt]bool, len(pts))
	for _, p := range pts {
		set[p] = true
	}

	visited := map[geometry.PointInt]bool{pts[0]: true}
	stack := []geometry.PointInt{pts[0]}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, o := range geometry.Offsets4 {
			n := cur.Offset(o.X, o.Y)
			if set[n] && !visited[n] {
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}
	return len(visited) == len(set)
}
