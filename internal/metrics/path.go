package metrics

import (
	"container/heap"
	"math"

	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"
)

// FindPath finds the shortest 8-connected path between two pixels of r using
// A* with a Euclidean heuristic. Both points are first snapped to the nearest
// foreground pixel within maxRadius. It returns nil and false when either
// point cannot be snapped or the two are not connected.
func FindPath(r *raster.Raster, start, end geometry.Point2D, maxRadius int) ([]geometry.PointInt, bool) {
	from, ok := NearestPixel(r, start, maxRadius)
	if !ok {
		return nil, false
	}
	to, ok := NearestPixel(r, end, maxRadius)
	if !ok {
		return nil, false
	}
	if from == to {
		return []geometry.PointInt{from}, true
	}

	gScore := map[geometry.PointInt]float64{from: 0}
	cameFrom := make(map[geometry.PointInt]geometry.PointInt)
	visited := make(map[geometry.PointInt]bool)

	pq := &pathQueue{}
	heap.Init(pq)
	heap.Push(pq, &pathItem{p: from, f: euclidean(from, to)})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pathItem).p
		if cur == to {
			return reconstruct(cameFrom, to), true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true

		for _, o := range geometry.Offsets8 {
			next := cur.Offset(o.X, o.Y)
			if !r.IsOn(next.X, next.Y) || visited[next] {
				continue
			}
			step := 1.0
			if o.X != 0 && o.Y != 0 {
				step = math.Sqrt2
			}
			g := gScore[cur] + step
			if prev, seen := gScore[next]; !seen || g < prev {
				gScore[next] = g
				cameFrom[next] = cur
				heap.Push(pq, &pathItem{p: next, f: g + euclidean(next, to)})
			}
		}
	}
	return nil, false
}

func reconstruct(cameFrom map[geometry.PointInt]geometry.PointInt, end geometry.PointInt) []geometry.PointInt {
	path := []geometry.PointInt{end}
	for n := end; ; {
		prev, ok := cameFrom[n]
		if !ok {
			break
		}
		path = append(path, prev)
		n = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// NearestPixel finds the foreground pixel of r closest to pt, searching
// square rings of growing radius up to maxRadius.
func NearestPixel(r *raster.Raster, pt geometry.Point2D, maxRadius int) (geometry.PointInt, bool) {
	c := geometry.PointInt{X: int(math.Round(pt.X)), Y: int(math.Round(pt.Y))}
	if r.IsOn(c.X, c.Y) {
		return c, true
	}

	for rad := 1; rad <= maxRadius; rad++ {
		best, bestDist := geometry.PointInt{}, math.Inf(1)
		for dy := -rad; dy <= rad; dy++ {
			for dx := -rad; dx <= rad; dx++ {
				if max(abs(dx), abs(dy)) != rad {
					continue
				}
				q := c.Offset(dx, dy)
				if !r.IsOn(q.X, q.Y) {
					continue
				}
				if d := math.Hypot(float64(dx), float64(dy)); d < bestDist {
					best, bestDist = q, d
				}
			}
		}
		if !math.IsInf(bestDist, 1) {
			return best, true
		}
	}
	return geometry.PointInt{}, false
}

func euclidean(a, b geometry.PointInt) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type pathItem struct {
	p     geometry.PointInt
	f     float64
	index int
}

// pathQueue is a min-heap on f for the A* open set.
type pathQueue []*pathItem

func (pq pathQueue) Len() int           { return len(pq) }
func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }
func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x interface{}) {
	item := x.(*pathItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
