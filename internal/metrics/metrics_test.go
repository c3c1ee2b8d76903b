package metrics

import (
	"encoding/json"
	"math"
	"testing"

	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/graph"
	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func px(x, y int) geometry.PointInt { return geometry.PointInt{X: x, Y: y} }

func addNode(g *graph.Graph, p geometry.PointInt) graph.NodeID {
	return g.AddNode(&graph.Node{Pixels: []geometry.PointInt{p}, Centroid: p.ToFloat(), Length: 1})
}

func addEdge(t *testing.T, g *graph.Graph, u, v graph.NodeID, length float64, pixels []geometry.PointInt) *graph.Edge {
	t.Helper()
	id, err := g.AddEdge(u, v, &graph.Edge{Pixels: pixels, Length: length})
	require.NoError(t, err)
	return g.Edge(id)
}

func run(from, to geometry.PointInt) []geometry.PointInt {
	var out []geometry.PointInt
	dx, dy := sign(to.X-from.X), sign(to.Y-from.Y)
	for p := from; ; p = p.Offset(dx, dy) {
		out = append(out, p)
		if p == to {
			return out
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func TestFractalDimension(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Zero(t, FractalDimension(raster.New(384, 384)))
	})
	t.Run("full", func(t *testing.T) {
		r := raster.New(64, 64)
		for i := range r.Pix {
			r.Pix[i] = raster.On
		}
		assert.InDelta(t, 2, FractalDimension(r), 1e-9)
	})
	t.Run("point", func(t *testing.T) {
		r := raster.New(64, 64)
		r.Set(10, 10, raster.On)
		assert.InDelta(t, 0, FractalDimension(r), 1e-9)
	})
	t.Run("line", func(t *testing.T) {
		r := raster.New(128, 128)
		for x := 0; x < 128; x++ {
			r.Set(x, 40, raster.On)
		}
		assert.InDelta(t, 1, FractalDimension(r), 1e-9)
	})
	t.Run("tiny", func(t *testing.T) {
		r := raster.New(3, 3)
		r.Set(1, 1, raster.On)
		assert.Zero(t, FractalDimension(r))
	})
}

func TestSkeletalLength(t *testing.T) {
	t.Run("straight junctions", func(t *testing.T) {
		g := graph.New(20, 5)
		a, b := addNode(g, px(0, 0)), addNode(g, px(10, 0))
		addEdge(t, g, a, b, 8, run(px(1, 0), px(9, 0)))
		assert.InDelta(t, 10, SkeletalLength(g), 1e-9)
	})
	t.Run("diagonal junctions", func(t *testing.T) {
		g := graph.New(20, 20)
		a, b := addNode(g, px(0, 0)), addNode(g, px(5, 5))
		addEdge(t, g, a, b, 3*math.Sqrt2, run(px(1, 1), px(4, 4)))
		assert.InDelta(t, 5*math.Sqrt2, SkeletalLength(g), 1e-9)
	})
	t.Run("cluster node keeps its length", func(t *testing.T) {
		g := graph.New(20, 20)
		hub := g.AddNode(&graph.Node{Pixels: []geometry.PointInt{px(5, 5), px(6, 5)}, Length: 1})
		end := addNode(g, px(12, 5))
		addEdge(t, g, hub, end, 4, run(px(7, 5), px(11, 5)))
		assert.InDelta(t, 1+4+1+1, SkeletalLength(g), 1e-9)
	})
	t.Run("empty", func(t *testing.T) {
		assert.Zero(t, SkeletalLength(graph.New(5, 5)))
	})
}

func TestPrimaryBranchesAndBranchNodes(t *testing.T) {
	g := graph.New(100, 100)
	a, b, c := addNode(g, px(0, 50)), addNode(g, px(40, 50)), addNode(g, px(99, 50))
	b2 := addNode(g, px(70, 50))
	side := addNode(g, px(40, 10))
	trunk := func(e *graph.Edge) { e.Type, e.IsTrunk = graph.EdgeMain, true }
	trunk(addEdge(t, g, a, b, 39, nil))
	trunk(addEdge(t, g, b, b2, 29, nil))
	trunk(addEdge(t, g, b2, c, 28, nil))
	addEdge(t, g, b, side, 39, nil)
	addEdge(t, g, b, b2, 35, nil) // a loop back touching two qualifying nodes
	g.AssignKinds()

	assert.Equal(t, 2, PrimaryBranches(g))
	assert.Equal(t, 2, BranchNodes(g))
}

func TestFindPath(t *testing.T) {
	r := raster.New(20, 20)
	for _, p := range run(px(2, 2), px(12, 2)) {
		r.Set(p.X, p.Y, raster.On)
	}
	for _, p := range run(px(12, 3), px(12, 12)) {
		r.Set(p.X, p.Y, raster.On)
	}
	r.Set(5, 10, raster.On)

	path, ok := FindPath(r, geometry.Point2D{X: 2, Y: 2.4}, geometry.Point2D{X: 13, Y: 12}, 2)
	require.True(t, ok)
	assert.Equal(t, px(2, 2), path[0])
	assert.Equal(t, px(12, 12), path[len(path)-1])
	assert.Len(t, path, 20, "the corner is cut diagonally")

	_, ok = FindPath(r, geometry.Point2D{X: 2, Y: 2}, geometry.Point2D{X: 5, Y: 10}, 1)
	assert.False(t, ok, "isolated pixel is unreachable")

	_, ok = FindPath(r, geometry.Point2D{X: 2, Y: 2}, geometry.Point2D{X: 18, Y: 18}, 2)
	assert.False(t, ok, "nothing within snapping radius")

	same, ok := FindPath(r, geometry.Point2D{X: 5, Y: 10}, geometry.Point2D{X: 5, Y: 10}, 0)
	require.True(t, ok)
	assert.Equal(t, []geometry.PointInt{px(5, 10)}, same)
}

func TestTrunkPath(t *testing.T) {
	g := graph.New(50, 50)
	a, corner, b := addNode(g, px(5, 5)), addNode(g, px(30, 5)), addNode(g, px(30, 40))
	e1 := addEdge(t, g, a, corner, 24, run(px(6, 5), px(29, 5)))
	e2 := addEdge(t, g, corner, b, 34, run(px(30, 6), px(30, 39)))
	for _, e := range []*graph.Edge{e1, e2} {
		e.Type, e.IsTrunk = graph.EdgeMain, true
	}

	groups := g.TrunkGroups()
	require.Len(t, groups, 1)
	path := TrunkPath(g, groups[0])
	require.NotEmpty(t, path)
	ends := []geometry.PointInt{path[0], path[len(path)-1]}
	assert.ElementsMatch(t, []geometry.PointInt{px(5, 5), px(30, 40)}, ends)
	assert.Len(t, path, 25+35, "the corner pixel is cut diagonally")
}

func straightTrunk(t *testing.T, trunk bool) (*graph.Graph, *raster.Raster) {
	g := graph.New(384, 384)
	a, b := addNode(g, px(30, 200)), addNode(g, px(351, 200))
	e := addEdge(t, g, a, b, 320, run(px(31, 200), px(350, 200)))
	if trunk {
		e.Type, e.IsTrunk = graph.EdgeMain, true
	}
	g.AssignKinds()

	fg := raster.New(384, 384)
	for _, p := range run(px(30, 200), px(351, 200)) {
		fg.Set(p.X, p.Y, raster.On)
	}
	return g, fg
}

func TestComputeStraightTrunk(t *testing.T) {
	g, fg := straightTrunk(t, true)

	m, c, err := Compute(g, fg, DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 322, c.LengthPx, 1e-9)
	assert.Equal(t, 322, c.AreaPx)
	assert.Equal(t, 1, c.TrunkGroups)

	assert.Equal(t, 2.096, m.CNFL)
	assert.Equal(t, 6.25, m.CNFD)
	assert.Equal(t, 0.0, m.CNBD)
	assert.Equal(t, 0.002, m.CNFA)
	assert.Equal(t, 0.007, m.CNFW)
	assert.Equal(t, 0.0, m.CTBD)
	require.NotNil(t, m.CNFT)
	assert.Equal(t, 0.0, *m.CNFT)
}

func TestComputeWithoutTrunks(t *testing.T) {
	g, fg := straightTrunk(t, false)

	m, c, err := Compute(g, fg, DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, m.CNFT)
	assert.Zero(t, c.TrunkGroups)
	assert.Zero(t, m.CNFD)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"CNFT":null`)
	assert.Regexp(t, `^\{"CNFL":.*"CNFD":.*"CNBD":.*"CNFA":.*"CNFW":.*"CTBD":.*"CNFT":.*"CNFrD":.*\}$`, string(out))
}

func TestComputeEmptyField(t *testing.T) {
	m, _, err := Compute(graph.New(384, 384), raster.New(384, 384), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, m)
}

func TestComputeRejectsMismatchedMask(t *testing.T) {
	_, _, err := Compute(graph.New(384, 384), raster.New(100, 100), DefaultOptions())
	assert.True(t, errors.Is(err, errors.ErrInputContract))
}
