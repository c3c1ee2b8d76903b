package graph

import (
	"fmt"
	"testing"

	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tee() *raster.Raster {
	r := raster.New(20, 20)
	for x := 1; x <= 15; x++ {
		r.Set(x, 5, raster.On)
	}
	for y := 6; y <= 12; y++ {
		r.Set(8, y, raster.On)
	}
	return r
}

func addPoint(g *Graph, x, y int) NodeID {
	p := geometry.PointInt{X: x, Y: y}
	return g.AddNode(&Node{Pixels: []geometry.PointInt{p}, Centroid: p.ToFloat(), Length: 1})
}

func link(t *testing.T, g *Graph, u, v NodeID, length float64) *Edge {
	t.Helper()
	id, err := g.AddEdge(u, v, &Edge{Length: length})
	require.NoError(t, err)
	return g.Edge(id)
}

func TestBuildTee(t *testing.T) {
	g, err := Build(tee(), BuildOptions{})
	require.NoError(t, err)

	require.Equal(t, 4, g.NumNodes())
	require.Equal(t, 3, g.NumEdges())

	// End components come first in scan order, then the branch cluster.
	assert.Equal(t, geometry.Point2D{X: 1, Y: 5}, g.Node(0).Centroid)
	assert.Equal(t, geometry.Point2D{X: 15, Y: 5}, g.Node(1).Centroid)
	assert.Equal(t, geometry.Point2D{X: 8, Y: 12}, g.Node(2).Centroid)
	for id := NodeID(0); id < 3; id++ {
		assert.Equal(t, NodeEnd, g.Node(id).Kind)
		assert.Equal(t, 1, g.Degree(id))
	}
	assert.Equal(t, NodeBranch, g.Node(3).Kind)
	assert.Equal(t, 3, g.Degree(3))

	for _, e := range g.Edges() {
		assert.True(t, e.Touches(3), "edge %d should reach the junction", e.ID)
		assert.GreaterOrEqual(t, e.Length, 1.0)
		assert.Equal(t, EdgeUnset, e.Type)
	}
	assert.NoError(t, g.CheckInvariants())
}

func TestBuildLine(t *testing.T) {
	r := raster.New(40, 10)
	for x := 5; x < 35; x++ {
		r.Set(x, 4, raster.On)
	}
	g, err := Build(r, BuildOptions{})
	require.NoError(t, err)

	require.Equal(t, 2, g.NumNodes())
	require.Equal(t, 1, g.NumEdges())
	e := g.Edges()[0]
	assert.Equal(t, NodeID(0), e.U)
	assert.Equal(t, NodeID(1), e.V)
	assert.Equal(t, 28, len(e.Pixels))
	assert.InDelta(t, 27, e.Length, 1)
	assert.Equal(t, geometry.Point2D{X: 19.5, Y: 4}, e.Centroid)
}

func TestBuildEmpty(t *testing.T) {
	g, err := Build(raster.New(10, 10), BuildOptions{})
	require.NoError(t, err)
	assert.Zero(t, g.NumNodes())
	assert.Zero(t, g.NumEdges())
}

func TestBuildTopologyErrors(t *testing.T) {
	tests := []struct {
		name   string
		paint  func(r *raster.Raster)
		detail string
	}{
		{"diamond ring", func(r *raster.Raster) {
			for y := 0; y < 12; y++ {
				for x := 0; x < 12; x++ {
					if abs(x-5)+abs(y-5) == 3 {
						r.Set(x, y, raster.On)
					}
				}
			}
		}, "attachments=0"},
		{"wide diamond ring", func(r *raster.Raster) {
			for y := 0; y < 12; y++ {
				for x := 0; x < 12; x++ {
					if abs(x-5)+abs(y-5) == 5 {
						r.Set(x, y, raster.On)
					}
				}
			}
		}, "pixels=20 attachments=0 first=(5,0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := raster.New(12, 12)
			tt.paint(r)
			_, err := Build(r, BuildOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrTopology))
			assert.Contains(t, errors.FlattenDetails(err), tt.detail)
		})
	}
}

func TestEndpointsRequireTwoAttachments(t *testing.T) {
	const w, h = 10, 5
	seg := []geometry.PointInt{{X: 3, Y: 2}, {X: 4, Y: 2}, {X: 5, Y: 2}}
	owner := func(marks map[geometry.PointInt]NodeID) []NodeID {
		o := make([]NodeID, w*h)
		for i := range o {
			o[i] = -1
		}
		for p, id := range marks {
			o[p.Y*w+p.X] = id
		}
		return o
	}

	tests := []struct {
		name    string
		marks   map[geometry.PointInt]NodeID
		attach  int
		wantErr bool
	}{
		{"none", nil, 0, true},
		{"one", map[geometry.PointInt]NodeID{{X: 2, Y: 2}: 0}, 1, true},
		{"two", map[geometry.PointInt]NodeID{{X: 2, Y: 2}: 0, {X: 6, Y: 2}: 1}, 2, false},
		{"three", map[geometry.PointInt]NodeID{
			{X: 2, Y: 2}: 0, {X: 2, Y: 1}: 2, {X: 6, Y: 2}: 1,
		}, 3, true},
		{"four", map[geometry.PointInt]NodeID{
			{X: 2, Y: 2}: 0, {X: 2, Y: 1}: 2, {X: 6, Y: 2}: 1, {X: 6, Y: 3}: 3,
		}, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v, err := endpoints(w, h, 7, seg, owner(tt.marks))
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, NodeID(0), u)
				assert.Equal(t, NodeID(1), v)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrTopology))
			details := errors.FlattenDetails(err)
			assert.Contains(t, details, "component=7")
			assert.Contains(t, details, fmt.Sprintf("attachments=%d", tt.attach))
			assert.Contains(t, details, "first=(3,2)")
		})
	}
}

func TestAttachments(t *testing.T) {
	const w, h = 10, 5
	seg := []geometry.PointInt{{X: 3, Y: 2}, {X: 4, Y: 2}, {X: 5, Y: 2}}
	owner := func(marks map[geometry.PointInt]NodeID) []NodeID {
		o := make([]NodeID, w*h)
		for i := range o {
			o[i] = -1
		}
		for p, id := range marks {
			o[p.Y*w+p.X] = id
		}
		return o
	}

	tests := []struct {
		name  string
		marks map[geometry.PointInt]NodeID
		want  []NodeID
	}{
		{"one", map[geometry.PointInt]NodeID{{X: 2, Y: 2}: 0}, []NodeID{0}},
		{"two", map[geometry.PointInt]NodeID{{X: 2, Y: 2}: 0, {X: 6, Y: 2}: 1}, []NodeID{0, 1}},
		{"self loop", map[geometry.PointInt]NodeID{{X: 2, Y: 2}: 4, {X: 6, Y: 2}: 4}, []NodeID{4, 4}},
		{"three", map[geometry.PointInt]NodeID{
			{X: 2, Y: 2}: 0, {X: 2, Y: 1}: 2, {X: 6, Y: 2}: 1,
		}, []NodeID{2, 0, 1}},
		{"same node twice at one end", map[geometry.PointInt]NodeID{
			{X: 2, Y: 2}: 0, {X: 2, Y: 1}: 0, {X: 6, Y: 2}: 1,
		}, []NodeID{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attachments(w, h, seg, owner(tt.marks)))
		})
	}
}

func TestMultigraphKeys(t *testing.T) {
	g := New(20, 20)
	a, b := addPoint(g, 1, 1), addPoint(g, 5, 5)

	e0 := link(t, g, a, b, 4)
	e1 := link(t, g, b, a, 6)
	loop0 := link(t, g, a, a, 3)
	loop1 := link(t, g, a, a, 3)

	assert.Equal(t, 0, e0.Key)
	assert.Equal(t, 1, e1.Key)
	assert.Equal(t, 0, loop0.Key)
	assert.Equal(t, 1, loop1.Key)
	assert.Same(t, e1, g.EdgeByKey(a, b, 1))
	assert.Same(t, e1, g.EdgeByKey(b, a, 1))
	assert.Nil(t, g.EdgeByKey(a, b, 2))

	assert.Equal(t, 6, g.Degree(a))
	assert.Equal(t, 2, g.NonSelfDegree(a))
	assert.Len(t, g.Incident(a), 4)

	_, err := g.AddEdge(a, 99, &Edge{Length: 1})
	assert.Error(t, err)
}

func TestKeysStayUniqueAfterRemoval(t *testing.T) {
	g := New(20, 20)
	a, b := addPoint(g, 1, 1), addPoint(g, 5, 5)
	e0 := link(t, g, a, b, 4)
	link(t, g, a, b, 4)
	g.RemoveEdge(e0.ID)

	e2 := link(t, g, a, b, 4)
	assert.Equal(t, 0, e2.Key)
	g.AssignKinds()
	assert.NoError(t, g.CheckInvariants())
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Graph, e *Edge)
		want   string
	}{
		{"trunk edge typed side", func(g *Graph, e *Edge) {
			e.IsTrunk, e.Type = true, EdgeSide
		}, "is trunk"},
		{"short edge", func(g *Graph, e *Edge) { e.Length = 0.5 }, "length"},
		{"stale kind", func(g *Graph, e *Edge) { g.Node(e.U).Kind = NodeBranch }, "degree says"},
		{"duplicate key", func(g *Graph, e *Edge) {
			link(t, g, e.U, e.V, 3).Key = e.Key
			g.AssignKinds()
		}, "shares key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(20, 20)
			e := link(t, g, addPoint(g, 1, 1), addPoint(g, 9, 9), 8)
			g.AssignKinds()
			require.NoError(t, g.CheckInvariants())

			tt.mutate(g, e)
			err := g.CheckInvariants()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssignKinds(t *testing.T) {
	g := New(20, 20)
	hub := addPoint(g, 10, 10)
	var leaves []NodeID
	for i := 0; i < 3; i++ {
		leaves = append(leaves, addPoint(g, 2+i, 2))
		link(t, g, hub, leaves[i], 5)
	}
	mid := addPoint(g, 15, 15)
	tail := addPoint(g, 18, 18)
	link(t, g, leaves[0], mid, 5)
	link(t, g, mid, tail, 5)
	link(t, g, tail, tail, 5)
	lone := addPoint(g, 0, 19)

	g.AssignKinds()
	assert.Equal(t, NodeBranch, g.Node(hub).Kind)
	assert.Equal(t, NodeOther, g.Node(leaves[0]).Kind)
	assert.Equal(t, NodeEnd, g.Node(leaves[1]).Kind)
	assert.Equal(t, NodeOther, g.Node(mid).Kind)
	assert.Equal(t, NodeEnd, g.Node(tail).Kind, "self loops do not count toward kind")
	assert.Equal(t, NodeOther, g.Node(lone).Kind)
	assert.NoError(t, g.CheckInvariants())

	g.Node(hub).Kind = NodeEnd
	assert.Error(t, g.CheckInvariants())
}

func TestRemoveNodeAndComponents(t *testing.T) {
	g := New(20, 20)
	a, b, c := addPoint(g, 1, 1), addPoint(g, 2, 2), addPoint(g, 3, 3)
	d, e := addPoint(g, 10, 10), addPoint(g, 12, 12)
	link(t, g, a, b, 2)
	link(t, g, b, c, 2)
	link(t, g, d, e, 2)

	comps := g.Components()
	require.Len(t, comps, 2)
	assert.Equal(t, []NodeID{a, b, c}, comps[0].Nodes)
	assert.Equal(t, []EdgeID{0, 1}, comps[0].Edges)
	assert.Equal(t, []NodeID{d, e}, comps[1].Nodes)

	g.RemoveNode(b)
	assert.Nil(t, g.Node(b))
	assert.Equal(t, 1, g.NumEdges())
	assert.Len(t, g.Components(), 3)
	assert.Zero(t, g.Degree(a))
}

func TestRemoveDimComponents(t *testing.T) {
	g := New(100, 100)
	// interior and dim
	a, b := addPoint(g, 40, 40), addPoint(g, 50, 50)
	link(t, g, a, b, 10).IntensityMedian = 0.2
	// dim but touching the border margin
	c, d := addPoint(g, 2, 50), addPoint(g, 20, 50)
	link(t, g, c, d, 10).IntensityMedian = 0.1
	// bright
	e, f := addPoint(g, 60, 60), addPoint(g, 70, 60)
	link(t, g, e, f, 10).IntensityMedian = 0.8

	assert.Equal(t, 1, g.RemoveDimComponents(0.4, 38))
	assert.Nil(t, g.Node(a))
	assert.Nil(t, g.Node(b))
	assert.NotNil(t, g.Node(c))
	assert.NotNil(t, g.Node(e))
	assert.Equal(t, 2, g.NumEdges())
}

func TestRemoveShortEndEdges(t *testing.T) {
	g := New(50, 50)
	hub := addPoint(g, 20, 20)
	spur := addPoint(g, 21, 18)
	far1, far2 := addPoint(g, 5, 20), addPoint(g, 40, 20)
	far3 := addPoint(g, 20, 40)
	link(t, g, hub, spur, 2)
	link(t, g, hub, far1, 15)
	link(t, g, hub, far2, 15)
	link(t, g, hub, far3, 15)
	g.AssignKinds()

	assert.Equal(t, 1, g.RemoveShortEndEdges(3))
	assert.Nil(t, g.Node(spur))
	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, NodeBranch, g.Node(hub).Kind)
	assert.Zero(t, g.RemoveShortEndEdges(3))
}

func TestTrunkGroups(t *testing.T) {
	g := New(50, 50)
	n := make([]NodeID, 6)
	for i := range n {
		n[i] = addPoint(g, i*5, 10)
	}
	mark := func(e *Edge) { e.Type, e.IsTrunk = EdgeMain, true }

	mark(link(t, g, n[3], n[4], 5))
	mark(link(t, g, n[0], n[1], 5))
	mark(link(t, g, n[1], n[2], 5))
	link(t, g, n[2], n[3], 5).Type = EdgeSide
	link(t, g, n[4], n[5], 5)

	groups := g.TrunkGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, []EdgeID{0}, groups[0].Edges)
	assert.Equal(t, []NodeID{n[3], n[4]}, groups[0].Nodes)
	assert.Equal(t, []EdgeID{1, 2}, groups[1].Edges)
	assert.Equal(t, []NodeID{n[0], n[1], n[2]}, groups[1].Nodes)
	assert.InDelta(t, 13, groups[1].Length(g), 1e-9)
	assert.Len(t, groups[1].Pixels(g), 3)
	assert.NoError(t, g.CheckInvariants())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
