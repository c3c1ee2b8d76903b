package graph

import (
	"sort"

	"nerve-tracer/pkg/geometry"
)

// RemoveDimComponents drops connected components whose brightest edge has a
// median intensity below thresh, unless one of their node centroids lies
// within margin of the border. A component without edges counts as intensity
// 0. It returns the number of components removed.
func (g *Graph) RemoveDimComponents(thresh, margin float64) int {
	removed := 0
	for _, comp := range g.Components() {
		var brightest float64
		for _, id := range comp.Edges {
			brightest = max(brightest, g.Edge(id).IntensityMedian)
		}
		if brightest >= thresh {
			continue
		}
		if g.anyNearBorder(comp.Nodes, margin) {
			continue
		}
		for _, id := range comp.Nodes {
			g.RemoveNode(id)
		}
		removed++
	}
	if removed > 0 {
		g.AssignKinds()
	}
	return removed
}

func (g *Graph) anyNearBorder(nodes []NodeID, margin float64) bool {
	for _, id := range nodes {
		if geometry.NearBorder(g.Node(id).Centroid, g.Width, g.Height, margin) {
			return true
		}
	}
	return false
}

// RemoveShortEndEdges deletes edges shorter than minLength that touch an
// End-kind node, drops nodes left without edges and re-derives kinds. It
// returns the number of edges removed.
func (g *Graph) RemoveShortEndEdges(minLength float64) int {
	var doomed []EdgeID
	for _, e := range g.Edges() {
		if e.Length >= minLength {
			continue
		}
		if g.Node(e.U).Kind == NodeEnd || g.Node(e.V).Kind == NodeEnd {
			doomed = append(doomed, e.ID)
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	touched := make(map[NodeID]bool)
	for _, id := range doomed {
		e := g.Edge(id)
		touched[e.U], touched[e.V] = true, true
		g.RemoveEdge(id)
	}
	for _, n := range g.Nodes() {
		if touched[n.ID] && g.Degree(n.ID) == 0 {
			g.RemoveNode(n.ID)
		}
	}
	g.AssignKinds()
	return len(doomed)
}

// TrunkGroup is a maximal connected set of trunk edges with their nodes.
type TrunkGroup struct {
	Nodes []NodeID
	Edges []EdgeID
}

// Length is the summed arc length of the group's edges and nodes.
func (tg TrunkGroup) Length(g *Graph) float64 {
	var total float64
	for _, id := range tg.Edges {
		total += g.Edge(id).Length
	}
	for _, id := range tg.Nodes {
		total += g.Node(id).Length
	}
	return total
}

// Pixels returns every pixel of the group's edges and nodes.
func (tg TrunkGroup) Pixels(g *Graph) []geometry.PointInt {
	var out []geometry.PointInt
	for _, id := range tg.Nodes {
		out = append(out, g.Node(id).Pixels...)
	}
	for _, id := range tg.Edges {
		out = append(out, g.Edge(id).Pixels...)
	}
	return out
}

// TrunkGroups returns the connected components of the subgraph made of
// is_trunk edges, ordered by their smallest edge id.
func (g *Graph) TrunkGroups() []TrunkGroup {
	parent := make(map[NodeID]NodeID)
	var find func(NodeID) NodeID
	find = func(n NodeID) NodeID {
		for parent[n] != n {
			parent[n] = parent[parent[n]]
			n = parent[n]
		}
		return n
	}

	var trunk []*Edge
	for _, e := range g.Edges() {
		if !e.IsTrunk {
			continue
		}
		trunk = append(trunk, e)
		for _, n := range []NodeID{e.U, e.V} {
			if _, ok := parent[n]; !ok {
				parent[n] = n
			}
		}
		a, b := find(e.U), find(e.V)
		if a != b {
			parent[max(a, b)] = min(a, b)
		}
	}

	index := make(map[NodeID]int)
	var groups []TrunkGroup
	for _, e := range trunk {
		root := find(e.U)
		i, ok := index[root]
		if !ok {
			i = len(groups)
			index[root] = i
			groups = append(groups, TrunkGroup{})
		}
		grp := &groups[i]
		grp.Edges = append(grp.Edges, e.ID)
		for _, n := range []NodeID{e.U, e.V} {
			if !containsNode(grp.Nodes, n) {
				grp.Nodes = append(grp.Nodes, n)
			}
		}
	}
	for i := range groups {
		nodes := groups[i].Nodes
		sort.Slice(nodes, func(a, b int) bool { return nodes[a] < nodes[b] })
	}
	return groups
}
