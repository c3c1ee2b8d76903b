// Package graph holds the labelled skeleton multigraph: an arena of nodes and
// edges addressed by stable integer ids.
package graph

import (
	"sort"

	"nerve-tracer/internal/errors"
	"nerve-tracer/pkg/geometry"
)

// NodeID identifies a node within one Graph.
type NodeID int

// EdgeID identifies an edge within one Graph.
type EdgeID int

// NodeKind is derived from a node's degree.
type NodeKind int

const (
	NodeOther  NodeKind = iota // degree 0 or 2
	NodeEnd                    // degree 1
	NodeBranch                 // degree 3 or more
)

func (k NodeKind) String() string {
	switch k {
	case NodeEnd:
		return "End"
	case NodeBranch:
		return "Branch"
	default:
		return "Other"
	}
}

// EdgeType is the trunk classification of an edge.
type EdgeType int

const (
	EdgeUnset EdgeType = iota
	EdgeMain
	EdgeSide
)

func (t EdgeType) String() string {
	switch t {
	case EdgeMain:
		return "main"
	case EdgeSide:
		return "side"
	default:
		return "unset"
	}
}

// Node is a skeleton endpoint or branch cluster.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Pixels   []geometry.PointInt
	Centroid geometry.Point2D
	Length   float64
	Body     []geometry.PointInt // reconstructed fibre region, optional
}

// Edge is a run of interior skeleton pixels between two nodes.
type Edge struct {
	ID       EdgeID
	U, V     NodeID
	Key      int // distinguishes parallel edges between U and V
	Pixels   []geometry.PointInt
	Centroid geometry.Point2D
	Length   float64

	IntensityMedian float64 // (0, 1], 0 when unsampled
	IntensityMean   float64 // (0, 1], 0 when unsampled
	WidthSamples    []float64
	Width           float64 // mean of WidthSamples

	Type    EdgeType
	IsTrunk bool
	Body    []geometry.PointInt
}

// SelfLoop reports whether both ends attach to the same node.
func (e *Edge) SelfLoop() bool { return e.U == e.V }

// Other returns the endpoint of e opposite n.
func (e *Edge) Other(n NodeID) NodeID {
	if e.U == n {
		return e.V
	}
	return e.U
}

// Touches reports whether n is one of e's endpoints.
func (e *Edge) Touches(n NodeID) bool { return e.U == n || e.V == n }

// Graph is an undirected multigraph over a width x height field.
type Graph struct {
	Width  int
	Height int

	nodes    []*Node // nil once removed
	edges    []*Edge // nil once removed
	incident [][]EdgeID
}

// New creates an empty graph for a width x height field.
func New(width, height int) *Graph {
	return &Graph{Width: width, Height: height}
}

// AddNode stores n under the next node id and returns it.
func (g *Graph) AddNode(n *Node) NodeID {
	n.ID = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.incident = append(g.incident, nil)
	return n.ID
}

// AddEdge stores e between u and v under the next edge id. The multigraph key
// is the smallest key not held by a live edge joining the same unordered
// pair, which is the count of such edges as long as none was removed.
func (g *Graph) AddEdge(u, v NodeID, e *Edge) (EdgeID, error) {
	if g.Node(u) == nil || g.Node(v) == nil {
		return 0, errors.Newf("edge endpoints %d-%d are not live nodes", u, v)
	}
	used := make(map[int]bool)
	for _, id := range g.incident[u] {
		if other := g.edges[id]; other.Other(u) == v {
			used[other.Key] = true
		}
	}
	key := 0
	for used[key] {
		key++
	}

	e.ID = EdgeID(len(g.edges))
	e.U, e.V, e.Key = u, v, key
	g.edges = append(g.edges, e)
	g.incident[u] = append(g.incident[u], e.ID)
	g.incident[v] = append(g.incident[v], e.ID)
	return e.ID, nil
}

// Node returns the live node with id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Edge returns the live edge with id, or nil.
func (g *Graph) Edge(id EdgeID) *Edge {
	if id < 0 || int(id) >= len(g.edges) {
		return nil
	}
	return g.edges[id]
}

// EdgeByKey finds the live edge (u, v, key) regardless of orientation.
func (g *Graph) EdgeByKey(u, v NodeID, key int) *Edge {
	if g.Node(u) == nil {
		return nil
	}
	for _, id := range g.incident[u] {
		e := g.edges[id]
		if e.Key == key && ((e.U == u && e.V == v) || (e.U == v && e.V == u)) {
			return e
		}
	}
	return nil
}

// Nodes returns the live nodes in id order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the live edges in id order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// NumNodes counts live nodes.
func (g *Graph) NumNodes() int { return len(g.Nodes()) }

// NumEdges counts live edges.
func (g *Graph) NumEdges() int { return len(g.Edges()) }

// Incident returns the live edges touching n in id order. A self-loop appears
// once.
func (g *Graph) Incident(n NodeID) []*Edge {
	if g.Node(n) == nil {
		return nil
	}
	var out []*Edge
	var last EdgeID = -1
	for _, id := range g.incident[n] {
		if id == last {
			continue
		}
		out = append(out, g.edges[id])
		last = id
	}
	return out
}

// Degree is the multigraph degree of n; a self-loop counts twice.
func (g *Graph) Degree(n NodeID) int {
	if g.Node(n) == nil {
		return 0
	}
	return len(g.incident[n])
}

// NonSelfDegree counts the edges at n that lead to another node.
func (g *Graph) NonSelfDegree(n NodeID) int {
	d := 0
	for _, e := range g.Incident(n) {
		if !e.SelfLoop() {
			d++
		}
	}
	return d
}

// KindForDegree maps a non-self degree onto a node kind.
func KindForDegree(d int) NodeKind {
	switch {
	case d == 1:
		return NodeEnd
	case d >= 3:
		return NodeBranch
	default:
		return NodeOther
	}
}

// AssignKinds re-derives every node's kind from its non-self degree.
func (g *Graph) AssignKinds() {
	for _, n := range g.Nodes() {
		n.Kind = KindForDegree(g.NonSelfDegree(n.ID))
	}
}

// RemoveEdge deletes a live edge.
func (g *Graph) RemoveEdge(id EdgeID) {
	e := g.Edge(id)
	if e == nil {
		return
	}
	g.incident[e.U] = dropEdge(g.incident[e.U], id)
	if e.V != e.U {
		g.incident[e.V] = dropEdge(g.incident[e.V], id)
	}
	g.edges[id] = nil
}

// RemoveNode deletes a node and every edge touching it.
func (g *Graph) RemoveNode(id NodeID) {
	if g.Node(id) == nil {
		return
	}
	for _, e := range g.Incident(id) {
		g.RemoveEdge(e.ID)
	}
	g.nodes[id] = nil
	g.incident[id] = nil
}

func dropEdge(ids []EdgeID, id EdgeID) []EdgeID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// Component is a connected set of nodes with the edges among them.
type Component struct {
	Nodes []NodeID
	Edges []EdgeID
}

// Components partitions the live graph into connected components, ordered by
// their smallest node id, with node and edge ids sorted.
func (g *Graph) Components() []Component {
	seen := make([]bool, len(g.nodes))
	var comps []Component

	for _, start := range g.Nodes() {
		if seen[start.ID] {
			continue
		}
		var comp Component
		edgeSeen := make(map[EdgeID]bool)
		stack := []NodeID{start.ID}
		seen[start.ID] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp.Nodes = append(comp.Nodes, n)
			for _, e := range g.Incident(n) {
				if !edgeSeen[e.ID] {
					edgeSeen[e.ID] = true
					comp.Edges = append(comp.Edges, e.ID)
				}
				if o := e.Other(n); !seen[o] {
					seen[o] = true
					stack = append(stack, o)
				}
			}
		}
		sort.Slice(comp.Nodes, func(i, j int) bool { return comp.Nodes[i] < comp.Nodes[j] })
		sort.Slice(comp.Edges, func(i, j int) bool { return comp.Edges[i] < comp.Edges[j] })
		comps = append(comps, comp)
	}
	return comps
}

// CheckInvariants verifies the structural rules every analysis relies on.
func (g *Graph) CheckInvariants() error {
	for _, e := range g.Edges() {
		if g.Node(e.U) == nil || g.Node(e.V) == nil {
			return errors.Newf("edge %d attaches to a removed node", e.ID)
		}
		if e.Length < 1 {
			return errors.Newf("edge %d has length %g < 1", e.ID, e.Length)
		}
		if e.IsTrunk && e.Type != EdgeMain {
			return errors.Newf("edge %d is trunk but typed %s", e.ID, e.Type)
		}
		if g.EdgeByKey(e.U, e.V, e.Key) != e {
			return errors.Newf("edge %d shares key %d between nodes %d and %d", e.ID, e.Key, e.U, e.V)
		}
	}
	for _, n := range g.Nodes() {
		if n.Length < 1 {
			return errors.Newf("node %d has length %g < 1", n.ID, n.Length)
		}
		if want := KindForDegree(g.NonSelfDegree(n.ID)); n.Kind != want {
			return errors.Newf("node %d is %s but degree says %s", n.ID, n.Kind, want)
		}
	}
	return nil
}
