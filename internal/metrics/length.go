package metrics

import (
	"math"

	"nerve-tracer/internal/graph"
)

// SkeletalLength sums the arc length of every edge and node of g, adds one
// step per edge-node junction (1 when the two touch 4-connectedly, √2 when
// only diagonally) and drops the unit placeholder length of single-pixel
// nodes, whose extent the junction steps already cover.
func SkeletalLength(g *graph.Graph) float64 {
	var total float64
	for _, n := range g.Nodes() {
		total += n.Length
		if len(n.Pixels) == 1 {
			total--
		}
	}
	for _, e := range g.Edges() {
		total += e.Length
		total += junctionStep(e, g.Node(e.U))
		total += junctionStep(e, g.Node(e.V))
	}
	return total
}

func junctionStep(e *graph.Edge, n *graph.Node) float64 {
	for _, p := range e.Pixels {
		for _, q := range n.Pixels {
			if p.Adjacent4(q) {
				return 1
			}
		}
	}
	return math.Sqrt2
}

// PrimaryBranches counts the non-trunk edges incident to a node that carries
// exactly two trunk edges. An edge qualifying at both ends counts once.
func PrimaryBranches(g *graph.Graph) int {
	seen := make(map[graph.EdgeID]bool)
	for _, n := range g.Nodes() {
		incident := g.Incident(n.ID)
		trunk := 0
		for _, e := range incident {
			if e.IsTrunk {
				trunk++
			}
		}
		if trunk != 2 {
			continue
		}
		for _, e := range incident {
			if !e.IsTrunk {
				seen[e.ID] = true
			}
		}
	}
	return len(seen)
}

// BranchNodes counts Branch-kind nodes.
func BranchNodes(g *graph.Graph) int {
	n := 0
	for _, node := range g.Nodes() {
		if node.Kind == graph.NodeBranch {
			n++
		}
	}
	return n
}
