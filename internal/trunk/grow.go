package trunk

import (
	"fmt"
	"math"

	"nerve-tracer/internal/curvature"
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/graph"
	"nerve-tracer/pkg/geometry"
)

// componentRun owns the edges of one connected component while it is being
// classified.
type componentRun struct {
	g     *graph.Graph
	index int
	edges []*graph.Edge
	opts  Options

	iterations int
	budget     int
}

func newComponentRun(g *graph.Graph, index int, comp graph.Component, opts Options) *componentRun {
	edges := make([]*graph.Edge, len(comp.Edges))
	for i, id := range comp.Edges {
		edges[i] = g.Edge(id)
	}
	budget := opts.MaxIterations
	if budget <= 0 {
		budget = 8*len(edges) + 64
	}
	return &componentRun{g: g, index: index, edges: edges, opts: opts, budget: budget}
}

func (c *componentRun) step() error {
	c.iterations++
	if c.iterations > c.budget {
		return errors.IterationBudgetf("trunk growth in component %d exceeded %d iterations", c.index, c.budget)
	}
	return nil
}

func (c *componentRun) classify() ([]Outcome, error) {
	var out []Outcome
	for {
		seed := c.selectSeed()
		if seed == nil {
			return out, nil
		}
		if err := c.step(); err != nil {
			return nil, err
		}
		o, err := c.growSeed(seed)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
}

// selectSeed picks the widest unclassified, non-loop edge longer than a
// threshold that starts at SeedLengthInitial and decays by SeedLengthStep.
func (c *componentRun) selectSeed() *graph.Edge {
	step := c.opts.SeedLengthStep
	if step <= 0 {
		step = 1
	}
	for thresh := c.opts.SeedLengthInitial; thresh >= 0; thresh -= step {
		var best *graph.Edge
		for _, e := range c.edges {
			if e.SelfLoop() || e.Type != graph.EdgeUnset || e.Length <= thresh {
				continue
			}
			if best == nil || e.Width > best.Width {
				best = e
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func (c *componentRun) growSeed(seed *graph.Edge) (Outcome, error) {
	o := Outcome{Component: c.index, Seed: seed.ID, State: SeedSelected}
	seed.Type = graph.EdgeMain
	trunk := []*graph.Edge{seed}

	o.State = GrowingSideA
	grown, err := c.extend(seed.U, seed)
	if err != nil {
		return o, err
	}
	trunk = append(trunk, grown...)

	o.State = GrowingSideB
	grown, err = c.extend(seed.V, seed)
	if err != nil {
		return o, err
	}
	trunk = append(trunk, grown...)

	for _, e := range trunk {
		o.Edges = append(o.Edges, e.ID)
		o.Length += e.Length
		o.Width += e.Length * e.Width
	}
	if o.Length > 0 {
		o.Width /= o.Length
	}

	o.Reason = c.rejection(trunk, o.Length, o.Width)
	if o.Reason != "" {
		o.State = Rejected
		for _, e := range trunk {
			e.Type = graph.EdgeSide
		}
		return o, nil
	}
	o.State = Accepted
	for _, e := range trunk {
		e.IsTrunk = true
	}
	return o, nil
}

// rejection explains why trunk fails acceptance, or returns "".
func (c *componentRun) rejection(trunk []*graph.Edge, length, width float64) string {
	if length < c.opts.MinTrunkLength {
		return fmt.Sprintf("length %.1f below %.1f", length, c.opts.MinTrunkLength)
	}
	minWidth := c.opts.MinTrunkWidth * c.opts.AreaFraction * c.opts.AreaFraction
	if width < minWidth {
		return fmt.Sprintf("width %.1f below %.1f", width, minWidth)
	}
	for _, n := range terminals(trunk) {
		if d := c.g.Degree(n); d > 1 {
			return fmt.Sprintf("terminal node %d has degree %d", n, d)
		}
	}
	return ""
}

// terminals lists the nodes that appear exactly once among the endpoints of
// the given edges, in first-seen order.
func terminals(edges []*graph.Edge) []graph.NodeID {
	count := make(map[graph.NodeID]int)
	var order []graph.NodeID
	for _, e := range edges {
		for _, n := range [2]graph.NodeID{e.U, e.V} {
			if count[n] == 0 {
				order = append(order, n)
			}
			count[n]++
		}
	}
	var out []graph.NodeID
	for _, n := range order {
		if count[n] == 1 {
			out = append(out, n)
		}
	}
	return out
}

// candidatePath is a run of unclassified edges leaving the growth node.
type candidatePath struct {
	edges   []*graph.Edge
	end     graph.NodeID
	visited []graph.NodeID
}

func (p candidatePath) first() *graph.Edge    { return p.edges[0] }
func (p candidatePath) terminal() *graph.Edge { return p.edges[len(p.edges)-1] }

func (p candidatePath) seen(n graph.NodeID) bool {
	for _, v := range p.visited {
		if v == n {
			return true
		}
	}
	return false
}

// candidates enumerates continuation paths from start with an explicit
// stack. A path keeps extending through edges shorter than ShortEdgeLength,
// never revisits a node and stops at the first long edge or at a dead end.
// More than MaxFrontier pending partial paths is an ErrIterationBudget
// failure; candidates are never dropped.
func (c *componentRun) candidates(start graph.NodeID) ([]candidatePath, error) {
	limit := c.opts.MaxFrontier
	if limit <= 0 {
		limit = math.MaxInt
	}

	var stack []candidatePath
	for _, e := range c.g.Incident(start) {
		if e.Type != graph.EdgeUnset {
			continue
		}
		if len(stack) >= limit {
			return nil, c.frontierExceeded(start, limit)
		}
		n := e.Other(start)
		stack = append(stack, candidatePath{
			edges:   []*graph.Edge{e},
			end:     n,
			visited: []graph.NodeID{start, n},
		})
	}

	var out []candidatePath
	for len(stack) > 0 {
		if err := c.step(); err != nil {
			return nil, err
		}
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.terminal().Length >= c.opts.ShortEdgeLength {
			out = append(out, p)
			continue
		}
		var next []*graph.Edge
		for _, e := range c.g.Incident(p.end) {
			if e.Type == graph.EdgeUnset && !p.seen(e.Other(p.end)) && !containsEdge(p.edges, e) {
				next = append(next, e)
			}
		}
		if len(next) == 0 {
			out = append(out, p)
			continue
		}
		for _, e := range next {
			if len(stack) >= limit {
				return nil, c.frontierExceeded(p.end, limit)
			}
			n := e.Other(p.end)
			stack = append(stack, candidatePath{
				edges:   append(append([]*graph.Edge(nil), p.edges...), e),
				end:     n,
				visited: append(append([]graph.NodeID(nil), p.visited...), n),
			})
		}
	}
	return out, nil
}

func (c *componentRun) frontierExceeded(node graph.NodeID, limit int) error {
	return errors.WithDetailf(
		errors.IterationBudgetf("candidate frontier in component %d exceeded %d paths", c.index, limit),
		"component=%d node=%d frontier=%d", c.index, node, limit)
}

// extend grows the trunk from node, away from the edge it arrived on, and
// returns the edges newly labelled main.
func (c *componentRun) extend(node graph.NodeID, arrived *graph.Edge) ([]*graph.Edge, error) {
	if arrived.SelfLoop() {
		return nil, nil
	}

	var grown []*graph.Edge
	current := arrived
	for {
		if err := c.step(); err != nil {
			return nil, err
		}
		prev := current.Other(node)
		heading := c.centroid(node).Sub(c.centroid(prev))

		paths, err := c.candidates(node)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return grown, nil
		}

		var admissible []candidatePath
		for _, p := range paths {
			dir := c.centroid(p.first().Other(node)).Sub(c.centroid(node))
			if geometry.AngleBetween(heading, dir) <= c.opts.AngleToleranceDeg {
				admissible = append(admissible, p)
			}
		}
		if len(admissible) == 0 {
			for _, p := range paths {
				markSide(p.edges)
			}
			return grown, nil
		}

		best := c.choose(node, current, admissible)
		for _, e := range best.edges {
			if e.Type == graph.EdgeUnset {
				e.Type = graph.EdgeMain
				grown = append(grown, e)
			}
		}
		for _, p := range paths {
			if !sameEdges(p.edges, best.edges) {
				markSide(p.edges)
			}
		}

		pivot := node
		if n := len(best.edges); n > 1 {
			shared, ok := sharedNode(best.edges[n-2], best.edges[n-1])
			if !ok {
				return grown, nil
			}
			pivot = shared
		}
		current = best.terminal()
		if current.SelfLoop() {
			return grown, nil
		}
		node = current.Other(pivot)
	}
}

// choose returns the admissible path with the lowest continuation cost. A
// single admissible path is taken without scoring; ties keep the first.
func (c *componentRun) choose(node graph.NodeID, current *graph.Edge, paths []candidatePath) candidatePath {
	if len(paths) == 1 {
		return paths[0]
	}
	best, bestCost := paths[0], math.Inf(1)
	for _, p := range paths {
		if cost := c.cost(node, current, p); cost < bestCost {
			best, bestCost = p, cost
		}
	}
	return best
}

func (c *componentRun) cost(node graph.NodeID, current *graph.Edge, p candidatePath) float64 {
	kappa := curvature.AtPoint(
		curvature.Pixels(current.Pixels),
		curvature.Pixels(p.first().Pixels),
		c.centroid(node),
		c.opts.Curvature,
	)
	term := p.terminal()
	return c.opts.CurvatureWeight*kappa +
		c.opts.IntensityWeight*math.Abs(current.IntensityMedian-term.IntensityMedian) +
		c.opts.WidthWeight*math.Abs(current.Width-term.Width)/255
}

func (c *componentRun) centroid(n graph.NodeID) geometry.Point2D {
	return c.g.Node(n).Centroid
}

func markSide(edges []*graph.Edge) {
	for _, e := range edges {
		if e.Type == graph.EdgeUnset {
			e.Type = graph.EdgeSide
		}
	}
}

func sameEdges(a, b []*graph.Edge) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsEdge(edges []*graph.Edge, e *graph.Edge) bool {
	for _, x := range edges {
		if x == e {
			return true
		}
	}
	return false
}

func sharedNode(a, b *graph.Edge) (graph.NodeID, bool) {
	switch {
	case b.Touches(a.U):
		return a.U, true
	case b.Touches(a.V):
		return a.V, true
	}
	return 0, false
}

func nearBorder(g *graph.Graph, n *graph.Node, margin float64) bool {
	return geometry.NearBorder(n.Centroid, g.Width, g.Height, margin)
}
