// Package trunk labels the main nerve trunks of a skeleton graph. Each
// connected component is processed on its own: a seed edge is grown in both
// directions along the straightest continuation, and the grown path is kept
// as a trunk only if it is long, wide and ends at graph leaves.
package trunk

import (
	"context"
	"runtime"

	"nerve-tracer/internal/curvature"
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/graph"
	"nerve-tracer/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures trunk classification.
type Options struct {
	SeedLengthInitial float64
	SeedLengthStep    float64
	ShortEdgeLength   float64
	AngleToleranceDeg float64
	MinTrunkLength    float64
	MinTrunkWidth     float64

	CurvatureWeight float64
	IntensityWeight float64
	WidthWeight     float64
	Curvature       curvature.Options

	MaxFrontier   int
	MaxIterations int // per component; 0 derives the cap from the edge count

	// AreaFraction is the foreground share of the field; the width
	// threshold scales with its square.
	AreaFraction float64

	Workers int
	Logger  *zap.Logger
}

// DefaultOptions returns the reference settings for a fully covered field.
func DefaultOptions() Options {
	return Options{
		SeedLengthInitial: 25,
		SeedLengthStep:    5,
		ShortEdgeLength:   1,
		AngleToleranceDeg: 60,
		MinTrunkLength:    300,
		MinTrunkWidth:     150,
		CurvatureWeight:   0.5,
		IntensityWeight:   0.5,
		WidthWeight:       0.25,
		Curvature:         curvature.DefaultOptions(),
		MaxFrontier:       64,
		AreaFraction:      1,
	}
}

// State is the lifecycle of one seed.
type State int

const (
	SeedSelected State = iota
	GrowingSideA
	GrowingSideB
	Accepted
	Rejected
)

func (s State) String() string {
	switch s {
	case SeedSelected:
		return "seed_selected"
	case GrowingSideA:
		return "growing_side_a"
	case GrowingSideB:
		return "growing_side_b"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome records how one seed ended.
type Outcome struct {
	Component int
	Seed      graph.EdgeID
	Edges     []graph.EdgeID
	Length    float64
	Width     float64 // length-weighted mean width
	State     State
	Reason    string // why a rejected trunk failed
}

// Result lists every seed outcome, ordered by component then seed order.
type Result struct {
	Outcomes []Outcome
}

// Accepted counts the accepted seeds.
func (r Result) Accepted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == Accepted {
			n++
		}
	}
	return n
}

// Classify resets every edge's classification and labels trunks component by
// component. Components touch disjoint edge sets, so they run concurrently on
// up to opts.Workers goroutines; the graph's structure is only read.
func Classify(ctx context.Context, g *graph.Graph, opts Options) (Result, error) {
	log := logger.OrNop(opts.Logger)

	for _, e := range g.Edges() {
		e.Type, e.IsTrunk = graph.EdgeUnset, false
	}

	comps := g.Components()
	perComp := make([][]Outcome, len(comps))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, comp := range comps {
		if len(comp.Edges) == 0 {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run := newComponentRun(g, i, comp, opts)
			out, err := run.classify()
			if err != nil {
				return errors.Wrapf(err, "component %d", i)
			}
			perComp[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, out := range perComp {
		res.Outcomes = append(res.Outcomes, out...)
	}
	log.Debug("trunks classified",
		zap.String(logger.FieldStage, "trunk"),
		zap.Int(logger.FieldComponent, len(comps)),
		zap.Int(logger.FieldCount, res.Accepted()))
	return res, nil
}

// Demote clears is_trunk on trunk groups whose summed edge and node length is
// below minLength, or none of whose End nodes lies within margin of the
// border. It returns the number of groups demoted.
func Demote(g *graph.Graph, minLength, margin float64) int {
	demoted := 0
	for _, grp := range g.TrunkGroups() {
		if grp.Length(g) >= minLength && reachesBorder(g, grp, margin) {
			continue
		}
		for _, id := range grp.Edges {
			g.Edge(id).IsTrunk = false
		}
		demoted++
	}
	return demoted
}

func reachesBorder(g *graph.Graph, grp graph.TrunkGroup, margin float64) bool {
	for _, id := range grp.Nodes {
		n := g.Node(id)
		if n.Kind == graph.NodeEnd && nearBorder(g, n, margin) {
			return true
		}
	}
	return false
}
