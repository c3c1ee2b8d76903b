// Package metrics turns a classified skeleton graph and its foreground mask
// into the corneal nerve morphology indices.
package metrics

import (
	"nerve-tracer/internal/curvature"
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/graph"
	"nerve-tracer/internal/logger"
	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"

	"go.uber.org/zap"
)

// Options configures unit conversion and output rounding.
type Options struct {
	ViewDiameterMM float64 // physical width of the field of view
	Precision      int     // decimals kept in every index
	Logger         *zap.Logger
}

// DefaultOptions returns the reference settings.
func DefaultOptions() Options {
	return Options{ViewDiameterMM: 0.4, Precision: 3}
}

// Metrics is the fixed set of morphology indices. CNFT is nil when no trunk
// group exists.
type Metrics struct {
	CNFL  float64  `json:"CNFL"`  // fibre length density, mm/mm²
	CNFD  float64  `json:"CNFD"`  // trunk density, n/mm²
	CNBD  float64  `json:"CNBD"`  // primary branch density, n/mm²
	CNFA  float64  `json:"CNFA"`  // fibre area fraction, mm²/mm²
	CNFW  float64  `json:"CNFW"`  // width density
	CTBD  float64  `json:"CTBD"`  // branch point density, n/mm²
	CNFT  *float64 `json:"CNFT"`  // mean trunk tortuosity
	CNFrD float64  `json:"CNFrD"` // box-counting fractal dimension
}

// Counts holds the unrounded raw quantities the indices are derived from.
type Counts struct {
	LengthPx        float64   `json:"length_px"`
	AreaPx          int       `json:"area_px"`
	TrunkGroups     int       `json:"trunk_groups"`
	PrimaryBranches int       `json:"primary_branches"`
	BranchNodes     int       `json:"branch_nodes"`
	Tortuosity      []float64 `json:"tortuosity"`
	Fractal         float64   `json:"fractal"`
}

// Compute derives the indices from g and the foreground mask. The mask fixes
// the field size used for unit conversion.
func Compute(g *graph.Graph, foreground *raster.Raster, opts Options) (Metrics, Counts, error) {
	log := logger.OrNop(opts.Logger)

	if foreground == nil || foreground.Width == 0 || foreground.Height == 0 {
		return Metrics{}, Counts{}, errors.InputContractf("foreground mask is empty")
	}
	if foreground.Width != g.Width || foreground.Height != g.Height {
		return Metrics{}, Counts{}, errors.InputContractf("foreground %dx%d does not match graph field %dx%d",
			foreground.Width, foreground.Height, g.Width, g.Height)
	}
	if opts.ViewDiameterMM <= 0 {
		return Metrics{}, Counts{}, errors.Newf("view diameter must be positive, got %g", opts.ViewDiameterMM)
	}

	groups := g.TrunkGroups()
	c := Counts{
		LengthPx:        SkeletalLength(g),
		AreaPx:          foreground.CountNonZero(),
		TrunkGroups:     len(groups),
		PrimaryBranches: PrimaryBranches(g),
		BranchNodes:     BranchNodes(g),
		Fractal:         FractalDimension(foreground),
	}
	for _, grp := range groups {
		c.Tortuosity = append(c.Tortuosity, curvature.Tortuosity(curvature.Pixels(TrunkPath(g, grp))))
	}

	d := opts.ViewDiameterMM
	viewArea := d * d
	mmPerPx := d / float64(foreground.Width)
	mm2PerPx := d * d / float64(foreground.Width*foreground.Height)

	lengthMM := c.LengthPx * mmPerPx
	areaMM2 := float64(c.AreaPx) * mm2PerPx

	round := func(v float64) float64 { return geometry.Round(v, opts.Precision) }
	m := Metrics{
		CNFL:  round(lengthMM / viewArea),
		CNFD:  round(float64(c.TrunkGroups) / viewArea),
		CNBD:  round(float64(c.PrimaryBranches) / viewArea),
		CNFA:  round(areaMM2 / viewArea),
		CTBD:  round(float64(c.BranchNodes) / viewArea),
		CNFrD: round(c.Fractal),
	}
	if lengthMM > 0 {
		m.CNFW = round(areaMM2 / lengthMM / viewArea)
	}
	if len(c.Tortuosity) > 0 {
		var sum float64
		for _, t := range c.Tortuosity {
			sum += t
		}
		tc := round(sum / float64(len(c.Tortuosity)))
		m.CNFT = &tc
	}

	log.Debug("metrics computed",
		zap.String(logger.FieldStage, "metrics"),
		zap.Float64("length_px", c.LengthPx),
		zap.Int(logger.FieldCount, c.TrunkGroups))
	return m, c, nil
}

// TrunkPath returns the pixel path of a trunk group between its two
// farthest-apart ends, where an end is a node with exactly one trunk edge to
// another node. Groups with fewer than two ends fall back to all their
// pixels chained into a path.
func TrunkPath(g *graph.Graph, grp graph.TrunkGroup) []geometry.PointInt {
	pixels := grp.Pixels(g)
	ends := groupEnds(g, grp)
	if len(ends) < 2 {
		return chain(pixels)
	}

	var a, b *graph.Node
	best := -1.0
	for i := range ends {
		for j := i + 1; j < len(ends); j++ {
			if d := ends[i].Centroid.Distance(ends[j].Centroid); d > best {
				a, b, best = ends[i], ends[j], d
			}
		}
	}

	mask := raster.FromPixels(g.Width, g.Height, pixels)
	path, ok := FindPath(mask, a.Centroid, b.Centroid, 3)
	if !ok {
		return chain(pixels)
	}
	return path
}

func groupEnds(g *graph.Graph, grp graph.TrunkGroup) []*graph.Node {
	inGroup := make(map[graph.EdgeID]bool, len(grp.Edges))
	for _, id := range grp.Edges {
		inGroup[id] = true
	}
	var ends []*graph.Node
	for _, id := range grp.Nodes {
		deg := 0
		for _, e := range g.Incident(id) {
			if inGroup[e.ID] && !e.SelfLoop() {
				deg++
			}
		}
		if deg == 1 {
			ends = append(ends, g.Node(id))
		}
	}
	return ends
}

func chain(pixels []geometry.PointInt) []geometry.PointInt {
	ordered := curvature.OrderPath(curvature.Pixels(pixels))
	out := make([]geometry.PointInt, len(ordered))
	for i, p := range ordered {
		out[i] = geometry.PointInt{X: int(p.X), Y: int(p.Y)}
	}
	return out
}
