package skeleton

import (
	"time"

	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/logger"
	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"

	"go.uber.org/zap"
)

// PruneOptions configures the pruning engine.
type PruneOptions struct {
	LengthThresh  int            // end segments with fewer pixels are removed
	MaxIterations int            // 0 = initial pixel count + 1
	Thinner       raster.Thinner // nil = raster.ZhangSuen
	Logger        *zap.Logger
}

// DefaultPruneOptions returns the reference pruning parameters.
func DefaultPruneOptions() PruneOptions {
	return PruneOptions{LengthThresh: 5}
}

// PruneStats reports what the fixed-point loop did.
type PruneStats struct {
	Iterations    int
	InitialPixels int
	FinalPixels   int
	// PixelCounts holds the foreground count after every iteration.
	PixelCounts []int
}

// Prune removes spurs and redundant branch-cluster pixels from skel until the
// foreground pixel count stops changing. skel is not modified.
func Prune(skel *raster.Raster, opts PruneOptions) (*raster.Raster, PruneStats, error) {
	log := logger.OrNop(opts.Logger)
	thinner := opts.Thinner
	if thinner == nil {
		thinner = raster.ZhangSuen
	}

	start := time.Now()
	current := skel.Binarize()
	stats := PruneStats{InitialPixels: current.CountNonZero()}
	limit := opts.MaxIterations
	if limit <= 0 {
		limit = stats.InitialPixels + 1
	}

	count := stats.InitialPixels
	for {
		if stats.Iterations >= limit {
			return nil, stats, errors.IterationBudgetf(
				"pruning did not converge within %d iterations (%d pixels left)", limit, count)
		}

		next, err := pruneOnce(current, opts.LengthThresh, thinner)
		if err != nil {
			return nil, stats, errors.Wrapf(err, "prune iteration %d", stats.Iterations+1)
		}
		stats.Iterations++

		nextCount := next.CountNonZero()
		stats.PixelCounts = append(stats.PixelCounts, nextCount)
		if nextCount > count {
			return nil, stats, errors.Newf("pruning grew the skeleton from %d to %d pixels", count, nextCount)
		}

		current = next
		if nextCount == count {
			break
		}
		count = nextCount
	}

	stats.FinalPixels = count
	log.Debug("skeleton pruned",
		zap.String(logger.FieldStage, "prune"),
		zap.Int(logger.FieldIterations, stats.Iterations),
		zap.Int(logger.FieldPixels, stats.FinalPixels),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()))
	return current, stats, nil
}

func pruneOnce(skel *raster.Raster, lengthThresh int, thinner raster.Thinner) (*raster.Raster, error) {
	cls := Classify(skel)

	branchPoints, err := TrueBranchPoints(skel, cls)
	if err != nil {
		return nil, err
	}
	isBranchPoint := make(map[geometry.PointInt]bool, len(branchPoints))
	for _, p := range branchPoints {
		isBranchPoint[p] = true
	}

	out := skel.Clone()

	// Short end branches: segments of endpoint and interior pixels that
	// contain an endpoint and are shorter than the threshold.
	segments, err := raster.Components(cls.Mask(Endpoint, Interior), raster.Conn8)
	if err != nil {
		return nil, err
	}
	for _, seg := range segments {
		if len(seg) >= lengthThresh {
			continue
		}
		hasEnd := false
		for _, p := range seg {
			if cls.At(p.X, p.Y) == Endpoint && !isBranchPoint[p] {
				hasEnd = true
				break
			}
		}
		if !hasEnd {
			continue
		}
		for _, p := range seg {
			out.Set(p.X, p.Y, 0)
		}
	}

	// Redundant cluster pixels: remaining neighbours stay 4-connected without them.
	for y := 0; y < skel.Height; y++ {
		for x := 0; x < skel.Width; x++ {
			p := geometry.PointInt{X: x, Y: y}
			if cls.At(x, y) != BranchCluster || isBranchPoint[p] || !out.IsOn(x, y) {
				continue
			}
			var nbs []geometry.PointInt
			for _, o := range geometry.Offsets8 {
				q := p.Offset(o.X, o.Y)
				if out.IsOn(q.X, q.Y) {
					nbs = append(nbs, q)
				}
			}
			if fourConnected(nbs) {
				out.Set(x, y, 0)
			}
		}
	}

	return thinner.Thin(out), nil
}
