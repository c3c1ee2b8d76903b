// Package analysis runs the full skeleton-to-metrics pipeline for one image:
// pruning, graph construction, profiling, trunk classification, cleanup and
// metric aggregation. Every call is independent and keeps no state.
package analysis

import (
	"context"
	"time"

	"nerve-tracer/internal/config"
	"nerve-tracer/internal/curvature"
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/graph"
	"nerve-tracer/internal/logger"
	"nerve-tracer/internal/metrics"
	"nerve-tracer/internal/profile"
	"nerve-tracer/internal/raster"
	"nerve-tracer/internal/skeleton"
	"nerve-tracer/internal/trunk"

	"go.uber.org/zap"
)

// Inputs are the caller-owned rasters of one image. They are never modified.
type Inputs struct {
	Image      *raster.Raster // illumination-corrected grayscale
	Foreground *raster.Raster // segmented fibre mask
	Skeleton   *raster.Raster // one-pixel-wide skeleton, values in {0, 255}
	Intensity  *raster.Raster // optional; defaults to Image masked to the skeleton
}

// Options configures a run. A nil Config means config.DefaultConfig.
type Options struct {
	Config  *config.Config
	Thinner raster.Thinner // nil = raster.ZhangSuen
	Logger  *zap.Logger
}

// Result is everything one analysis produced. Graph and Skeleton are owned
// by the result and must be treated as read-only.
type Result struct {
	Metrics  metrics.Metrics
	Counts   metrics.Counts
	Graph    *graph.Graph
	Skeleton *raster.Raster // pruned skeleton
	Prune    skeleton.PruneStats
	Trunks   trunk.Result
}

// Validate checks the input contract: all rasters present, equal in size,
// matching the configured field when one is set, and a strictly binary
// skeleton.
func (in Inputs) Validate(cfg *config.Config) error {
	if in.Image == nil || in.Foreground == nil || in.Skeleton == nil {
		return errors.InputContractf("image, foreground and skeleton rasters are required")
	}
	others := []struct {
		name string
		r    *raster.Raster
	}{{"foreground", in.Foreground}, {"skeleton", in.Skeleton}, {"intensity", in.Intensity}}
	for _, o := range others {
		if o.r != nil && !o.r.SameSize(in.Image) {
			return errors.InputContractf("%s is %dx%d, image is %dx%d",
				o.name, o.r.Width, o.r.Height, in.Image.Width, in.Image.Height)
		}
	}
	if w, h := cfg.Field.Width, cfg.Field.Height; w > 0 && h > 0 && (in.Image.Width != w || in.Image.Height != h) {
		return errors.InputContractf("rasters are %dx%d, field is configured as %dx%d",
			in.Image.Width, in.Image.Height, w, h)
	}
	if v, ok := in.Skeleton.CheckBinary(); !ok {
		return errors.InputContractf("skeleton contains value %d, want only 0 and 255", v)
	}
	return nil
}

// Analyze runs the pipeline on one image.
func Analyze(ctx context.Context, in Inputs, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := logger.OrNop(opts.Logger)
	start := time.Now()

	if err := in.Validate(cfg); err != nil {
		return nil, err
	}

	pruned, stats, err := skeleton.Prune(in.Skeleton, skeleton.PruneOptions{
		LengthThresh:  cfg.Prune.LengthThresh,
		MaxIterations: cfg.Prune.MaxIterations,
		Thinner:       opts.Thinner,
		Logger:        log,
	})
	if err != nil {
		return nil, errors.Wrap(err, "prune skeleton")
	}

	g, err := graph.Build(pruned, graph.BuildOptions{Logger: log})
	if err != nil {
		return nil, errors.Wrap(err, "build graph")
	}

	if err := profileGraph(g, in, pruned, cfg, log); err != nil {
		return nil, errors.Wrap(err, "profile graph")
	}

	if cfg.Filter.Enabled {
		n := g.RemoveDimComponents(cfg.Filter.IntensityThresh, cfg.Filter.BorderMargin)
		log.Debug("dim components removed", zap.String(logger.FieldStage, "filter"), zap.Int(logger.FieldCount, n))
	}
	g.AssignKinds()

	fg := in.Foreground.Binarize()
	trunks, err := trunk.Classify(ctx, g, trunkOptions(cfg, fg, log))
	if err != nil {
		return nil, errors.Wrap(err, "classify trunks")
	}
	demoted := trunk.Demote(g, cfg.Cleanup.MinGroupLength, cfg.Cleanup.BorderMargin)
	removed := g.RemoveShortEndEdges(cfg.Cleanup.MinEndEdgeLength)
	log.Debug("graph cleaned",
		zap.String(logger.FieldStage, "cleanup"),
		zap.Int("demoted_groups", demoted),
		zap.Int("removed_edges", removed))
	if err := g.CheckInvariants(); err != nil {
		return nil, errors.Wrap(err, "cleaned graph")
	}

	m, counts, err := metrics.Compute(g, fg, metrics.Options{
		ViewDiameterMM: cfg.Field.ViewDiameterMM,
		Precision:      cfg.Metrics.Precision,
		Logger:         log,
	})
	if err != nil {
		return nil, errors.Wrap(err, "compute metrics")
	}

	log.Info("analysis complete",
		zap.Int(logger.FieldNodes, g.NumNodes()),
		zap.Int(logger.FieldEdges, g.NumEdges()),
		zap.Int("trunks", counts.TrunkGroups),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()))

	return &Result{
		Metrics:  m,
		Counts:   counts,
		Graph:    g,
		Skeleton: pruned,
		Prune:    stats,
		Trunks:   trunks,
	}, nil
}

func profileGraph(g *graph.Graph, in Inputs, skel *raster.Raster, cfg *config.Config, log *zap.Logger) error {
	intensity := in.Intensity
	if intensity == nil {
		var err error
		if intensity, err = profile.IntensityMap(in.Image, skel); err != nil {
			return err
		}
	}
	width, err := profile.WidthMap(in.Image, skel, cfg.Profile.WidthKernel, cfg.Profile.WidthSigma)
	if err != nil {
		return err
	}
	return profile.Apply(g, profile.Rasters{
		Intensity:  intensity,
		Width:      width,
		Foreground: in.Foreground,
	}, profile.Options{
		WidthKernel:       cfg.Profile.WidthKernel,
		WidthSigma:        cfg.Profile.WidthSigma,
		BodyDistance:      cfg.Profile.BodyDistance,
		ReconstructBodies: cfg.Profile.ReconstructBodies,
		Logger:            log,
	})
}

func trunkOptions(cfg *config.Config, fg *raster.Raster, log *zap.Logger) trunk.Options {
	t := cfg.Trunk
	return trunk.Options{
		SeedLengthInitial: t.SeedLengthInitial,
		SeedLengthStep:    t.SeedLengthStep,
		ShortEdgeLength:   t.ShortEdgeLength,
		AngleToleranceDeg: t.AngleToleranceDeg,
		MinTrunkLength:    t.MinTrunkLength,
		MinTrunkWidth:     t.MinTrunkWidth,
		CurvatureWeight:   t.CurvatureWeight,
		IntensityWeight:   t.IntensityWeight,
		WidthWeight:       t.WidthWeight,
		Curvature:         curvature.Options{Step: t.CurvatureStep, Sigma: t.CurvatureSigma},
		MaxFrontier:       t.MaxFrontier,
		MaxIterations:     t.MaxIterations,
		AreaFraction:      float64(fg.CountNonZero()) / float64(fg.Width*fg.Height),
		Workers:           cfg.Runtime.Workers,
		Logger:            log,
	}
}
