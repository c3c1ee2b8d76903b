// Package profile samples the auxiliary rasters over graph components: edge
// intensity statistics, edge width samples and reconstructed fibre bodies.
package profile

import (
	"sort"

	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/graph"
	"nerve-tracer/internal/logger"
	"nerve-tracer/internal/raster"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Options configures the profiler.
type Options struct {
	WidthKernel       int
	WidthSigma        float64
	BodyDistance      float64
	ReconstructBodies bool
	Logger            *zap.Logger
}

// DefaultOptions returns the reference settings.
func DefaultOptions() Options {
	return Options{WidthKernel: 5, WidthSigma: 1.0, BodyDistance: 3.0}
}

// Rasters bundles the pixel-aligned inputs sampled by the profiler.
type Rasters struct {
	Intensity  *raster.Raster // skeleton-masked intensity
	Width      *raster.Raster // normalised width map
	Foreground *raster.Raster // needed for body reconstruction only
}

// IntensityMap masks the calibrated image to the skeleton pixels.
func IntensityMap(image, skel *raster.Raster) (*raster.Raster, error) {
	if !image.SameSize(skel) {
		return nil, errors.InputContractf("image %dx%d does not match skeleton %dx%d",
			image.Width, image.Height, skel.Width, skel.Height)
	}
	return image.Mask(skel), nil
}

// WidthMap smooths the calibrated image, keeps it on the skeleton and rescales
// the surviving values onto [1, 255].
func WidthMap(image, skel *raster.Raster, ksize int, sigma float64) (*raster.Raster, error) {
	if !image.SameSize(skel) {
		return nil, errors.InputContractf("image %dx%d does not match skeleton %dx%d",
			image.Width, image.Height, skel.Width, skel.Height)
	}
	blurred, err := raster.GaussianBlur(image, ksize, sigma)
	if err != nil {
		return nil, errors.Wrap(err, "smooth width map")
	}
	return raster.NormalizeNonZero(blurred.Mask(skel)), nil
}

// Apply sets intensity statistics and width samples on every edge of g and,
// when enabled, reconstructs node and edge bodies.
func Apply(g *graph.Graph, in Rasters, opts Options) error {
	log := logger.OrNop(opts.Logger)

	for _, e := range g.Edges() {
		if in.Intensity != nil {
			e.IntensityMedian, e.IntensityMean = IntensityStats(in.Intensity, e)
		}
		if in.Width != nil {
			e.WidthSamples = WidthSamples(in.Width, e)
			e.Width = mean(e.WidthSamples)
		}
	}

	if opts.ReconstructBodies {
		if in.Foreground == nil {
			return errors.InputContractf("body reconstruction needs a foreground mask")
		}
		for _, n := range g.Nodes() {
			body, err := ReconstructBody(n.Pixels, in.Foreground, opts.BodyDistance)
			if err != nil {
				return errors.Wrapf(err, "node %d body", n.ID)
			}
			n.Body = body
		}
		for _, e := range g.Edges() {
			body, err := ReconstructBody(e.Pixels, in.Foreground, opts.BodyDistance)
			if err != nil {
				return errors.Wrapf(err, "edge %d body", e.ID)
			}
			e.Body = body
		}
	}

	log.Debug("profiled edges",
		zap.String(logger.FieldStage, "profile"),
		zap.Int(logger.FieldEdges, g.NumEdges()))
	return nil
}

// IntensityStats returns the median and mean of the non-zero intensity values
// under e, scaled to (0, 1]. An edge with no valid sample yields zeros.
func IntensityStats(intensity *raster.Raster, e *graph.Edge) (median, avg float64) {
	var vals []float64
	for _, p := range e.Pixels {
		if v := intensity.At(p.X, p.Y); v > 0 {
			vals = append(vals, float64(v)/255)
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	sort.Float64s(vals)
	return medianSorted(vals), stat.Mean(vals, nil)
}

// WidthSamples reads the width map at every pixel of e.
func WidthSamples(width *raster.Raster, e *graph.Edge) []float64 {
	out := make([]float64, len(e.Pixels))
	for i, p := range e.Pixels {
		out[i] = float64(width.At(p.X, p.Y))
	}
	return out
}

func medianSorted(vals []float64) float64 {
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return stat.Mean(vals[n/2-1:n/2+1], nil)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}
