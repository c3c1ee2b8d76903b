package profile

import (
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"
)

// ReconstructBody grows a skeleton component back to fibre width: foreground
// pixels within maxDist of the component are kept, and of the resulting
// 4-connected regions only the largest survives (the first on ties).
func ReconstructBody(pixels []geometry.PointInt, foreground *raster.Raster, maxDist float64) ([]geometry.PointInt, error) {
	if len(pixels) == 0 {
		return nil, nil
	}
	for _, p := range pixels {
		if !foreground.In(p.X, p.Y) {
			return nil, errors.InputContractf("pixel (%d,%d) outside %dx%d foreground",
				p.X, p.Y, foreground.Width, foreground.Height)
		}
	}

	dist, err := raster.DistanceToPixels(raster.FromPixels(foreground.Width, foreground.Height, pixels))
	if err != nil {
		return nil, errors.Wrap(err, "distance transform")
	}

	grown := raster.New(foreground.Width, foreground.Height)
	for i, v := range foreground.Pix {
		if v != 0 && float64(dist[i]) <= maxDist {
			grown.Pix[i] = raster.On
		}
	}

	regions, err := raster.Components(grown, raster.Conn4)
	if err != nil {
		return nil, err
	}
	var best []geometry.PointInt
	for _, r := range regions {
		if len(r) > len(best) {
			best = r
		}
	}
	return best, nil
}
