package profile

import (
	"testing"

	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/graph"
	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeAt(pixels ...geometry.PointInt) *graph.Edge {
	return &graph.Edge{Pixels: pixels, Length: float64(len(pixels))}
}

func TestIntensityStats(t *testing.T) {
	r := raster.New(6, 1)
	for i, v := range []uint8{51, 102, 0, 255, 204, 153} {
		r.Set(i, 0, v)
	}

	tests := []struct {
		name       string
		xs         []int
		wantMedian float64
		wantMean   float64
	}{
		{"odd", []int{0, 1, 3}, 0.4, (0.2 + 0.4 + 1.0) / 3},
		{"even", []int{0, 1, 4, 5}, 0.5, 0.5},
		{"zeros skipped", []int{2, 3}, 1.0, 1.0},
		{"no valid sample", []int{2}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var px []geometry.PointInt
			for _, x := range tt.xs {
				px = append(px, geometry.PointInt{X: x})
			}
			med, avg := IntensityStats(r, edgeAt(px...))
			assert.InDelta(t, tt.wantMedian, med, 1e-9)
			assert.InDelta(t, tt.wantMean, avg, 1e-9)
		})
	}
}

func lineSkeleton(w, h, y, x0, x1 int) *raster.Raster {
	s := raster.New(w, h)
	for x := x0; x <= x1; x++ {
		s.Set(x, y, raster.On)
	}
	return s
}

func TestWidthMapUniform(t *testing.T) {
	img := raster.New(30, 20)
	for i := range img.Pix {
		img.Pix[i] = 120
	}
	skel := lineSkeleton(30, 20, 10, 3, 26)

	wm, err := WidthMap(img, skel, 5, 1.0)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), wm.At(10, 10))
	assert.Zero(t, wm.At(10, 11), "width map lives on the skeleton only")

	_, err = WidthMap(raster.New(5, 5), skel, 5, 1.0)
	assert.True(t, errors.Is(err, errors.ErrInputContract))
}

func TestIntensityMap(t *testing.T) {
	img := raster.New(30, 20)
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	skel := lineSkeleton(30, 20, 10, 3, 26)

	im, err := IntensityMap(img, skel)
	require.NoError(t, err)
	assert.Equal(t, uint8(90), im.At(5, 10))
	assert.Zero(t, im.At(5, 9))
}

func TestApply(t *testing.T) {
	g := graph.New(10, 3)
	a := g.AddNode(&graph.Node{Pixels: []geometry.PointInt{{X: 0, Y: 1}}, Length: 1})
	b := g.AddNode(&graph.Node{Pixels: []geometry.PointInt{{X: 9, Y: 1}}, Length: 1})
	var px []geometry.PointInt
	for x := 1; x < 9; x++ {
		px = append(px, geometry.PointInt{X: x, Y: 1})
	}
	id, err := g.AddEdge(a, b, edgeAt(px...))
	require.NoError(t, err)

	intensity := raster.New(10, 3)
	width := raster.New(10, 3)
	for _, p := range px {
		intensity.Set(p.X, p.Y, 204)
		width.Set(p.X, p.Y, 200)
	}

	require.NoError(t, Apply(g, Rasters{Intensity: intensity, Width: width}, DefaultOptions()))
	e := g.Edge(id)
	assert.InDelta(t, 0.8, e.IntensityMedian, 1e-9)
	assert.InDelta(t, 0.8, e.IntensityMean, 1e-9)
	assert.Len(t, e.WidthSamples, 8)
	assert.InDelta(t, 200, e.Width, 1e-9)
	assert.Nil(t, e.Body)

	opts := DefaultOptions()
	opts.ReconstructBodies = true
	err = Apply(g, Rasters{Intensity: intensity, Width: width}, opts)
	assert.True(t, errors.Is(err, errors.ErrInputContract))
}

func TestReconstructBodyKeepsLargestRegion(t *testing.T) {
	fg := raster.New(40, 20)
	for y := 9; y <= 11; y++ {
		for x := 5; x <= 35; x++ {
			fg.Set(x, y, raster.On)
		}
	}
	// a detached neighbour within reach of the skeleton
	fg.Set(30, 13, raster.On)
	fg.Set(31, 13, raster.On)
	// out of reach
	fg.Set(20, 16, raster.On)

	var skel []geometry.PointInt
	for x := 6; x <= 34; x++ {
		skel = append(skel, geometry.PointInt{X: x, Y: 10})
	}

	body, err := ReconstructBody(skel, fg, 3)
	require.NoError(t, err)
	assert.Len(t, body, 3*31)
	assert.NotContains(t, body, geometry.PointInt{X: 30, Y: 13})

	empty, err := ReconstructBody(nil, fg, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ReconstructBody([]geometry.PointInt{{X: 50, Y: 1}}, fg, 3)
	assert.True(t, errors.Is(err, errors.ErrInputContract))
}
