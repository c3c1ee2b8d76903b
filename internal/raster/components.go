package raster

import (
	"nerve-tracer/internal/errors"
	"nerve-tracer/pkg/geometry"

	"gocv.io/x/gocv"
)

// Connectivity selects 4- or 8-connected labelling.
type Connectivity int

const (
	Conn4 Connectivity = 4
	Conn8 Connectivity = 8
)

// Components splits the foreground of r into connected components. Components
// are ordered by the raster-scan position of their first pixel and each
// component's pixels are in raster-scan order.
func Components(r *Raster, conn Connectivity) ([][]geometry.PointInt, error) {
	if r.CountNonZero() == 0 {
		return nil, nil
	}

	src, err := r.Binarize().ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	labels := gocv.NewMat()
	defer labels.Close()

	n := gocv.ConnectedComponentsWithParams(src, &labels, int(conn), gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	if n <= 1 {
		return nil, nil
	}
	if labels.Rows() != r.Height || labels.Cols() != r.Width {
		return nil, errors.Newf("label mat %dx%d does not match raster %dx%d",
			labels.Cols(), labels.Rows(), r.Width, r.Height)
	}

	// Relabel in scan order so ordering never depends on the labelling algorithm.
	order := make(map[int32]int, n-1)
	comps := make([][]geometry.PointInt, 0, n-1)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			lbl := labels.GetIntAt(y, x)
			if lbl == 0 {
				continue
			}
			idx, ok := order[lbl]
			if !ok {
				idx = len(comps)
				order[lbl] = idx
				comps = append(comps, nil)
			}
			comps[idx] = append(comps[idx], geometry.PointInt{X: x, Y: y})
		}
	}
	return comps, nil
}

// ArcLength returns the skeletal length of a one-pixel-wide component: half
// the summed closed perimeter of its contours. A single pixel has length 1.
func ArcLength(width, height int, pixels []geometry.PointInt) (float64, error) {
	switch len(pixels) {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}

	m, err := FromPixels(width, height, pixels).ToMat()
	if err != nil {
		return 0, err
	}
	defer m.Close()

	contours := gocv.FindContours(m, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	var length float64
	for i := 0; i < contours.Size(); i++ {
		length += gocv.ArcLength(contours.At(i), true) / 2
	}
	if length < 1 {
		length = 1
	}
	return length, nil
}
