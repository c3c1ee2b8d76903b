package raster

import (
	"nerve-tracer/internal/errors"

	"gocv.io/x/gocv"
)

// ToMat copies the raster into a new CV_8U Mat. The caller must Close it.
func (r *Raster) ToMat() (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(r.Height, r.Width, gocv.MatTypeCV8U, r.Pix)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "raster to mat")
	}
	defer view.Close()
	return view.Clone(), nil
}

// FromMat copies a single-channel CV_8U Mat into a raster.
func FromMat(m gocv.Mat) (*Raster, error) {
	if m.Empty() {
		return nil, errors.New("empty mat")
	}
	if m.Type() != gocv.MatTypeCV8U {
		return nil, errors.Newf("expected CV_8U mat, got type %v", m.Type())
	}
	return FromBytes(m.Cols(), m.Rows(), m.ToBytes())
}
