package raster

import (
	"image"
	"math"

	"nerve-tracer/internal/errors"

	"gocv.io/x/gocv"
)

// DistanceToPixels returns, for every pixel, the L2 distance to the nearest
// foreground pixel of r (zero on the foreground itself), as a row-major slice.
func DistanceToPixels(r *Raster) ([]float32, error) {
	inv := New(r.Width, r.Height)
	for i, v := range r.Pix {
		if v == 0 {
			inv.Pix[i] = 1
		}
	}

	src, err := inv.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	labels := gocv.NewMat()
	defer labels.Close()

	gocv.DistanceTransform(src, &dst, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	out := make([]float32, r.Width*r.Height)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			out[y*r.Width+x] = dst.GetFloatAt(y, x)
		}
	}
	return out, nil
}

// GaussianBlur smooths r with a ksize x ksize Gaussian kernel.
func GaussianBlur(r *Raster, ksize int, sigma float64) (*Raster, error) {
	if ksize <= 0 || ksize%2 == 0 {
		return nil, errors.Newf("gaussian kernel size must be positive and odd, got %d", ksize)
	}

	src, err := r.ToMat()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.GaussianBlur(src, &dst, image.Pt(ksize, ksize), sigma, sigma, gocv.BorderDefault)
	return FromMat(dst)
}

// Smooth1D applies a Gaussian filter with reflected borders to a sequence,
// truncating the kernel at four standard deviations. sigma <= 0 returns a copy.
func Smooth1D(values []float64, sigma float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if sigma <= 0 || len(values) == 0 {
		return out
	}

	radius := int(4*sigma + 0.5)
	ksize := 2*radius + 1

	src := gocv.NewMatWithSize(1, len(values), gocv.MatTypeCV64F)
	defer src.Close()
	for i, v := range values {
		src.SetDoubleAt(0, i, v)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.GaussianBlur(src, &dst, image.Pt(ksize, 1), sigma, 0, gocv.BorderReflect)

	for i := range out {
		out[i] = dst.GetDoubleAt(0, i)
	}
	return out
}

// NormalizeNonZero rescales the non-zero pixels of r linearly onto [1, 255].
// A constant non-zero region maps to 255.
func NormalizeNonZero(r *Raster) *Raster {
	out := New(r.Width, r.Height)
	lo, hi := math.MaxInt, -1
	for _, v := range r.Pix {
		if v == 0 {
			continue
		}
		lo = min(lo, int(v))
		hi = max(hi, int(v))
	}
	if hi < 0 {
		return out
	}
	for i, v := range r.Pix {
		if v == 0 {
			continue
		}
		if hi == lo {
			out.Pix[i] = On
			continue
		}
		scaled := float64(int(v)-lo)/float64(hi-lo)*254 + 1
		out.Pix[i] = uint8(scaled)
	}
	return out
}
