package metrics

import (
	"math"

	"nerve-tracer/internal/raster"

	"gonum.org/v1/gonum/stat"
)

// FractalDimension estimates the box-counting dimension of the foreground of
// mask. Box sizes run over the powers of two from 2 up to half the shorter
// side; the mask is cropped to a multiple of each size. It is the slope of
// log(occupied boxes) against log(1/size), or 0 when fewer than two sizes
// have an occupied box.
func FractalDimension(mask *raster.Raster) float64 {
	minDim := min(mask.Width, mask.Height)
	if minDim < 4 {
		return 0
	}
	levels := int(math.Floor(math.Log2(float64(minDim) / 2)))

	var xs, ys []float64
	for k := 1; k <= levels; k++ {
		size := 1 << k
		if n := occupiedBoxes(mask, size); n > 0 {
			xs = append(xs, math.Log(1/float64(size)))
			ys = append(ys, math.Log(float64(n)))
		}
	}
	if len(xs) < 2 {
		return 0
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

func occupiedBoxes(mask *raster.Raster, size int) int {
	cols, rows := mask.Width/size, mask.Height/size
	count := 0
	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			if boxOccupied(mask, bx*size, by*size, size) {
				count++
			}
		}
	}
	return count
}

func boxOccupied(mask *raster.Raster, x0, y0, size int) bool {
	for y := y0; y < y0+size; y++ {
		row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
		for x := x0; x < x0+size; x++ {
			if row[x] != 0 {
				return true
			}
		}
	}
	return false
}
