// Package raster provides the 8-bit single-channel raster used for masks,
// skeletons and intensity maps, plus the OpenCV-backed primitives the
// analysis stages run on it.
package raster

import (
	"nerve-tracer/internal/errors"
	"nerve-tracer/pkg/geometry"
)

// On is the foreground value of binary rasters.
const On uint8 = 255

// Raster is a row-major 8-bit single-channel image.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed raster.
func New(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// FromBytes wraps pix as a width x height raster. pix is copied.
func FromBytes(width, height int, pix []byte) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.InputContractf("raster size must be positive, got %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, errors.InputContractf("raster %dx%d needs %d bytes, got %d", width, height, width*height, len(pix))
	}
	r := New(width, height)
	copy(r.Pix, pix)
	return r, nil
}

// FromPixels builds a binary raster with the given pixels set to On.
// Pixels outside the raster are ignored.
func FromPixels(width, height int, pixels []geometry.PointInt) *Raster {
	r := New(width, height)
	for _, p := range pixels {
		if r.In(p.X, p.Y) {
			r.Pix[p.Y*width+p.X] = On
		}
	}
	return r
}

// In reports whether (x, y) lies inside the raster.
func (r *Raster) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// At returns the value at (x, y), or 0 outside the raster.
func (r *Raster) At(x, y int) uint8 {
	if !r.In(x, y) {
		return 0
	}
	return r.Pix[y*r.Width+x]
}

// Set writes v at (x, y). Writes outside the raster are dropped.
func (r *Raster) Set(x, y int, v uint8) {
	if r.In(x, y) {
		r.Pix[y*r.Width+x] = v
	}
}

// IsOn reports whether (x, y) is a foreground pixel.
func (r *Raster) IsOn(x, y int) bool {
	return r.At(x, y) != 0
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := New(r.Width, r.Height)
	copy(c.Pix, r.Pix)
	return c
}

// SameSize reports whether o has the same dimensions.
func (r *Raster) SameSize(o *Raster) bool {
	return o != nil && r.Width == o.Width && r.Height == o.Height
}

// CountNonZero counts foreground pixels.
func (r *Raster) CountNonZero() int {
	n := 0
	for _, v := range r.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Points lists the foreground pixels in raster-scan order.
func (r *Raster) Points() []geometry.PointInt {
	var pts []geometry.PointInt
	for y := 0; y < r.Height; y++ {
		row := r.Pix[y*r.Width : (y+1)*r.Width]
		for x, v := range row {
			if v != 0 {
				pts = append(pts, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	return pts
}

// Neighbors8 counts foreground pixels among the eight neighbours of (x, y).
func (r *Raster) Neighbors8(x, y int) int {
	n := 0
	for _, o := range geometry.Offsets8 {
		if r.IsOn(x+o.X, y+o.Y) {
			n++
		}
	}
	return n
}

// Neighbors4 counts foreground pixels among the four edge-sharing neighbours.
func (r *Raster) Neighbors4(x, y int) int {
	n := 0
	for _, o := range geometry.Offsets4 {
		if r.IsOn(x+o.X, y+o.Y) {
			n++
		}
	}
	return n
}

// CheckBinary returns the first value that is neither 0 nor 255.
func (r *Raster) CheckBinary() (uint8, bool) {
	for _, v := range r.Pix {
		if v != 0 && v != On {
			return v, false
		}
	}
	return 0, true
}

// Binarize returns a copy with every non-zero pixel set to On.
func (r *Raster) Binarize() *Raster {
	c := New(r.Width, r.Height)
	for i, v := range r.Pix {
		if v != 0 {
			c.Pix[i] = On
		}
	}
	return c
}

// Mask returns a copy of r with pixels zeroed wherever mask is zero.
func (r *Raster) Mask(mask *Raster) *Raster {
	c := New(r.Width, r.Height)
	for i, v := range r.Pix {
		if mask.Pix[i] != 0 {
			c.Pix[i] = v
		}
	}
	return c
}
