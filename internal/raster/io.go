package raster

import (
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"nerve-tracer/internal/errors"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Load decodes an image file (PNG, JPEG, BMP or TIFF) into a grayscale raster.
func Load(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return FromImage(img), nil
}

// FromImage converts any image to an 8-bit grayscale raster.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := New(b.Dx(), b.Dy())

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < r.Height; y++ {
			copy(r.Pix[y*r.Width:(y+1)*r.Width], g.Pix[y*g.Stride:y*g.Stride+r.Width])
		}
		return r
	}

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			r.Pix[y*r.Width+x] = c.Y
		}
	}
	return r
}

// ToImage returns the raster as an *image.Gray sharing no memory with r.
func (r *Raster) ToImage() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	copy(g.Pix, r.Pix)
	return g
}

// SavePNG writes the raster as a grayscale PNG.
func (r *Raster) SavePNG(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := png.Encode(f, r.ToImage()); err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	return nil
}
