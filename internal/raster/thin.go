package raster

// Thinner reduces a binary raster to a one-pixel-wide skeleton.
type Thinner interface {
	Thin(r *Raster) *Raster
}

// ThinnerFunc adapts a function to the Thinner interface.
type ThinnerFunc func(r *Raster) *Raster

// Thin calls f(r).
func (f ThinnerFunc) Thin(r *Raster) *Raster { return f(r) }

// ZhangSuen is the default Thinner: the two-subiteration parallel thinning
// of Zhang and Suen. The output is binary {0, 255}.
var ZhangSuen Thinner = ThinnerFunc(zhangSuen)

func zhangSuen(r *Raster) *Raster {
	out := r.Binarize()
	w, h := out.Width, out.Height
	var toClear []int

	for {
		changed := false
		for pass := 0; pass < 2; pass++ {
			toClear = toClear[:0]
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					if out.Pix[y*w+x] == 0 {
						continue
					}
					// p2..p9 clockwise starting north
					p := [8]bool{
						out.IsOn(x, y-1), out.IsOn(x+1, y-1), out.IsOn(x+1, y), out.IsOn(x+1, y+1),
						out.IsOn(x, y+1), out.IsOn(x-1, y+1), out.IsOn(x-1, y), out.IsOn(x-1, y-1),
					}
					b := 0
					for _, v := range p {
						if v {
							b++
						}
					}
					if b < 2 || b > 6 {
						continue
					}
					a := 0
					for i := 0; i < 8; i++ {
						if !p[i] && p[(i+1)%8] {
							a++
						}
					}
					if a != 1 {
						continue
					}
					north, east, south, west := p[0], p[2], p[4], p[6]
					if pass == 0 {
						if (north && east && south) || (east && south && west) {
							continue
						}
					} else {
						if (north && east && west) || (north && south && west) {
							continue
						}
					}
					toClear = append(toClear, y*w+x)
				}
			}
			for _, i := range toClear {
				out.Pix[i] = 0
			}
			if len(toClear) > 0 {
				changed = true
			}
		}
		if !changed {
			return out
		}
	}
}
