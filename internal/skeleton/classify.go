// Package skeleton labels the pixels of a one-pixel-wide skeleton by local
// connectivity and prunes thinning artifacts before graph construction.
package skeleton

import (
	"nerve-tracer/internal/raster"
	"nerve-tracer/pkg/geometry"
)

// PixelClass is the connectivity label of a skeleton pixel.
type PixelClass uint8

const (
	Background    PixelClass = iota
	Isolated                 // no neighbours
	Endpoint                 // exactly one neighbour
	Interior                 // exactly two neighbours
	BranchCluster            // three or more neighbours
)

func (c PixelClass) String() string {
	switch c {
	case Background:
		return "background"
	case Isolated:
		return "isolated"
	case Endpoint:
		return "endpoint"
	case Interior:
		return "interior"
	case BranchCluster:
		return "branch"
	default:
		return "unknown"
	}
}

// Center and neighbour weights of the connectivity score kernel. A pixel's
// score is centerWeight plus its foreground 8-neighbour count.
const (
	centerWeight   = 10
	neighborWeight = 1
)

// Score returns the weighted 3x3 connectivity score of (x, y), 0 for background.
func Score(r *raster.Raster, x, y int) int {
	if !r.IsOn(x, y) {
		return 0
	}
	return centerWeight + neighborWeight*r.Neighbors8(x, y)
}

func classOf(score int) PixelClass {
	switch {
	case score == 0:
		return Background
	case score == centerWeight:
		return Isolated
	case score == centerWeight+1:
		return Endpoint
	case score == centerWeight+2:
		return Interior
	default:
		return BranchCluster
	}
}

// Classification holds the per-pixel class of a skeleton.
type Classification struct {
	Width  int
	Height int
	Class  []PixelClass
}

// Classify labels every pixel of skel by its 8-neighbour count.
func Classify(skel *raster.Raster) *Classification {
	c := &Classification{Width: skel.Width, Height: skel.Height, Class: make([]PixelClass, len(skel.Pix))}
	for y := 0; y < skel.Height; y++ {
		for x := 0; x < skel.Width; x++ {
			c.Class[y*skel.Width+x] = classOf(Score(skel, x, y))
		}
	}
	return c
}

// At returns the class at (x, y), Background outside the raster.
func (c *Classification) At(x, y int) PixelClass {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return Background
	}
	return c.Class[y*c.Width+x]
}

// Mask returns a binary raster of the pixels whose class is one of classes.
func (c *Classification) Mask(classes ...PixelClass) *raster.Raster {
	m := raster.New(c.Width, c.Height)
	for i, cl := range c.Class {
		for _, want := range classes {
			if cl == want {
				m.Pix[i] = raster.On
				break
			}
		}
	}
	return m
}

// Candidates are the raw 8-connected components of each pixel class.
type Candidates struct {
	Ends     [][]geometry.PointInt
	Branches [][]geometry.PointInt
	Edges    [][]geometry.PointInt
}

// Empty reports whether no component of any kind was found.
func (c Candidates) Empty() bool {
	return len(c.Ends) == 0 && len(c.Branches) == 0 && len(c.Edges) == 0
}

// maxDegenerateEdge is the largest interior-pixel group that is folded into a
// node instead of becoming an edge.
const maxDegenerateEdge = 2

// Split classifies skel and splits each class into 8-connected components.
// Interior groups of at most two pixels are relabelled as branch-cluster
// pixels so no degenerate edge is produced. An empty skeleton yields empty
// candidates.
func Split(skel *raster.Raster) (*Classification, Candidates, error) {
	cls := Classify(skel)

	interior, err := raster.Components(cls.Mask(Interior), raster.Conn8)
	if err != nil {
		return nil, Candidates{}, err
	}
	for _, comp := range interior {
		if len(comp) > maxDegenerateEdge {
			continue
		}
		for _, p := range comp {
			cls.Class[p.Y*cls.Width+p.X] = BranchCluster
		}
	}

	var cands Candidates
	if cands.Ends, err = raster.Components(cls.Mask(Endpoint), raster.Conn8); err != nil {
		return nil, Candidates{}, err
	}
	if cands.Branches, err = raster.Components(cls.Mask(BranchCluster), raster.Conn8); err != nil {
		return nil, Candidates{}, err
	}
	if cands.Edges, err = raster.Components(cls.Mask(Interior), raster.Conn8); err != nil {
		return nil, Candidates{}, err
	}
	return cls, cands, nil
}
