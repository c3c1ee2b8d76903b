package graph

import (
	"nerve-tracer/internal/errors"
	"nerve-tracer/internal/logger"
	"nerve-tracer/internal/raster"
	"nerve-tracer/internal/skeleton"
	"nerve-tracer/pkg/geometry"

	"go.uber.org/zap"
)

// BuildOptions configures graph construction.
type BuildOptions struct {
	Logger *zap.Logger
}

// Build converts a one-pixel-wide skeleton into a labelled multigraph. End
// components receive the first node ids, branch clusters the following ones.
// Every edge segment must touch exactly two node attachments; anything else is
// reported as ErrTopology.
func Build(skel *raster.Raster, opts BuildOptions) (*Graph, error) {
	log := logger.OrNop(opts.Logger)

	_, cands, err := skeleton.Split(skel)
	if err != nil {
		return nil, errors.Wrap(err, "split skeleton")
	}
	g := New(skel.Width, skel.Height)
	if cands.Empty() {
		return g, nil
	}

	owner := make([]NodeID, skel.Width*skel.Height)
	for i := range owner {
		owner[i] = -1
	}
	addNodes := func(comps [][]geometry.PointInt, kind NodeKind) error {
		for _, pixels := range comps {
			length, err := raster.ArcLength(skel.Width, skel.Height, pixels)
			if err != nil {
				return errors.Wrap(err, "node arc length")
			}
			id := g.AddNode(&Node{
				Kind:     kind,
				Pixels:   pixels,
				Centroid: geometry.PixelCentroid(pixels),
				Length:   length,
			})
			for _, p := range pixels {
				owner[p.Y*skel.Width+p.X] = id
			}
		}
		return nil
	}
	if err := addNodes(cands.Ends, NodeEnd); err != nil {
		return nil, err
	}
	if err := addNodes(cands.Branches, NodeBranch); err != nil {
		return nil, err
	}

	for idx, pixels := range cands.Edges {
		u, v, err := endpoints(skel.Width, skel.Height, idx, pixels, owner)
		if err != nil {
			return nil, err
		}
		length, err := raster.ArcLength(skel.Width, skel.Height, pixels)
		if err != nil {
			return nil, errors.Wrap(err, "edge arc length")
		}
		if _, err := g.AddEdge(u, v, &Edge{
			Pixels:   pixels,
			Centroid: geometry.PixelCentroid(pixels),
			Length:   length,
		}); err != nil {
			return nil, err
		}
	}

	g.AssignKinds()
	log.Debug("graph built",
		zap.String(logger.FieldStage, "build"),
		zap.Int(logger.FieldNodes, g.NumNodes()),
		zap.Int(logger.FieldEdges, g.NumEdges()))
	return g, nil
}

// endpoints resolves the two nodes edge segment idx connects. A segment with
// any other number of attachments is an ErrTopology carrying the segment
// index, size, attachment count and first pixel as detail.
func endpoints(width, height, idx int, pixels []geometry.PointInt, owner []NodeID) (NodeID, NodeID, error) {
	attach := attachments(width, height, pixels, owner)
	if len(attach) != 2 {
		return -1, -1, errors.WithDetailf(
			errors.Topologyf("edge segment %d touches %d node regions, want 2", idx, len(attach)),
			"component=%d pixels=%d attachments=%d first=(%d,%d)",
			idx, len(pixels), len(attach), pixels[0].X, pixels[0].Y)
	}
	return attach[0], attach[1], nil
}

// attachments collects, for each boundary pixel of an edge segment, the
// distinct node ids found in its 8-neighbourhood, concatenated over all
// boundary pixels.
func attachments(width, height int, pixels []geometry.PointInt, owner []NodeID) []NodeID {
	inSeg := make(map[geometry.PointInt]bool, len(pixels))
	for _, p := range pixels {
		inSeg[p] = true
	}

	var out []NodeID
	for _, p := range pixels {
		if len(pixels) > 1 && segmentNeighbors(p, inSeg) != 1 {
			continue
		}
		var seen []NodeID
		for _, o := range geometry.Offsets8 {
			q := p.Offset(o.X, o.Y)
			if q.X < 0 || q.Y < 0 || q.X >= width || q.Y >= height {
				continue
			}
			id := owner[q.Y*width+q.X]
			if id < 0 || containsNode(seen, id) {
				continue
			}
			seen = append(seen, id)
		}
		out = append(out, seen...)
	}
	return out
}

func segmentNeighbors(p geometry.PointInt, inSeg map[geometry.PointInt]bool) int {
	n := 0
	for _, o := range geometry.Offsets8 {
		if inSeg[p.Offset(o.X, o.Y)] {
			n++
		}
	}
	return n
}

func containsNode(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
