package analysis

import "nerve-tracer/pkg/geometry"

// NodeView is the read-only per-node record a renderer needs.
type NodeView struct {
	ID       int                 `json:"id"`
	Kind     string              `json:"kind"`
	Centroid geometry.Point2D    `json:"centroid"`
	Length   float64             `json:"length"`
	Pixels   []geometry.PointInt `json:"pixels"`
	Body     []geometry.PointInt `json:"body,omitempty"`
}

// EdgeView is the read-only per-edge record a renderer needs.
type EdgeView struct {
	ID              int                 `json:"id"`
	U               int                 `json:"u"`
	V               int                 `json:"v"`
	Key             int                 `json:"key"`
	Type            string              `json:"type"`
	IsTrunk         bool                `json:"is_trunk"`
	Centroid        geometry.Point2D    `json:"centroid"`
	Length          float64             `json:"length"`
	IntensityMedian float64             `json:"intensity_median"`
	Width           float64             `json:"width"`
	Pixels          []geometry.PointInt `json:"pixels"`
	Body            []geometry.PointInt `json:"body,omitempty"`
}

// Overlay lists the classified graph for visualisation.
type Overlay struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Nodes  []NodeView `json:"nodes"`
	Edges  []EdgeView `json:"edges"`
}

// Overlay snapshots the result graph in id order. Pixel and body slices are
// copied so the caller cannot mutate the result through them. Bodies are only
// present when profile.reconstructBodies is enabled.
func (r *Result) Overlay() Overlay {
	g := r.Graph
	ov := Overlay{Width: g.Width, Height: g.Height}
	for _, n := range g.Nodes() {
		ov.Nodes = append(ov.Nodes, NodeView{
			ID:       int(n.ID),
			Kind:     n.Kind.String(),
			Centroid: n.Centroid,
			Length:   n.Length,
			Pixels:   copyPixels(n.Pixels),
			Body:     copyPixels(n.Body),
		})
	}
	for _, e := range g.Edges() {
		ov.Edges = append(ov.Edges, EdgeView{
			ID:              int(e.ID),
			U:               int(e.U),
			V:               int(e.V),
			Key:             e.Key,
			Type:            e.Type.String(),
			IsTrunk:         e.IsTrunk,
			Centroid:        e.Centroid,
			Length:          e.Length,
			IntensityMedian: e.IntensityMedian,
			Width:           e.Width,
			Pixels:          copyPixels(e.Pixels),
			Body:            copyPixels(e.Body),
		})
	}
	return ov
}

// TrunkMask rasterises every trunk edge and the nodes it touches.
func (r *Result) TrunkMask() []geometry.PointInt {
	var out []geometry.PointInt
	for _, grp := range r.Graph.TrunkGroups() {
		out = append(out, grp.Pixels(r.Graph)...)
	}
	return out
}

func copyPixels(p []geometry.PointInt) []geometry.PointInt {
	if p == nil {
		return nil
	}
	return append([]geometry.PointInt(nil), p...)
}
