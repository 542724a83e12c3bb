package topology

type PositionedNode struct {
	Node
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
}

// PositionedEdge carries both endpoints so clients can draw it without
// resolving ids.
type PositionedEdge struct {
	Edge
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Frame is one rendered state of the topology view.
type Frame struct {
	Seq       int              `json:"seq"`
	Mode      ViewMode         `json:"mode"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
	Nodes     []PositionedNode `json:"nodes"`
	Edges     []PositionedEdge `json:"edges"`
	Transform Transform        `json:"transform"`
	Alpha     float64          `json:"alpha"`
	Settled   bool             `json:"settled"`
	Tooltip   *Tooltip         `json:"tooltip,omitempty"`
}

// Snapshot projects the simulation's current positions onto g. Device
// edges are re-anchored from the canvas center to each node every call.
func Snapshot(g Graph, sim *Simulation, t Transform) Frame {
	f := Frame{
		Mode:      g.Mode,
		Width:     sim.cfg.Width,
		Height:    sim.cfg.Height,
		Nodes:     make([]PositionedNode, 0, len(g.Nodes)),
		Edges:     make([]PositionedEdge, 0, len(g.Edges)),
		Transform: t,
		Alpha:     sim.alpha,
		Settled:   sim.Settled(),
	}
	for _, n := range g.Nodes {
		pn := PositionedNode{Node: n}
		if i, ok := sim.index[n.ID]; ok {
			b := sim.bodies[i]
			pn.X, pn.Y, pn.Pinned = b.x, b.y, b.pinned
		}
		f.Nodes = append(f.Nodes, pn)
	}

	center := sim.cfg.Center()
	for _, e := range g.Edges {
		pe := PositionedEdge{Edge: e, X1: center.X, Y1: center.Y, X2: center.X, Y2: center.Y}
		if p, ok := sim.Position(e.Target); ok {
			pe.X2, pe.Y2 = p.X, p.Y
		}
		f.Edges = append(f.Edges, pe)
	}
	return f
}

// maxSettleTicks bounds Settle; the default alpha schedule cools in ~300.
const maxSettleTicks = 1000

// Settle runs a fresh simulation for g to rest and returns the final frame.
func Settle(g Graph, cfg Config) Frame {
	sim := NewSimulation(g, cfg)
	sim.Run(maxSettleTicks)
	return Snapshot(g, sim, Identity)
}
