package topology

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnknownNode = errors.New("unknown node")

// Config tunes the force simulation. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Width         float64
	Height        float64
	Charge        float64 // many-body strength, negative repels
	DistanceMin   float64
	CollideRadius float64
	VelocityDecay float64
	AlphaMin      float64
	AlphaDecay    float64
	DragAlpha     float64 // alphaTarget while a node is dragged
}

func DefaultConfig() Config {
	alphaMin := 0.001
	return Config{
		Width:         600,
		Height:        400,
		Charge:        -200,
		DistanceMin:   1,
		CollideRadius: 50,
		VelocityDecay: 0.4,
		AlphaMin:      alphaMin,
		AlphaDecay:    1 - math.Pow(alphaMin, 1.0/300),
		DragAlpha:     0.3,
	}
}

// Center is the canvas midpoint the centering force pulls toward.
func (c Config) Center() Point {
	return Point{X: c.Width / 2, Y: c.Height / 2}
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type body struct {
	id     string
	x, y   float64
	vx, vy float64
	pinned bool
	fx, fy float64
}

// Simulation is a velocity Verlet layout with centering, many-body
// repulsion and collision. It is not safe for concurrent use; Session
// serialises access.
type Simulation struct {
	cfg         Config
	bodies      []*body
	index       map[string]int
	alpha       float64
	alphaTarget float64
}

const (
	initialRadius = 10.0
	jiggleEpsilon = 1e-6
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// NewSimulation places the graph's nodes on a phyllotaxis spiral around
// the canvas center. Placement is deterministic, so equal graphs settle
// into equal layouts.
func NewSimulation(g Graph, cfg Config) *Simulation {
	s := &Simulation{
		cfg:    cfg,
		bodies: make([]*body, len(g.Nodes)),
		index:  make(map[string]int, len(g.Nodes)),
		alpha:  1,
	}
	center := cfg.Center()
	for i, n := range g.Nodes {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		s.bodies[i] = &body{id: n.ID, x: center.X + r*math.Cos(a), y: center.Y + r*math.Sin(a)}
		s.index[n.ID] = i
	}
	return s
}

func (s *Simulation) Alpha() float64 {
	return s.alpha
}

func (s *Simulation) AlphaTarget() float64 {
	return s.alphaTarget
}

// Settled reports that alpha has cooled below AlphaMin and nothing is
// holding it up.
func (s *Simulation) Settled() bool {
	return s.alpha < s.cfg.AlphaMin && s.alphaTarget < s.cfg.AlphaMin
}

// Reheat restarts a settled simulation at full energy.
func (s *Simulation) Reheat() {
	s.alpha = 1
}

// Tick advances one step. It returns false once the simulation is settled.
func (s *Simulation) Tick() bool {
	if len(s.bodies) == 0 {
		s.alpha = 0
		return false
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	s.applyCenter()
	s.applyCharge()
	s.applyCollide()

	decay := 1 - s.cfg.VelocityDecay
	for _, b := range s.bodies {
		if b.pinned {
			b.x, b.y = b.fx, b.fy
			b.vx, b.vy = 0, 0
			continue
		}
		b.vx *= decay
		b.vy *= decay
		b.x += b.vx
		b.y += b.vy
	}
	return !s.Settled()
}

// Run ticks until settled or max ticks, returning the ticks taken.
func (s *Simulation) Run(max int) int {
	n := 0
	for n < max {
		n++
		if !s.Tick() {
			break
		}
	}
	return n
}

// applyCenter translates every node so the centroid sits on the canvas
// center.
func (s *Simulation) applyCenter() {
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	c := s.cfg.Center()
	dx := c.X - sx/float64(len(s.bodies))
	dy := c.Y - sy/float64(len(s.bodies))
	for _, b := range s.bodies {
		b.x += dx
		b.y += dy
	}
}

// applyCharge is the exact O(n^2) many-body force; topology graphs stay
// small enough that no quadtree is needed.
func (s *Simulation) applyCharge() {
	minSq := s.cfg.DistanceMin * s.cfg.DistanceMin
	for i, a := range s.bodies {
		for j, b := range s.bodies {
			if i == j {
				continue
			}
			dx := b.x - a.x
			dy := b.y - a.y
			if dx == 0 {
				dx = jiggle(i, j)
			}
			if dy == 0 {
				dy = jiggle(j, i)
			}
			l := dx*dx + dy*dy
			if l < minSq {
				l = math.Sqrt(minSq * l)
			}
			w := s.cfg.Charge * s.alpha / l
			a.vx += dx * w
			a.vy += dy * w
		}
	}
}

// applyCollide pushes apart nodes whose predicted positions are closer than
// two radii, splitting the correction evenly.
func (s *Simulation) applyCollide() {
	r := 2 * s.cfg.CollideRadius
	for i, a := range s.bodies {
		xi, yi := a.x+a.vx, a.y+a.vy
		for j := i + 1; j < len(s.bodies); j++ {
			b := s.bodies[j]
			dx := xi - (b.x + b.vx)
			dy := yi - (b.y + b.vy)
			l := dx*dx + dy*dy
			if l >= r*r {
				continue
			}
			if dx == 0 {
				dx = jiggle(i, j)
				l += dx * dx
			}
			if dy == 0 {
				dy = jiggle(j, i)
				l += dy * dy
			}
			l = math.Sqrt(l)
			k := (r - l) / l
			dx *= k
			dy *= k
			a.vx += dx / 2
			a.vy += dy / 2
			b.vx -= dx / 2
			b.vy -= dy / 2
		}
	}
}

// jiggle separates coincident nodes by a tiny, order-dependent offset.
func jiggle(i, j int) float64 {
	if i < j {
		return jiggleEpsilon
	}
	return -jiggleEpsilon
}

// DragStart pins id at its current position and keeps the simulation warm.
func (s *Simulation) DragStart(id string) error {
	b, err := s.body(id)
	if err != nil {
		return err
	}
	s.alphaTarget = s.cfg.DragAlpha
	b.pinned = true
	b.fx, b.fy = b.x, b.y
	return nil
}

// Drag moves the pin of a dragged node.
func (s *Simulation) Drag(id string, x, y float64) error {
	b, err := s.body(id)
	if err != nil {
		return err
	}
	b.pinned = true
	b.fx, b.fy = x, y
	return nil
}

// DragEnd releases the pin and lets the simulation cool again.
func (s *Simulation) DragEnd(id string) error {
	b, err := s.body(id)
	if err != nil {
		return err
	}
	s.alphaTarget = 0
	b.pinned = false
	return nil
}

func (s *Simulation) body(id string) (*body, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return s.bodies[i], nil
}

// Position returns the current position of id.
func (s *Simulation) Position(id string) (Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return Point{}, false
	}
	return Point{X: s.bodies[i].x, Y: s.bodies[i].y}, true
}

func (s *Simulation) Positions() map[string]Point {
	out := make(map[string]Point, len(s.bodies))
	for _, b := range s.bodies {
		out[b.id] = Point{X: b.x, Y: b.y}
	}
	return out
}
