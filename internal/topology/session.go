package topology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/secflow/secflow/internal/metrics"
	"github.com/secflow/secflow/internal/models"
)

type EventType string

const (
	EventDragStart EventType = "drag_start"
	EventDrag      EventType = "drag"
	EventDragEnd   EventType = "drag_end"
	EventZoom      EventType = "zoom"
	EventHover     EventType = "hover"
	EventMode      EventType = "mode"
)

// Event is a client interaction. X and Y are layout coordinates for drags
// and screen coordinates for zoom and hover. An empty NodeID on hover
// clears the tooltip.
type Event struct {
	Type   EventType `json:"type"`
	NodeID string    `json:"nodeId,omitempty"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Factor float64   `json:"factor,omitempty"`
	DX     float64   `json:"dx,omitempty"`
	DY     float64   `json:"dy,omitempty"`
	Mode   string    `json:"mode,omitempty"`
}

var ErrSessionClosed = errors.New("topology session closed")

const DefaultFrameInterval = 33 * time.Millisecond

// Session drives one live topology view. Run owns all simulation state;
// other goroutines talk to it through Send and Frames.
type Session struct {
	ID string

	devices  []models.Device
	cfg      Config
	interval time.Duration
	logger   *slog.Logger

	events chan Event
	frames chan Frame
	done   chan struct{}

	// owned by Run
	graph     Graph
	sim       *Simulation
	transform Transform
	tooltip   *Tooltip
	seq       int
}

type SessionOption func(*Session)

func WithFrameInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.interval = d }
}

func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func WithConfig(cfg Config) SessionOption {
	return func(s *Session) { s.cfg = cfg }
}

func NewSession(devices []models.Device, mode ViewMode, opts ...SessionOption) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		devices:  devices,
		cfg:      DefaultConfig(),
		interval: DefaultFrameInterval,
		logger:   slog.Default(),
		events:   make(chan Event, 16),
		frames:   make(chan Frame, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset(mode)
	return s
}

// Frames yields rendered frames. Slow readers only see the latest one. The
// channel is closed when Run returns.
func (s *Session) Frames() <-chan Frame {
	return s.frames
}

// Send queues an event for the simulation loop.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks the simulation until ctx is cancelled. Ticking pauses while the
// layout is settled and resumes on the next interaction.
func (s *Session) Run(ctx context.Context) error {
	metrics.TopologySessions.Inc()
	defer metrics.TopologySessions.Dec()
	defer close(s.frames)
	defer close(s.done)

	s.logger.Debug("topology session started", "session", s.ID, "mode", s.graph.Mode, "nodes", len(s.graph.Nodes))
	s.emit()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("topology session stopped", "session", s.ID)
			return ctx.Err()
		case ev := <-s.events:
			if err := s.apply(ev); err != nil {
				s.logger.Warn("ERROR topology event rejected", "session", s.ID, "type", ev.Type, "error", err)
				continue
			}
			s.emit()
		case <-ticker.C:
			if s.sim.Settled() {
				continue
			}
			s.sim.Tick()
			s.emit()
		}
	}
}

func (s *Session) apply(ev Event) error {
	switch ev.Type {
	case EventDragStart:
		if s.sim.Settled() {
			s.sim.Reheat()
		}
		return s.sim.DragStart(ev.NodeID)
	case EventDrag:
		return s.sim.Drag(ev.NodeID, ev.X, ev.Y)
	case EventDragEnd:
		return s.sim.DragEnd(ev.NodeID)
	case EventZoom:
		t := s.transform.Translate(ev.DX, ev.DY)
		if ev.Factor > 0 {
			t = t.ScaleAt(Point{X: ev.X, Y: ev.Y}, ev.Factor)
		}
		s.transform = t
		return nil
	case EventHover:
		if ev.NodeID == "" {
			s.tooltip = nil
			return nil
		}
		for _, n := range s.graph.Nodes {
			if n.ID == ev.NodeID {
				tip := TooltipFor(n, Point{X: ev.X, Y: ev.Y})
				s.tooltip = &tip
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrUnknownNode, ev.NodeID)
	case EventMode:
		mode, err := ParseViewMode(ev.Mode)
		if err != nil {
			return err
		}
		s.reset(mode)
		return nil
	}
	return fmt.Errorf("unsupported event type %q", ev.Type)
}

// reset discards the simulation and view state and rebuilds from devices.
func (s *Session) reset(mode ViewMode) {
	s.graph = BuildGraph(s.devices, mode)
	s.sim = NewSimulation(s.graph, s.cfg)
	s.transform = Identity
	s.tooltip = nil
}

func (s *Session) emit() {
	s.seq++
	f := Snapshot(s.graph, s.sim, s.transform)
	f.Seq = s.seq
	f.Tooltip = s.tooltip

	select {
	case s.frames <- f:
		return
	default:
	}
	// Drop the stale frame so the reader gets the newest one.
	select {
	case <-s.frames:
	default:
	}
	select {
	case s.frames <- f:
	default:
	}
}
