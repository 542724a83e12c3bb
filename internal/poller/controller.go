// Package poller keeps page state fresh by re-fetching its slices on a
// fixed interval while the page is mounted.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/secflow/secflow/internal/metrics"
)

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateSuccess   State = "success"
	StateError     State = "error"
	StateUnmounted State = "unmounted"
)

const (
	MinInterval = 5 * time.Second
	MaxInterval = 30 * time.Second
)

var ErrUnmounted = errors.New("page unmounted")

// ClampInterval bounds d to [MinInterval, MaxInterval].
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

// Fetcher fills one slice of page state. Fatal fetchers replace the whole
// page with an error view when they fail.
type Fetcher struct {
	Name  string
	Fatal bool
	Fetch func(ctx context.Context) (any, error)
}

// Snapshot is a point-in-time copy of a page's state. Views hold the
// encoded widget view for each slice.
type Snapshot struct {
	Page      string                     `json:"page"`
	State     State                      `json:"state"`
	Views     map[string]json.RawMessage `json:"views"`
	Error     string                     `json:"error,omitempty"`
	Fatal     bool                       `json:"fatal,omitempty"`
	Tick      uint64                     `json:"tick"`
	Revision  uint64                     `json:"revision"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}

func (s Snapshot) clone() Snapshot {
	views := make(map[string]json.RawMessage, len(s.Views))
	for k, v := range s.Views {
		views[k] = v
	}
	s.Views = views
	return s
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithErrorMessage sets how fetch errors are turned into display text.
func WithErrorMessage(fn func(error) string) Option {
	return func(c *Controller) { c.message = fn }
}

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the refresh loop of one page instance.
type Controller struct {
	page     string
	interval time.Duration
	fetchers []Fetcher
	logger   *slog.Logger
	message  func(error) string
	now      func() time.Time

	mu        sync.Mutex
	snap      Snapshot
	sliceErrs map[string]string
	gen       uint64
	committed map[string]uint64
	inFlight  map[uint64]context.CancelFunc
	stop      context.CancelFunc
	running   bool
	subs      map[int]chan Snapshot
	nextSub   int

	wg sync.WaitGroup
}

func NewController(page string, interval time.Duration, fetchers []Fetcher, opts ...Option) *Controller {
	c := &Controller{
		page:      page,
		interval:  ClampInterval(interval),
		fetchers:  fetchers,
		logger:    slog.Default(),
		message:   func(err error) string { return err.Error() },
		now:       time.Now,
		sliceErrs: make(map[string]string),
		committed: make(map[string]uint64),
		inFlight:  make(map[uint64]context.CancelFunc),
		subs:      make(map[int]chan Snapshot),
		snap: Snapshot{
			Page:  page,
			State: StateIdle,
			Views: make(map[string]json.RawMessage),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Interval() time.Duration {
	return c.interval
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Mount starts the refresh loop: one tick now, then one per interval.
// Mounting a running controller is a no-op.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.State == StateUnmounted {
		return ErrUnmounted
	}
	if c.running {
		return nil
	}
	loopCtx, stop := context.WithCancel(ctx)
	c.stop = stop
	c.running = true
	metrics.MountedPages.WithLabelValues(c.page).Inc()

	c.wg.Add(1)
	go c.loop(loopCtx)
	return nil
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()

	done := c.startTick(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case <-done:
				done = c.startTick(ctx)
			default:
				// the previous tick is still waiting on the backend
				metrics.PollSkipped.WithLabelValues(c.page).Inc()
				c.logger.Debug("poll tick skipped", "page", c.page)
			}
		}
	}
}

// startTick runs a tick in the background. The returned channel is closed
// when the tick has committed every slice.
func (c *Controller) startTick(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		c.tick(ctx)
	}()
	return done
}

// Refresh runs one tick synchronously and returns the resulting snapshot.
func (c *Controller) Refresh(ctx context.Context) Snapshot {
	c.tick(ctx)
	return c.Snapshot()
}

type tickKey struct{}

// TickFromContext returns the generation of the tick a fetch runs under.
func TickFromContext(ctx context.Context) (uint64, bool) {
	gen, ok := ctx.Value(tickKey{}).(uint64)
	return gen, ok
}

// tick runs every fetcher concurrently under a new generation. Each fetcher
// commits its own slice as soon as it lands. Only Unmount cancels a tick.
func (c *Controller) tick(ctx context.Context) {
	c.mu.Lock()
	if c.snap.State == StateUnmounted {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	tickCtx, cancel := context.WithCancel(context.WithValue(ctx, tickKey{}, gen))
	c.inFlight[gen] = cancel
	c.snap.Tick = gen
	if c.snap.State == StateIdle {
		c.snap.State = StateLoading
		c.publishLocked()
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.inFlight, gen)
		c.mu.Unlock()
		cancel()
	}()

	metrics.PollTicks.WithLabelValues(c.page).Inc()

	var g errgroup.Group
	for _, f := range c.fetchers {
		f := f
		g.Go(func() error {
			v, err := f.Fetch(tickCtx)
			c.commit(gen, f, v, err)
			return nil
		})
	}
	g.Wait()
}

func (c *Controller) commit(gen uint64, f Fetcher, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// a newer tick already committed this slice
	if gen < c.committed[f.Name] || c.snap.State == StateUnmounted {
		metrics.PollDiscarded.WithLabelValues(c.page).Inc()
		c.logger.Debug("poll result discarded", "page", c.page, "slice", f.Name, "tick", gen, "committed", c.committed[f.Name])
		return
	}
	c.committed[f.Name] = gen

	var raw json.RawMessage
	if err == nil {
		raw, err = json.Marshal(v)
	}

	changed := false
	if err != nil {
		metrics.PollErrors.WithLabelValues(c.page, f.Name).Inc()
		c.logger.Warn("ERROR poll failed", "page", c.page, "slice", f.Name, "error", err)
		c.sliceErrs[f.Name] = c.message(err)
		if f.Fatal && len(c.snap.Views) > 0 {
			c.snap.Views = make(map[string]json.RawMessage)
			changed = true
		}
	} else {
		delete(c.sliceErrs, f.Name)
		if !bytes.Equal(c.snap.Views[f.Name], raw) {
			c.snap.Views[f.Name] = raw
			changed = true
		}
	}

	state, msg, fatal := c.summarizeLocked()
	if state != c.snap.State || msg != c.snap.Error || fatal != c.snap.Fatal {
		changed = true
	}
	if !changed {
		return
	}
	c.snap.State = state
	c.snap.Error = msg
	c.snap.Fatal = fatal
	c.publishLocked()
}

// summarizeLocked derives page state from the outstanding slice errors.
func (c *Controller) summarizeLocked() (State, string, bool) {
	if len(c.sliceErrs) == 0 {
		return StateSuccess, "", false
	}
	fatal := false
	for _, f := range c.fetchers {
		if _, failed := c.sliceErrs[f.Name]; failed && f.Fatal {
			fatal = true
		}
	}
	names := make([]string, 0, len(c.sliceErrs))
	for name := range c.sliceErrs {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if m := c.sliceErrs[name]; !seen[m] {
			seen[m] = true
			msgs = append(msgs, m)
		}
	}
	return StateError, strings.Join(msgs, "; "), fatal
}

// publishLocked bumps the revision and hands the snapshot to subscribers.
// A subscriber that has not read the previous snapshot gets it replaced.
func (c *Controller) publishLocked() {
	c.snap.Revision++
	c.snap.UpdatedAt = c.now()
	for _, ch := range c.subs {
		offer(ch, c.snap.clone())
	}
}

func offer(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// Subscribe returns a channel that receives the current snapshot and then
// one per change. The channel is closed on cancel or Unmount.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if c.snap.State == StateUnmounted {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snap.clone()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Unmount stops the loop, cancels every in-flight tick and closes every
// subscriber. It is terminal and waits for in-flight work to finish.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.snap.State == StateUnmounted {
		c.mu.Unlock()
		return
	}
	if c.stop != nil {
		c.stop()
	}
	for _, cancel := range c.inFlight {
		cancel()
	}
	if c.running {
		metrics.MountedPages.WithLabelValues(c.page).Dec()
		c.running = false
	}
	c.snap.State = StateUnmounted
	c.snap.Revision++
	c.snap.UpdatedAt = c.now()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Debug("page unmounted", "page", c.page)
}
