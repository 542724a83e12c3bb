package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnknownPage  = errors.New("unknown page")
	ErrMissingParam = errors.New("missing page parameter")
)

type entry struct {
	ctrl *Controller
	refs int
}

// Registry hands out one controller per page instance and unmounts it when
// its last subscriber leaves.
type Registry struct {
	base      context.Context
	defs      map[string]PageDef
	intervals map[string]time.Duration
	ctrlOpts  []Option
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type RegistryOption func(*Registry)

// WithIntervals overrides page intervals by name. Values are clamped.
func WithIntervals(intervals map[string]time.Duration) RegistryOption {
	return func(r *Registry) {
		for name, d := range intervals {
			r.intervals[name] = d
		}
	}
}

// WithControllerOptions applies opts to every controller created.
func WithControllerOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.ctrlOpts = append(r.ctrlOpts, opts...) }
}

func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a registry whose loops live until base is cancelled
// or Close is called.
func NewRegistry(base context.Context, defs []PageDef, opts ...RegistryOption) *Registry {
	r := &Registry{
		base:      base,
		defs:      make(map[string]PageDef, len(defs)),
		intervals: make(map[string]time.Duration),
		logger:    slog.Default(),
		entries:   make(map[string]*entry),
	}
	for _, d := range defs {
		r.defs[d.Name] = d
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pages lists the registered page names.
func (r *Registry) Pages() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Interval reports the effective interval of page.
func (r *Registry) Interval(page string) time.Duration {
	if d, ok := r.intervals[page]; ok {
		return ClampInterval(d)
	}
	return ClampInterval(r.defs[page].Interval)
}

func (r *Registry) resolve(page string, params map[string]string) (PageDef, string, map[string]string, error) {
	def, ok := r.defs[page]
	if !ok {
		return PageDef{}, "", nil, fmt.Errorf("%w: %s", ErrUnknownPage, page)
	}
	values := url.Values{}
	clean := make(map[string]string, len(def.Params))
	for _, p := range def.Params {
		v := strings.TrimSpace(params[p])
		if v == "" {
			return PageDef{}, "", nil, fmt.Errorf("%w: %s requires %s", ErrMissingParam, page, p)
		}
		clean[p] = v
		values.Set(p, v)
	}
	key := page
	if len(values) > 0 {
		key += "?" + values.Encode()
	}
	return def, key, clean, nil
}

func (r *Registry) newController(def PageDef, params map[string]string) *Controller {
	return NewController(def.Name, r.Interval(def.Name), def.Fetchers(params), r.ctrlOpts...)
}

// Acquire returns the mounted controller for the page instance, mounting
// it for the first caller. release must be called exactly once.
func (r *Registry) Acquire(page string, params map[string]string) (*Controller, func(), error) {
	def, key, clean, err := r.resolve(page, params)
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		ctrl := r.newController(def, clean)
		if err := ctrl.Mount(r.base); err != nil {
			return nil, nil, err
		}
		e = &entry{ctrl: ctrl}
		r.entries[key] = e
		r.logger.Info("SUCCESS page mounted", "page", key, "interval", ctrl.Interval())
	}
	e.refs++

	var once sync.Once
	release := func() {
		once.Do(func() { r.release(key, e) })
	}
	return e.ctrl, release, nil
}

func (r *Registry) release(key string, e *entry) {
	r.mu.Lock()
	e.refs--
	last := e.refs == 0
	if last && r.entries[key] == e {
		delete(r.entries, key)
	}
	r.mu.Unlock()

	if last {
		e.ctrl.Unmount()
		r.logger.Info("SUCCESS page unmounted", "page", key)
	}
}

// Snapshot returns the state of a mounted page instance, or runs a one-off
// refresh when nothing has it mounted.
func (r *Registry) Snapshot(ctx context.Context, page string, params map[string]string) (Snapshot, error) {
	def, key, clean, err := r.resolve(page, params)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	e, ok := r.entries[key]
	r.mu.Unlock()
	if ok {
		if snap := e.ctrl.Snapshot(); snap.State != StateLoading && snap.State != StateIdle {
			return snap, nil
		}
	}

	return r.newController(def, clean).Refresh(ctx), nil
}

// Mounted reports how many page instances are live.
func (r *Registry) Mounted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close unmounts every page.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.ctrl.Unmount()
	}
}
