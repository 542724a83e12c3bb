// Package preferences persists per-profile UI preferences in an embedded
// BadgerDB. Values are loaded once and written through on change.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	DefaultProfile = "default"
	keyPrefix      = "prefs/"
)

var ErrInvalid = errors.New("invalid preferences")

type Preferences struct {
	Theme       string `json:"theme" validate:"required,oneof=light dark"`
	SidebarOpen bool   `json:"sidebarOpen"`
}

// Update is a partial change; nil fields are left alone.
type Update struct {
	Theme       *string `json:"theme"`
	SidebarOpen *bool   `json:"sidebarOpen"`
}

type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path         string
	InMemory     bool
	DefaultTheme string
	Logger       *slog.Logger
}

type Store struct {
	db       *badger.DB
	defaults Preferences
	logger   *slog.Logger
	validate *validator.Validate

	mu    sync.RWMutex
	cache map[string]Preferences
}

// badgerLogger routes badger's own logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("preferences path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating preferences directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{logger: logger.With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening preferences store: %w", err)
	}

	theme := cfg.DefaultTheme
	if theme != ThemeDark {
		theme = ThemeLight
	}
	return &Store{
		db:       db,
		defaults: Preferences{Theme: theme, SidebarOpen: true},
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cache:    make(map[string]Preferences),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Defaults returns the preferences of a profile that never saved any.
func (s *Store) Defaults() Preferences {
	return s.defaults
}

// Load returns the profile's preferences, reading the database only on
// first use.
func (s *Store) Load(profile string) (Preferences, error) {
	s.mu.RLock()
	p, ok := s.cache[profile]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := s.read(profile)
	if err != nil {
		return s.defaults, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a Set that landed while reading wins
	if cached, ok := s.cache[profile]; ok {
		return cached, nil
	}
	s.cache[profile] = p
	return p, nil
}

// read fetches the stored preferences, falling back to the defaults when
// none are stored or the stored value is invalid.
func (s *Store) read(profile string) (Preferences, error) {
	p := s.defaults
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(profile))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return s.defaults, fmt.Errorf("loading preferences for %s: %w", profile, err)
	}
	if s.validate.Struct(p) != nil {
		s.logger.Warn("ERROR stored preferences invalid, using defaults", "profile", profile)
		p = s.defaults
	}
	return p, nil
}

// Set validates and persists p, then updates the in-memory copy.
func (s *Store) Set(profile string, p Preferences) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(profile, p)
}

func (s *Store) setLocked(profile string, p Preferences) (Preferences, error) {
	if err := s.validate.Struct(p); err != nil {
		return Preferences{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return Preferences{}, fmt.Errorf("encoding preferences: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(profile), data)
	})
	if err != nil {
		return Preferences{}, fmt.Errorf("saving preferences for %s: %w", profile, err)
	}
	s.cache[profile] = p
	s.logger.Info("SUCCESS preferences saved", "profile", profile, "theme", p.Theme, "sidebarOpen", p.SidebarOpen)
	return p, nil
}

// Apply merges u into the profile's current preferences and saves them.
// The merge holds the lock so concurrent partial updates all land.
func (s *Store) Apply(profile string, u Update) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.cache[profile]
	if !ok {
		var err error
		if p, err = s.read(profile); err != nil {
			return Preferences{}, err
		}
	}
	if u.Theme != nil {
		p.Theme = *u.Theme
	}
	if u.SidebarOpen != nil {
		p.SidebarOpen = *u.SidebarOpen
	}
	return s.setLocked(profile, p)
}

func key(profile string) []byte {
	if profile == "" {
		profile = DefaultProfile
	}
	return []byte(keyPrefix + profile)
}
