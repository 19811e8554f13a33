// Package appstate owns the setup history and feature flags shared by the CLI
// and the HTTP API.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/verte-zerg/pitwall/internal/model"
)

const (
	// MaxHistory is how many setup requests are remembered.
	MaxHistory = 10
	// DefaultHistoryView is how many entries are listed by default.
	DefaultHistoryView = 5
	// FlagAIRecommender unlocks the AI recommender view once a setup analysis
	// has been opened.
	FlagAIRecommender = "aiRecommenderVisible"
)

// ErrNotFound is returned when deleting an unknown history entry.
var ErrNotFound = errors.New("history entry not found")

// Backend persists state changes.
type Backend interface {
	InsertHistory(ctx context.Context, entry model.HistoryEntry, keep int) error
	ListHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	DeleteHistory(ctx context.Context, id string) error
	SetFlag(ctx context.Context, name string, enabled bool) error
	ListFlags(ctx context.Context) (map[string]bool, error)
}

// State is the in-memory view of history and flags. Writes go to the backend
// first, so memory never holds anything the backend rejected. It is safe for
// concurrent use.
type State struct {
	backend   Backend
	clock     clockwork.Clock
	isMissing func(error) bool

	mu      sync.RWMutex
	history []model.HistoryEntry
	flags   map[string]bool
}

// Option configures a State.
type Option func(*State)

// WithClock sets the clock used to stamp history entries.
func WithClock(clock clockwork.Clock) Option {
	return func(s *State) {
		s.clock = clock
	}
}

// WithNotFound tells the state how to recognize the backend's missing-row
// error so it can be reported as ErrNotFound.
func WithNotFound(fn func(error) bool) Option {
	return func(s *State) {
		s.isMissing = fn
	}
}

// New returns an empty state. Call Load to read persisted data.
func New(backend Backend, opts ...Option) *State {
	s := &State{
		backend: backend,
		clock:   clockwork.NewRealClock(),
		flags:   map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces memory with what the backend holds.
func (s *State) Load(ctx context.Context) error {
	history, err := s.backend.ListHistory(ctx, MaxHistory)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	flags, err := s.backend.ListFlags(ctx)
	if err != nil {
		return fmt.Errorf("failed to load flags: %w", err)
	}
	if flags == nil {
		flags = map[string]bool{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
	s.flags = flags
	return nil
}

// RecordSetup remembers a setup request and returns the stored entry.
func (s *State) RecordSetup(ctx context.Context, trackName, weather string) (model.HistoryEntry, error) {
	entry := model.HistoryEntry{
		ID:        uuid.NewString(),
		TrackName: strings.TrimSpace(trackName),
		Weather:   strings.TrimSpace(weather),
		CreatedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.InsertHistory(ctx, entry, MaxHistory); err != nil {
		return model.HistoryEntry{}, fmt.Errorf("failed to save history: %w", err)
	}
	history := make([]model.HistoryEntry, 0, MaxHistory)
	history = append(history, entry)
	history = append(history, s.history...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	s.history = history
	return entry, nil
}

// DeleteSetup forgets one history entry.
func (s *State) DeleteSetup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.DeleteHistory(ctx, id); err != nil {
		if s.isMissing != nil && s.isMissing(err) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete history: %w", err)
	}
	for i, e := range s.history {
		if e.ID == id {
			s.history = append(s.history[:i:i], s.history[i+1:]...)
			break
		}
	}
	return nil
}

// History returns up to limit entries, newest first. A non-positive limit
// returns DefaultHistoryView entries.
func (s *State) History(limit int) []model.HistoryEntry {
	if limit <= 0 {
		limit = DefaultHistoryView
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit > len(s.history) {
		limit = len(s.history)
	}
	return append([]model.HistoryEntry(nil), s.history[:limit]...)
}

// Flag reports a named flag, false when unset.
func (s *State) Flag(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[name]
}

// SetFlag stores a named flag.
func (s *State) SetFlag(ctx context.Context, name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.SetFlag(ctx, name, enabled); err != nil {
		return fmt.Errorf("failed to save flag %s: %w", name, err)
	}
	s.flags[name] = enabled
	return nil
}

// Since reports how long ago an entry was recorded.
func (s *State) Since(entry model.HistoryEntry) time.Duration {
	return s.clock.Since(entry.CreatedAt)
}
