package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/Serverket/hermon-radio/internal/domain"
)

// Store persists the singleton overlay row. Nil store means pure in-memory
// mode: state is lost on restart, an accepted degraded mode.
type Store interface {
	Initialize(ctx context.Context, def domain.OverlayState) (domain.OverlayState, error)
	Save(ctx context.Context, state domain.OverlayState) error
}

// Publisher receives the full resulting state after every applied write.
type Publisher interface {
	Publish(state domain.OverlayState)
}

// Service validates and applies overlay mutations. It is the sole writer of
// the overlay state; the mutex keeps the merge-stamp-publish sequence from
// interleaving under parallel request handlers.
type Service struct {
	// writeMu serializes whole updates so broadcasts and saves happen in
	// stamp order; mu alone guards the state copy read by Current.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	state     domain.OverlayState
	store     Store
	publisher Publisher
	local     Publisher
	clock     clockwork.Clock
}

// NewService wires the overlay service. publisher receives every locally
// applied state; local receives snapshots applied from peer instances and
// must not forward them back.
func NewService(store Store, publisher, local Publisher, clock clockwork.Clock) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		local:     local,
		clock:     clock,
	}
}

// Init loads the current state from the store, seeding the default row when
// none exists. In memory-only mode it just installs the default state.
func (s *Service) Init(ctx context.Context) error {
	def := domain.DefaultState(s.clock.Now().UTC())

	if s.store == nil {
		s.mu.Lock()
		s.state = def
		s.mu.Unlock()
		slog.Info("Running in memory-only mode, overlay state will not survive restarts")
		return nil
	}

	state, err := s.store.Initialize(ctx, def)
	if err != nil {
		return fmt.Errorf("failed to initialize overlay store: %w", err)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Current returns the state snapshot. This is the hot path behind the read
// endpoint and the polling fallback; it never touches the store.
func (s *Service) Current() domain.OverlayState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update merges the whitelisted fields of patch into the current state,
// stamps updated_at, broadcasts the result, and persists it. The returned
// state is always the applied one; a non-nil error means persistence failed
// after the state was already applied and broadcast.
func (s *Service) Update(ctx context.Context, patch domain.Patch) (domain.OverlayState, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := domain.Merge(s.state, patch)
	next.UpdatedAt = s.clock.Now().UTC()
	s.state = next
	s.mu.Unlock()

	s.publisher.Publish(next)

	if s.store != nil {
		if err := s.store.Save(ctx, next); err != nil {
			slog.Error("Failed to persist overlay state", "error", err)
			return next, err
		}
	}

	return next, nil
}

// ApplyRemote installs a snapshot received from another instance and fans it
// out to local subscribers. It holds the write lock across apply and fan-out
// so snapshots reach subscribers in the order they were applied and a late
// joiner never sees an older state than Current returns. The snapshot is not
// persisted again and not forwarded back to peers; stale snapshots are
// ignored.
func (s *Service) ApplyRemote(state domain.OverlayState) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !state.UpdatedAt.After(s.state.UpdatedAt) {
		s.mu.Unlock()
		return false
	}
	s.state = state
	s.mu.Unlock()

	s.local.Publish(state)
	return true
}
