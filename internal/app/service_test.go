package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Serverket/hermon-radio/internal/domain"
)

type mockStore struct {
	mu      sync.Mutex
	saved   []domain.OverlayState
	initial domain.OverlayState
	initErr error
	saveErr error
}

func (m *mockStore) Initialize(_ context.Context, def domain.OverlayState) (domain.OverlayState, error) {
	if m.initErr != nil {
		return domain.OverlayState{}, m.initErr
	}
	if m.initial == (domain.OverlayState{}) {
		return def, nil
	}
	return m.initial, nil
}

func (m *mockStore) Save(_ context.Context, state domain.OverlayState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, state)
	return nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.OverlayState
}

func (m *mockPublisher) Publish(state domain.OverlayState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, state)
}

func (m *mockPublisher) last(t *testing.T) domain.OverlayState {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.published)
	return m.published[len(m.published)-1]
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func newTestService(t *testing.T, store Store) (*Service, *mockPublisher, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	publisher := &mockPublisher{}
	svc := NewService(store, publisher, publisher, clock)
	require.NoError(t, svc.Init(context.Background()))
	return svc, publisher, clock
}

func TestService_InitMemoryMode(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	state := svc.Current()
	assert.False(t, state.Visible)
	assert.Equal(t, domain.TypeImage, state.Type)
	assert.Equal(t, domain.SourceURL, state.Source)
}

func TestService_InitLoadsStoredState(t *testing.T) {
	stored := domain.DefaultState(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	stored.Visible = true
	stored.URL = "https://example.com/banner.png"

	svc, _, _ := newTestService(t, &mockStore{initial: stored})

	assert.Equal(t, stored, svc.Current())
}

func TestService_InitPropagatesStoreError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	publisher := &mockPublisher{}
	svc := NewService(&mockStore{initErr: errors.New("connection refused")}, publisher, publisher, clock)

	err := svc.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestService_UpdateMergesStampsAndBroadcasts(t *testing.T) {
	store := &mockStore{}
	svc, publisher, clock := newTestService(t, store)

	before := svc.Current()
	clock.Advance(time.Second)

	state, err := svc.Update(context.Background(), domain.Patch{
		"visible": true,
		"type":    "youtube",
		"url":     "https://youtu.be/abc123",
	})
	require.NoError(t, err)

	assert.True(t, state.Visible)
	assert.Equal(t, domain.TypeYouTube, state.Type)
	assert.Equal(t, "https://youtu.be/abc123", state.URL)
	assert.True(t, state.UpdatedAt.After(before.UpdatedAt))

	// Broadcast carries the full resulting state, persistence got it too.
	assert.Equal(t, state, publisher.last(t))
	require.Len(t, store.saved, 1)
	assert.Equal(t, state, store.saved[0])
	assert.Equal(t, state, svc.Current())
}

func TestService_UpdateBroadcastsEvenWhenPersistenceFails(t *testing.T) {
	store := &mockStore{saveErr: errors.New("connection reset")}
	svc, publisher, clock := newTestService(t, store)
	clock.Advance(time.Second)

	state, err := svc.Update(context.Background(), domain.Patch{
		"visible": true,
		"url":     "https://example.com/live.png",
	})

	// Error surfaces, but the in-memory state is updated and broadcast.
	require.Error(t, err)
	assert.True(t, state.Visible)
	assert.Equal(t, state, svc.Current())
	assert.Equal(t, state, publisher.last(t))
}

func TestService_UpdateWithoutStoreNeverErrors(t *testing.T) {
	svc, publisher, _ := newTestService(t, nil)

	state, err := svc.Update(context.Background(), domain.Patch{"visible": true})
	require.NoError(t, err)
	assert.True(t, state.Visible)
	assert.Equal(t, state, publisher.last(t))
}

func TestService_ConcurrentUpdatesLastWriteWins(t *testing.T) {
	svc, _, _ := newTestService(t, &mockStore{})

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Update(context.Background(), domain.Patch{
				"visible": true,
				"url":     fmt.Sprintf("https://example.com/%d.png", i),
				"title":   fmt.Sprintf("writer %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// No field-level interleaving: url and title always come from the same
	// writer's patch.
	state := svc.Current()
	var matched bool
	for i := 0; i < writers; i++ {
		if state.URL == fmt.Sprintf("https://example.com/%d.png", i) {
			assert.Equal(t, fmt.Sprintf("writer %d", i), state.Title)
			matched = true
		}
	}
	assert.True(t, matched, "final state must match exactly one writer's patch")
}

func TestService_ApplyRemote(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	peerFacing := &mockPublisher{}
	local := &mockPublisher{}
	svc := NewService(nil, peerFacing, local, clock)
	require.NoError(t, svc.Init(context.Background()))

	remote := svc.Current()
	remote.Visible = true
	remote.URL = "https://example.com/from-peer.png"
	remote.UpdatedAt = clock.Now().Add(time.Minute)

	assert.True(t, svc.ApplyRemote(remote))
	assert.Equal(t, remote, svc.Current())

	// Applied snapshots fan out to local subscribers only; forwarding them
	// back through the relay would echo between instances.
	assert.Equal(t, remote, local.last(t))
	assert.Zero(t, peerFacing.count())

	// Stale and same-timestamp snapshots are ignored and not fanned out.
	stale := remote
	stale.URL = "https://example.com/old.png"
	stale.UpdatedAt = remote.UpdatedAt.Add(-time.Second)
	assert.False(t, svc.ApplyRemote(stale))
	assert.False(t, svc.ApplyRemote(remote))
	assert.Equal(t, "https://example.com/from-peer.png", svc.Current().URL)
	assert.Equal(t, 1, local.count())
}

// gatedPublisher parks the first fan-out until released so a remote apply can
// race an in-flight local update.
type gatedPublisher struct {
	mu      sync.Mutex
	states  []domain.OverlayState
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedPublisher) Publish(state domain.OverlayState) {
	p.once.Do(func() {
		close(p.started)
		<-p.release
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func TestService_RemoteApplyWaitsForInFlightLocalFanOut(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	pub := &gatedPublisher{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(nil, pub, pub, clock)
	require.NoError(t, svc.Init(context.Background()))

	remote := svc.Current()
	remote.Visible = true
	remote.Title = "remote"
	remote.UpdatedAt = clock.Now().Add(time.Minute)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Update(context.Background(), domain.Patch{"visible": true, "title": "local"})
		assert.NoError(t, err)
	}()

	// The local update is now parked mid-fan-out; a newer peer snapshot
	// arrives and must wait its turn instead of overtaking it.
	<-pub.started
	go func() {
		defer wg.Done()
		svc.ApplyRemote(remote)
	}()

	close(pub.release)
	wg.Wait()

	// Subscribers saw the snapshots in apply order, so the last one fanned
	// out matches Current and a late joiner never starts on a stale frame.
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.states, 2)
	assert.Equal(t, "local", pub.states[0].Title)
	assert.Equal(t, remote, pub.states[1])
	assert.Equal(t, remote, svc.Current())
}
