package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Serverket/hermon-radio/internal/domain"
	"github.com/Serverket/hermon-radio/internal/metrics"
)

// subscriberBuffer bounds how many undelivered snapshots a subscriber may
// lag behind before it is considered dead. Intermediate states are allowed
// to be skipped; only convergence to the latest state matters.
const subscriberBuffer = 8

// Subscriber is one connected live-update channel. The transport layer owns
// exactly one and must call Hub.Unsubscribe when the remote side goes away.
type Subscriber struct {
	ID uuid.UUID
	ch chan []byte
}

// Updates returns the delivery channel. It is closed when the hub drops the
// subscriber or shuts down.
func (s *Subscriber) Updates() <-chan []byte {
	return s.ch
}

// Hub maintains the registry of connected subscribers and pushes the full
// current state to each on every change and on connect.
type Hub struct {
	mu       sync.Mutex
	subs     map[uuid.UUID]*Subscriber
	snapshot []byte
	stopped  bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]*Subscriber)}
}

// Subscribe registers a new subscriber and queues the current snapshot as
// its first message, so new viewers are never left blank.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID: uuid.New(),
		ch: make(chan []byte, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		close(sub.ch)
		return sub
	}

	if h.snapshot != nil {
		sub.ch <- h.snapshot
	}
	h.subs[sub.ID] = sub

	metrics.HubSubscribers.Set(float64(len(h.subs)))
	slog.Debug("Subscriber connected", "subscriber_id", sub.ID.String(), "total", len(h.subs))
	return sub
}

// Unsubscribe removes a subscriber. Safe to call after the hub has already
// dropped it.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(id)
}

// Publish serializes state once and writes it to every registered
// subscriber. A full or dead channel drops that subscriber silently and
// never affects delivery to the others.
func (h *Hub) Publish(state domain.OverlayState) {
	payload, err := json.Marshal(state)
	if err != nil {
		slog.Error("Failed to marshal overlay state", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}

	h.snapshot = payload

	var dead []uuid.UUID
	for id, sub := range h.subs {
		select {
		case sub.ch <- payload:
		default:
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		slog.Warn("Dropping slow subscriber", "subscriber_id", id.String())
		metrics.HubDroppedSubscribersTotal.Inc()
		h.remove(id)
	}

	metrics.HubBroadcastsTotal.Inc()
}

// SetSnapshot seeds the snapshot delivered to new subscribers without
// notifying existing ones. Called once at startup with the loaded state.
func (h *Hub) SetSnapshot(state domain.OverlayState) {
	payload, err := json.Marshal(state)
	if err != nil {
		slog.Error("Failed to marshal overlay state", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = payload
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Stop closes every subscriber channel and rejects further subscriptions.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true

	for id := range h.subs {
		h.remove(id)
	}
	slog.Info("Broadcast hub stopped")
}

// remove deletes and closes a subscriber. Caller must hold h.mu.
func (h *Hub) remove(id uuid.UUID) {
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.ch)
	metrics.HubSubscribers.Set(float64(len(h.subs)))
}
