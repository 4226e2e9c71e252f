// Package relay converges overlay state across replicas over Redis pub/sub.
//
// Each instance publishes every locally applied state to a shared channel
// and applies snapshots published by its peers, so viewers connected to
// different replicas see the same overlay. Best effort only: the relay never
// blocks or fails a local write.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Serverket/hermon-radio/internal/domain"
	"github.com/Serverket/hermon-radio/internal/metrics"
)

const channelName = "overlay:updates"

// envelope wraps a snapshot with the publishing instance's identity so an
// instance can discard its own messages.
type envelope struct {
	Origin uuid.UUID           `json:"origin"`
	State  domain.OverlayState `json:"state"`
}

// Relay bridges local overlay updates to peer instances.
type Relay struct {
	client *goredis.Client
	origin uuid.UUID
	apply  func(domain.OverlayState)
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a relay. apply is invoked for every snapshot received from a
// peer instance.
func New(client *goredis.Client, apply func(domain.OverlayState)) *Relay {
	return &Relay{
		client: client,
		origin: uuid.New(),
		apply:  apply,
		done:   make(chan struct{}),
	}
}

// Start subscribes to the relay channel and applies peer snapshots until
// Stop is called. go-redis reconnects the subscription on its own.
func (r *Relay) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	pubsub := r.client.Subscribe(ctx, channelName)

	go func() {
		defer close(r.done)
		defer pubsub.Close()

		slog.Info("Relay subscribed", "channel", channelName, "origin", r.origin.String())
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				r.handleMessage(msg.Payload)
			}
		}
	}()
}

func (r *Relay) handleMessage(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		slog.Warn("Discarding malformed relay message", "error", err)
		metrics.RelayErrorsTotal.Inc()
		return
	}
	if env.Origin == r.origin {
		return
	}

	metrics.RelayMessagesTotal.WithLabelValues("received").Inc()
	r.apply(env.State)
}

// Publish sends a locally applied snapshot to peer instances. Failures are
// logged and counted, never surfaced: the local broadcast already happened.
func (r *Relay) Publish(ctx context.Context, state domain.OverlayState) {
	payload, err := json.Marshal(envelope{Origin: r.origin, State: state})
	if err != nil {
		slog.Error("Failed to marshal relay envelope", "error", err)
		metrics.RelayErrorsTotal.Inc()
		return
	}

	if err := r.client.Publish(ctx, channelName, payload).Err(); err != nil {
		slog.Warn("Failed to publish relay message", "error", err)
		metrics.RelayErrorsTotal.Inc()
		return
	}
	metrics.RelayMessagesTotal.WithLabelValues("sent").Inc()
}

// Stop terminates the subscription and waits for the receive loop to exit.
func (r *Relay) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}
