// Package broadcast fans full overlay snapshots out to connected subscribers.
//
// The hub keeps a registry of buffered subscriber channels keyed by UUID and
// retains the last serialized snapshot so late joiners receive current state
// as their first message. A subscriber whose channel is full is dropped
// instead of blocking the publisher.
package broadcast
