// Package transport carries cross-chain traffic: point-to-point messages to
// a chain's inbox and published event streams that other chains subscribe
// to. Delivery per chain preserves sender order; handlers run strictly one
// at a time.
package transport

import (
	"context"
	"encoding/json"
	"time"

	"chainjack/models"
)

// EnvelopeKind distinguishes inbox traffic.
type EnvelopeKind string

const (
	// KindMessage is a point-to-point protocol message.
	KindMessage EnvelopeKind = "message"
	// KindEvent is a stream event delivered to a subscriber.
	KindEvent EnvelopeKind = "event"
	// KindSubscribe and KindUnsubscribe are transport control envelopes: a
	// chain can attach another chain to its stream on the requester's
	// behalf, and the attachment happens at the subscriber's end.
	KindSubscribe   EnvelopeKind = "subscribe"
	KindUnsubscribe EnvelopeKind = "unsubscribe"
)

// Envelope is the wire format for everything delivered to a chain's inbox.
type Envelope struct {
	ID        string          `json:"id"`
	Kind      EnvelopeKind    `json:"kind"`
	From      models.ChainID  `json:"from"`
	Stream    string          `json:"stream,omitempty"`
	Index     uint64          `json:"index,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Handler processes one delivered envelope. Returning an error rejects the
// envelope; the transport logs and drops it (state was already rolled back
// by the executor).
type Handler func(ctx context.Context, env Envelope) error

// Transport is the cross-chain boundary consumed by the chain executor.
type Transport interface {
	// Send delivers a protocol message to the destination chain's inbox.
	Send(ctx context.Context, dest models.ChainID, msg models.Message) error

	// Emit appends an event to one of this chain's streams and fans it out
	// to current subscribers.
	Emit(ctx context.Context, stream string, event models.GameStateEvent) error

	// Subscribe attaches subscriber to the source chain's stream.
	Subscribe(ctx context.Context, source models.ChainID, stream string, subscriber models.ChainID) error

	// Unsubscribe detaches subscriber from the source chain's stream.
	Unsubscribe(ctx context.Context, source models.ChainID, stream string, subscriber models.ChainID) error

	// ReadEvent fetches one past event of a stream by index.
	ReadEvent(ctx context.Context, source models.ChainID, stream string, index uint64) (*models.GameStateEvent, error)

	// Start begins delivering this chain's inbox to the handler. Delivery is
	// serial: the next envelope is not handed over before the handler
	// returns.
	Start(ctx context.Context, handler Handler) error

	// Close stops delivery and releases transport resources.
	Close() error
}

// DecodeMessage unmarshals a message envelope payload.
func DecodeMessage(env Envelope) (models.Message, error) {
	var msg models.Message
	err := json.Unmarshal(env.Payload, &msg)
	return msg, err
}

// DecodeEvent unmarshals an event envelope payload.
func DecodeEvent(env Envelope) (models.GameStateEvent, error) {
	var event models.GameStateEvent
	err := json.Unmarshal(env.Payload, &event)
	return event, err
}
