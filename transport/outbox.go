package transport

import (
	"context"
	"fmt"

	"chainjack/models"
	log "github.com/sirupsen/logrus"
)

// Sender is the outbound surface handlers write to. Inside a unit of work it
// is backed by an Outbox so nothing leaves the chain before the state
// commit.
type Sender interface {
	Send(dest models.ChainID, msg models.Message)
	Emit(stream string, event models.GameStateEvent)
	Subscribe(source models.ChainID, stream string, subscriber models.ChainID)
	Unsubscribe(source models.ChainID, stream string, subscriber models.ChainID)
}

type actionKind uint8

const (
	actionSend actionKind = iota
	actionEmit
	actionSubscribe
	actionUnsubscribe
)

type action struct {
	kind       actionKind
	dest       models.ChainID
	msg        models.Message
	stream     string
	event      models.GameStateEvent
	source     models.ChainID
	subscriber models.ChainID
}

// Outbox buffers transport actions raised during a handler invocation and
// flushes them only after the state commit. Rolled-back handlers leave no
// outbound traffic behind.
type Outbox struct {
	transport Transport
	pending   []action
}

// NewOutbox creates an outbox flushing into the given transport.
func NewOutbox(t Transport) *Outbox {
	return &Outbox{transport: t}
}

func (o *Outbox) Send(dest models.ChainID, msg models.Message) {
	o.pending = append(o.pending, action{kind: actionSend, dest: dest, msg: msg})
}

func (o *Outbox) Emit(stream string, event models.GameStateEvent) {
	o.pending = append(o.pending, action{kind: actionEmit, stream: stream, event: event})
}

func (o *Outbox) Subscribe(source models.ChainID, stream string, subscriber models.ChainID) {
	o.pending = append(o.pending, action{kind: actionSubscribe, source: source, stream: stream, subscriber: subscriber})
}

func (o *Outbox) Unsubscribe(source models.ChainID, stream string, subscriber models.ChainID) {
	o.pending = append(o.pending, action{kind: actionUnsubscribe, source: source, stream: stream, subscriber: subscriber})
}

// Flush replays the buffered actions against the transport, in order.
func (o *Outbox) Flush(ctx context.Context) error {
	for _, a := range o.pending {
		var err error
		switch a.kind {
		case actionSend:
			err = o.transport.Send(ctx, a.dest, a.msg)
		case actionEmit:
			err = o.transport.Emit(ctx, a.stream, a.event)
		case actionSubscribe:
			err = o.transport.Subscribe(ctx, a.source, a.stream, a.subscriber)
		case actionUnsubscribe:
			err = o.transport.Unsubscribe(ctx, a.source, a.stream, a.subscriber)
		}
		if err != nil {
			// State is already committed; dropping the rest would lose more.
			log.WithError(err).Error("Failed to flush outbound transport action")
			return fmt.Errorf("failed to flush outbox: %w", err)
		}
	}
	o.pending = nil
	return nil
}

// Discard drops the buffered actions after a rollback.
func (o *Outbox) Discard() {
	o.pending = nil
}
