package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chainjack/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Hub is an in-process transport fabric connecting every chain of a single
// process. It backs tests and single-process topologies; per-chain delivery
// order matches send order, mirroring the guarantees the NATS transport
// provides across processes.
type Hub struct {
	mu      sync.Mutex
	chains  map[models.ChainID]*memoryTransport
	streams map[string]*streamState
}

type streamState struct {
	events      [][]byte
	subscribers map[models.ChainID]bool
}

// NewHub creates an empty in-process fabric.
func NewHub() *Hub {
	return &Hub{
		chains:  make(map[models.ChainID]*memoryTransport),
		streams: make(map[string]*streamState),
	}
}

func streamKey(source models.ChainID, stream string) string {
	return string(source) + "/" + stream
}

// Chain registers a chain on the hub and returns its transport endpoint.
func (h *Hub) Chain(self models.ChainID) Transport {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.chains[self]; ok {
		return t
	}
	t := &memoryTransport{
		hub:   h,
		self:  self,
		inbox: make(chan Envelope, 256),
		done:  make(chan struct{}),
	}
	h.chains[self] = t
	return t
}

func (h *Hub) deliver(dest models.ChainID, env Envelope) error {
	h.mu.Lock()
	t, ok := h.chains[dest]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown chain %q", dest)
	}
	select {
	case t.inbox <- env:
		return nil
	case <-t.done:
		return fmt.Errorf("chain %q transport closed", dest)
	}
}

func (h *Hub) stream(source models.ChainID, stream string) *streamState {
	key := streamKey(source, stream)
	st, ok := h.streams[key]
	if !ok {
		st = &streamState{subscribers: make(map[models.ChainID]bool)}
		h.streams[key] = st
	}
	return st
}

// Drain synchronously delivers queued envelopes to the given handlers until
// every inbox is empty, including envelopes enqueued while draining. It
// makes multi-chain topologies deterministic when nothing calls Start.
func (h *Hub) Drain(ctx context.Context, handlers map[models.ChainID]Handler) {
	for {
		progressed := false
		h.mu.Lock()
		chains := make([]*memoryTransport, 0, len(h.chains))
		for _, t := range h.chains {
			chains = append(chains, t)
		}
		h.mu.Unlock()

		for _, t := range chains {
			handler, ok := handlers[t.self]
			if !ok {
				continue
			}
			select {
			case env := <-t.inbox:
				progressed = true
				if err := handler(ctx, env); err != nil {
					log.WithError(err).WithFields(log.Fields{
						"chain": t.self,
						"kind":  env.Kind,
						"from":  env.From,
					}).Error("Inbox handler rejected envelope")
				}
			default:
			}
		}
		if !progressed {
			return
		}
	}
}

type memoryTransport struct {
	hub     *Hub
	self    models.ChainID
	inbox   chan Envelope
	done    chan struct{}
	closing sync.Once
}

func (t *memoryTransport) Send(ctx context.Context, dest models.ChainID, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return t.hub.deliver(dest, Envelope{
		ID:        uuid.New().String(),
		Kind:      KindMessage,
		From:      t.self,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func (t *memoryTransport) Emit(ctx context.Context, stream string, event models.GameStateEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	t.hub.mu.Lock()
	st := t.hub.stream(t.self, stream)
	st.events = append(st.events, payload)
	index := uint64(len(st.events) - 1)
	subscribers := make([]models.ChainID, 0, len(st.subscribers))
	for sub := range st.subscribers {
		subscribers = append(subscribers, sub)
	}
	t.hub.mu.Unlock()

	for _, sub := range subscribers {
		env := Envelope{
			ID:        uuid.New().String(),
			Kind:      KindEvent,
			From:      t.self,
			Stream:    stream,
			Index:     index,
			Timestamp: time.Now(),
			Payload:   payload,
		}
		if err := t.hub.deliver(sub, env); err != nil {
			log.WithError(err).WithField("subscriber", sub).Warn("Dropping event for unreachable subscriber")
		}
	}
	return nil
}

func (t *memoryTransport) Subscribe(ctx context.Context, source models.ChainID, stream string, subscriber models.ChainID) error {
	t.hub.mu.Lock()
	defer t.hub.mu.Unlock()
	t.hub.stream(source, stream).subscribers[subscriber] = true
	return nil
}

func (t *memoryTransport) Unsubscribe(ctx context.Context, source models.ChainID, stream string, subscriber models.ChainID) error {
	t.hub.mu.Lock()
	defer t.hub.mu.Unlock()
	delete(t.hub.stream(source, stream).subscribers, subscriber)
	return nil
}

func (t *memoryTransport) ReadEvent(ctx context.Context, source models.ChainID, stream string, index uint64) (*models.GameStateEvent, error) {
	t.hub.mu.Lock()
	st := t.hub.stream(source, stream)
	if index >= uint64(len(st.events)) {
		t.hub.mu.Unlock()
		return nil, fmt.Errorf("stream %s/%s has no event %d", source, stream, index)
	}
	payload := st.events[index]
	t.hub.mu.Unlock()

	var event models.GameStateEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

func (t *memoryTransport) Start(ctx context.Context, handler Handler) error {
	go func() {
		for {
			select {
			case env := <-t.inbox:
				if err := handler(ctx, env); err != nil {
					log.WithError(err).WithFields(log.Fields{
						"chain": t.self,
						"kind":  env.Kind,
						"from":  env.From,
					}).Error("Inbox handler rejected envelope")
				}
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (t *memoryTransport) Close() error {
	t.closing.Do(func() { close(t.done) })
	return nil
}
