package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"chainjack/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	chainSubjectPrefix = "blackjack.chain."
	eventSubjectPrefix = "blackjack.events."

	chainStreamName = "BLACKJACK_CHAINS"
	eventStreamName = "BLACKJACK_EVENTS"
)

// NATSTransport implements Transport over NATS with JetStream: chain inboxes
// are subjects under blackjack.chain.*, event streams under
// blackjack.events.<chain>.<stream>. All deliveries are funneled through one
// goroutine so the chain handles strictly one envelope at a time.
type NATSTransport struct {
	servers string
	self    models.ChainID

	nc *nats.Conn
	js nats.JetStreamContext

	mu            sync.Mutex
	eventSubs     map[string]*nats.Subscription
	inboxSub      *nats.Subscription
	deliveries    chan Envelope
	done          chan struct{}
	closing       sync.Once
	reconnectWait time.Duration
	maxReconnects int
}

// NewNATSTransport creates a transport endpoint for the given chain.
func NewNATSTransport(servers string, self models.ChainID) *NATSTransport {
	return &NATSTransport{
		servers:       servers,
		self:          self,
		eventSubs:     make(map[string]*nats.Subscription),
		deliveries:    make(chan Envelope, 256),
		done:          make(chan struct{}),
		reconnectWait: 2 * time.Second,
		maxReconnects: 10,
	}
}

// Connect establishes the NATS connection and ensures the JetStream streams
// exist.
func (t *NATSTransport) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(fmt.Sprintf("chainjack-%s", t.self)),
		nats.MaxReconnects(t.maxReconnects),
		nats.ReconnectWait(t.reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.WithFields(log.Fields{
				"subject": sub.Subject,
				"error":   err,
			}).Error("NATS async error")
		}),
	}

	nc, err := nats.Connect(t.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	t.nc = nc
	t.js = js

	if err := t.ensureStream(chainStreamName, chainSubjectPrefix+">"); err != nil {
		nc.Close()
		return err
	}
	if err := t.ensureStream(eventStreamName, eventSubjectPrefix+">"); err != nil {
		nc.Close()
		return err
	}

	log.WithFields(log.Fields{
		"servers": t.servers,
		"chain":   t.self,
	}).Info("Connected to NATS with JetStream")
	return nil
}

func (t *NATSTransport) ensureStream(name, subject string) error {
	_, err := t.js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("failed to look up stream %s: %w", name, err)
	}
	_, err = t.js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{subject},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", name, err)
	}
	return nil
}

func inboxSubject(chain models.ChainID) string {
	return chainSubjectPrefix + string(chain)
}

func eventSubject(source models.ChainID, stream string) string {
	return eventSubjectPrefix + string(source) + "." + stream
}

func (t *NATSTransport) publish(ctx context.Context, subject string, env Envelope) (uint64, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	ack, err := t.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return ack.Sequence, nil
}

func (t *NATSTransport) Send(ctx context.Context, dest models.ChainID, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	_, err = t.publish(ctx, inboxSubject(dest), Envelope{
		ID:        uuid.New().String(),
		Kind:      KindMessage,
		From:      t.self,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	return err
}

func (t *NATSTransport) Emit(ctx context.Context, stream string, event models.GameStateEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = t.publish(ctx, eventSubject(t.self, stream), Envelope{
		ID:        uuid.New().String(),
		Kind:      KindEvent,
		From:      t.self,
		Stream:    stream,
		Timestamp: time.Now(),
		Payload:   payload,
	})
	return err
}

// Subscribe attaches subscriber to the source chain's stream. Attachment
// happens at the subscriber's end: when called on behalf of another chain, a
// control envelope is routed to that chain's inbox and its transport
// attaches itself.
func (t *NATSTransport) Subscribe(ctx context.Context, source models.ChainID, stream string, subscriber models.ChainID) error {
	if subscriber != t.self {
		_, err := t.publish(ctx, inboxSubject(subscriber), Envelope{
			ID:        uuid.New().String(),
			Kind:      KindSubscribe,
			From:      source,
			Stream:    stream,
			Timestamp: time.Now(),
		})
		return err
	}
	return t.attach(source, stream)
}

func (t *NATSTransport) Unsubscribe(ctx context.Context, source models.ChainID, stream string, subscriber models.ChainID) error {
	if subscriber != t.self {
		_, err := t.publish(ctx, inboxSubject(subscriber), Envelope{
			ID:        uuid.New().String(),
			Kind:      KindUnsubscribe,
			From:      source,
			Stream:    stream,
			Timestamp: time.Now(),
		})
		return err
	}
	return t.detach(source, stream)
}

func (t *NATSTransport) attach(source models.ChainID, stream string) error {
	subject := eventSubject(source, stream)

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.eventSubs[subject]; ok {
		return nil // idempotent
	}

	consumer := fmt.Sprintf("chainjack-%s-%s", t.self, strings.ReplaceAll(subject, ".", "_"))
	sub, err := t.js.Subscribe(subject, func(msg *nats.Msg) {
		t.enqueue(msg)
	}, nats.Durable(consumer), nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	t.eventSubs[subject] = sub

	log.WithFields(log.Fields{
		"chain":   t.self,
		"subject": subject,
	}).Info("Attached to event stream")
	return nil
}

func (t *NATSTransport) detach(source models.ChainID, stream string) error {
	subject := eventSubject(source, stream)

	t.mu.Lock()
	defer t.mu.Unlock()
	sub, ok := t.eventSubs[subject]
	if !ok {
		return nil
	}
	delete(t.eventSubs, subject)
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
	}
	return nil
}

func (t *NATSTransport) enqueue(msg *nats.Msg) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.WithError(err).WithField("subject", msg.Subject).Error("Dropping undecodable envelope")
		_ = msg.Ack()
		return
	}
	if meta, err := msg.Metadata(); err == nil {
		env.Index = meta.Sequence.Stream
	}
	select {
	case t.deliveries <- env:
		_ = msg.Ack()
	case <-t.done:
		_ = msg.Nak()
	}
}

func (t *NATSTransport) ReadEvent(ctx context.Context, source models.ChainID, stream string, index uint64) (*models.GameStateEvent, error) {
	raw, err := t.js.GetMsg(eventStreamName, index)
	if err != nil {
		return nil, fmt.Errorf("failed to read event %d: %w", index, err)
	}
	if raw.Subject != eventSubject(source, stream) {
		return nil, fmt.Errorf("event %d belongs to %s, not %s/%s", index, raw.Subject, source, stream)
	}
	var env Envelope
	if err := json.Unmarshal(raw.Data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	event, err := DecodeEvent(env)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// Start subscribes to this chain's inbox and begins serial delivery.
// Control envelopes are consumed by the transport itself; everything else
// reaches the handler.
func (t *NATSTransport) Start(ctx context.Context, handler Handler) error {
	consumer := fmt.Sprintf("chainjack-%s-inbox", t.self)
	sub, err := t.js.Subscribe(inboxSubject(t.self), func(msg *nats.Msg) {
		t.enqueue(msg)
	}, nats.Durable(consumer), nats.ManualAck())
	if err != nil {
		return fmt.Errorf("failed to subscribe to inbox: %w", err)
	}
	t.inboxSub = sub

	go func() {
		for {
			select {
			case env := <-t.deliveries:
				t.dispatch(ctx, env, handler)
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (t *NATSTransport) dispatch(ctx context.Context, env Envelope, handler Handler) {
	switch env.Kind {
	case KindSubscribe:
		if err := t.attach(env.From, env.Stream); err != nil {
			log.WithError(err).Error("Failed to attach to stream")
		}
	case KindUnsubscribe:
		if err := t.detach(env.From, env.Stream); err != nil {
			log.WithError(err).Error("Failed to detach from stream")
		}
	default:
		if err := handler(ctx, env); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"chain": t.self,
				"kind":  env.Kind,
				"from":  env.From,
			}).Error("Inbox handler rejected envelope")
		}
	}
}

// Close stops delivery and drains the connection.
func (t *NATSTransport) Close() error {
	t.closing.Do(func() { close(t.done) })

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inboxSub != nil {
		_ = t.inboxSub.Unsubscribe()
	}
	for _, sub := range t.eventSubs {
		_ = sub.Unsubscribe()
	}
	t.eventSubs = make(map[string]*nats.Subscription)

	if t.nc != nil {
		if err := t.nc.Drain(); err != nil {
			return fmt.Errorf("failed to drain NATS connection: %w", err)
		}
	}
	return nil
}
