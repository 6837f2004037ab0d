package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	relayStreamName    = "lineswipe_events"
	relaySubjectPrefix = "lineswipe"
	sourceService      = "lineswipe"
)

// relayedEventTypes are the event types mirrored to NATS
var relayedEventTypes = []EventType{
	EventTypeSwipeRecorded,
	EventTypeSwipeRemoved,
	EventTypeAggregateUpdated,
	EventTypeTierChanged,
	EventTypeSnapshotRunCompleted,
}

// eventEnvelope wraps a domain event for transport
type eventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSRelay mirrors local bus events onto NATS JetStream so downstream
// consumers (notifications, analytics) see the same stream the process
// does. The relay is optional: without a NATS URL the engine runs fully
// standalone on the in-process bus.
type NATSRelay struct {
	servers string
	nc      *nats.Conn
	js      nats.JetStreamContext
}

// NewNATSRelay creates a new relay for the given NATS servers
func NewNATSRelay(servers string) *NATSRelay {
	return &NATSRelay{servers: servers}
}

// Connect establishes the NATS connection and makes sure the event stream
// exists
func (r *NATSRelay) Connect(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name(sourceService),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
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
	}

	nc, err := nats.Connect(r.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	r.nc = nc
	r.js = js

	if err := r.ensureStream(); err != nil {
		nc.Close()
		return err
	}

	log.WithField("servers", r.servers).Info("Connected to NATS with JetStream")
	return nil
}

// Attach subscribes the relay to every relayed event type on the bus
func (r *NATSRelay) Attach(bus *Bus) {
	for _, eventType := range relayedEventTypes {
		bus.Subscribe(eventType, r.relay)
	}
}

// Close shuts down the NATS connection
func (r *NATSRelay) Close() {
	if r.nc != nil {
		r.nc.Close()
		log.Info("NATS connection closed")
	}
}

// relay publishes a single event to its subject. Failures are logged, not
// propagated: the local bus already delivered the event in-process.
func (r *NATSRelay) relay(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to marshal event payload")
		return
	}

	envelope := eventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to marshal event envelope")
		return
	}

	subject := fmt.Sprintf("%s.%s", relaySubjectPrefix, event.Type())
	if _, err := r.js.Publish(subject, data); err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"eventId": envelope.EventID,
			"error":   err,
		}).Error("Failed to publish event to NATS")
		return
	}

	log.WithFields(log.Fields{
		"subject": subject,
		"eventId": envelope.EventID,
	}).Debug("Published event to NATS")
}

// ensureStream creates the JetStream stream when it does not exist yet
func (r *NATSRelay) ensureStream() error {
	_, err := r.js.StreamInfo(relayStreamName)
	if err == nil {
		log.WithField("stream", relayStreamName).Info("JetStream stream already exists")
		return nil
	}

	cfg := &nats.StreamConfig{
		Name:        relayStreamName,
		Subjects:    []string{relaySubjectPrefix + ".*"},
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     1000000,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Description: "Swipe engine domain events",
	}

	if _, err := r.js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", relayStreamName, err)
	}

	log.WithField("stream", relayStreamName).Info("Created JetStream stream")
	return nil
}
