// Package natsutil publishes orchestrator events to NATS JetStream as
// CloudEvents. Publishing is best-effort: the durable audit trail lives in
// the relational store, the stream exists for downstream consumers.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
)

const (
	eventSource       = "netops/orchestrator"
	defaultStream     = "netops-events"
	defaultSubject    = "events.upgrades"
	decisionEventType = "com.netops.upgrade.decision"
	statusEventType   = "com.netops.upgrade.status"
)

// Publisher emits orchestrator events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishDecision(ctx context.Context, data *models.DecisionEventData) error
	PublishStatusChange(ctx context.Context, data *models.StatusEventData) error
	Close()
}

// jsPublisher is the slice of jetstream.JetStream the publisher needs.
type jsPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher publishes CloudEvents to a JetStream stream.
type EventPublisher struct {
	js      jsPublisher
	conn    *nats.Conn
	subject string
	logger  logger.Logger
}

// Connect dials NATS, ensures the stream exists, and returns a publisher.
func Connect(ctx context.Context, cfg *models.EventsConfig, log logger.Logger) (*EventPublisher, error) {
	stream := cfg.Stream
	if stream == "" {
		stream = defaultStream
	}

	subject := cfg.Subject
	if subject == "" {
		subject = defaultSubject
	}

	nc, err := nats.Connect(cfg.URL,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS async error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err = js.Stream(ctx, stream); err != nil {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     stream,
			Subjects: []string{subject + ".>", subject},
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create or get stream %s: %w", stream, err)
		}
	}

	return &EventPublisher{js: js, conn: nc, subject: subject, logger: log}, nil
}

// PublishDecision publishes an upgrade decision event.
func (p *EventPublisher) PublishDecision(ctx context.Context, data *models.DecisionEventData) error {
	return p.publish(ctx, decisionEventType, p.subject+".decision", data, data.Timestamp)
}

// PublishStatusChange publishes an upgrade status transition event.
func (p *EventPublisher) PublishStatusChange(ctx context.Context, data *models.StatusEventData) error {
	return p.publish(ctx, statusEventType, p.subject+".status", data, data.Timestamp)
}

func (p *EventPublisher) publish(ctx context.Context, eventType, subject string, data interface{}, ts time.Time) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", subject).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}

// Close drains the underlying connection.
func (p *EventPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher discards all events. Used when no event stream is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishDecision(context.Context, *models.DecisionEventData) error { return nil }

func (NoopPublisher) PublishStatusChange(context.Context, *models.StatusEventData) error { return nil }

func (NoopPublisher) Close() {}
