package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
)

type fakeJS struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeJS) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, payload)

	return &jetstream.PubAck{Stream: "netops-events", Sequence: uint64(len(f.payloads))}, nil
}

func newFakePublisher(js *fakeJS) *EventPublisher {
	return &EventPublisher{js: js, subject: defaultSubject, logger: logger.NewTestLogger()}
}

func TestPublishDecision_Envelope(t *testing.T) {
	js := &fakeJS{}
	p := newFakePublisher(js)

	ts := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	err := p.PublishDecision(context.Background(), &models.DecisionEventData{
		DeviceID:   "R1",
		UpgradeID:  "u-1",
		Decision:   "approve",
		Reason:     "all conditions met",
		Confidence: 1,
		DecidedBy:  models.DecidedByEvaluator,
		Timestamp:  ts,
	})
	require.NoError(t, err)

	require.Len(t, js.payloads, 1)
	assert.Equal(t, "events.upgrades.decision", js.subjects[0])

	var event models.CloudEvent
	require.NoError(t, json.Unmarshal(js.payloads[0], &event))

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, eventSource, event.Source)
	assert.Equal(t, decisionEventType, event.Type)
	assert.NotEmpty(t, event.ID)
	require.NotNil(t, event.Time)
	assert.True(t, event.Time.Equal(ts))
}

func TestPublishStatusChange_Subject(t *testing.T) {
	js := &fakeJS{}
	p := newFakePublisher(js)

	err := p.PublishStatusChange(context.Background(), &models.StatusEventData{
		DeviceID:   "R1",
		UpgradeID:  "u-1",
		FromStatus: models.StatusPending,
		ToStatus:   models.StatusPrecheck,
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, js.subjects, 1)
	assert.Equal(t, "events.upgrades.status", js.subjects[0])
}

func TestPublish_ErrorPropagates(t *testing.T) {
	js := &fakeJS{err: errors.New("stream gone")}
	p := newFakePublisher(js)

	err := p.PublishDecision(context.Background(), &models.DecisionEventData{DeviceID: "R1", Timestamp: time.Now()})

	assert.ErrorContains(t, err, "failed to publish event")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}

	assert.NoError(t, p.PublishDecision(context.Background(), &models.DecisionEventData{}))
	assert.NoError(t, p.PublishStatusChange(context.Background(), &models.StatusEventData{}))
	p.Close()
}
