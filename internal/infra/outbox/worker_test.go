package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentme-pricing/internal/app/outbox"
)

type fakeSource struct {
	pending []*EventDocument
	sent    []string
	failed  map[string]time.Time
}

func (s *fakeSource) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}
	doc := s.pending[0]
	s.pending = s.pending[1:]
	doc.State = StateClaimed
	doc.ClaimedBy = workerID
	return doc, nil
}

func (s *fakeSource) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeSource) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	if s.failed == nil {
		s.failed = map[string]time.Time{}
	}
	s.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	out  []published
	fail error
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func pendingDoc(t *testing.T, id, name string) *EventDocument {
	t.Helper()
	doc := NewDocument(appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"ListingID":"listing-1","Added":2}`),
		OccurredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Aggregate:  "listing-1",
		Headers:    map[string]string{"event-name": name, "traceparent": "00-abc-def-01"},
	}, time.Now())
	return &doc
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	src := &fakeSource{pending: []*EventDocument{
		pendingDoc(t, "evt-1", "pricing.periods.reconciled"),
		pendingDoc(t, "evt-2", "pricing.rules.replaced"),
	}}
	prod := &fakeProducer{}
	var observed []string
	w := &Worker{
		Source:      src,
		Producer:    prod,
		TopicPrefix: "stage.",
		Observe:     func(topic string, err error) { observed = append(observed, topic) },
	}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"evt-1", "evt-2"}, src.sent)
	assert.Equal(t, []string{"stage.pricing.events.v1", "stage.pricing.events.v1"}, observed)

	require.Len(t, prod.out, 2)
	msg := prod.out[0]
	assert.Equal(t, "listing-1", msg.key)
	assert.Equal(t, "application/cloudevents+json", msg.headers["content-type"])
	assert.Equal(t, "pricing.periods.reconciled", msg.headers["event-name"])

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &envelope))
	assert.Equal(t, "1.0", envelope["specversion"])
	assert.Equal(t, "evt-1", envelope["id"])
	assert.Equal(t, "pricing.periods.reconciled.v1", envelope["type"])
	assert.Equal(t, "app://rentme-pricing", envelope["source"])
	assert.Equal(t, "00-abc-def-01", envelope["traceparent"])
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "listing-1", data["ListingID"])
}

func TestWorkerBacksOffOnFailure(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := pendingDoc(t, "evt-1", "pricing.periods.deleted")
	doc.Attempts = 1
	bad := pendingDoc(t, "evt-2", "pricing.periods.deleted")
	bad.Payload = []byte("not json")
	src := &fakeSource{pending: []*EventDocument{doc, bad}}
	w := &Worker{
		Source:   src,
		Producer: &fakeProducer{fail: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, time.Minute},
		Now:      func() time.Time { return now },
	}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, src.sent)
	assert.Equal(t, now.Add(time.Minute), src.failed["evt-1"])
	assert.Equal(t, now.Add(time.Second), src.failed["evt-2"])
}

func TestWorkerRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "pricing.events.v1", w.topicFor("pricing.rules.replaced"))
	assert.Equal(t, "settings.events.v1", w.topicFor("settings"))
}
