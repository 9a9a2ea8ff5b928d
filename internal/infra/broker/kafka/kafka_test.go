package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerPublish(t *testing.T) {
	sync := mocks.NewSyncProducer(t, nil)
	sync.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"evt-1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	sync.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFromSync(sync)
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, "pricing.events.v1", "listing-1", []byte(`{"id":"evt-1"}`), map[string]string{"event-name": "pricing.rules.replaced"}))
	assert.ErrorIs(t, p.Publish(ctx, "pricing.events.v1", "listing-1", []byte(`{}`), nil), sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestProducerHonoursCancelledContext(t *testing.T) {
	sync := mocks.NewSyncProducer(t, nil)
	p := NewProducerFromSync(sync)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

type recordingInvalidator struct {
	brokers []string
	err     error
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, brokerID string) error {
	r.brokers = append(r.brokers, brokerID)
	return r.err
}

func TestSettingsHandler(t *testing.T) {
	inv := &recordingInvalidator{}
	h := &SettingsHandler{Invalidator: inv}
	ctx := context.Background()

	msg := &sarama.ConsumerMessage{Value: []byte(`{"type":"settings.broker.updated.v1","data":{"broker_id":"broker-7"}}`)}
	require.NoError(t, h.Handle(ctx, msg))
	assert.Equal(t, []string{"broker-7"}, inv.brokers)

	byHeader := &sarama.ConsumerMessage{
		Value:   []byte(`{"data":{"broker_id":"broker-8"}}`),
		Headers: []*sarama.RecordHeader{{Key: []byte("event-name"), Value: []byte("settings.broker.updated")}},
	}
	require.NoError(t, h.Handle(ctx, byHeader))
	assert.Equal(t, []string{"broker-7", "broker-8"}, inv.brokers)

	require.NoError(t, h.Handle(ctx, &sarama.ConsumerMessage{Value: []byte(`{"type":"pricing.rules.replaced.v1","data":{}}`)}))
	require.NoError(t, h.Handle(ctx, &sarama.ConsumerMessage{Value: []byte(`not json`)}))
	require.NoError(t, h.Handle(ctx, &sarama.ConsumerMessage{Value: []byte(`{"type":"settings.broker.updated.v1","data":{}}`)}))
	assert.Len(t, inv.brokers, 2)

	inv.err = errors.New("redis down")
	assert.Error(t, h.Handle(ctx, msg))
}
