package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeRelay struct {
	mu     sync.Mutex
	queue  []*Message
	sent   []string
	failed map[string]string
	next   map[string]time.Time
}

func (r *fakeRelay) Claim(ctx context.Context, workerID string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, nil
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeRelay) MarkSent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, id)
	return nil
}

func (r *fakeRelay) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed == nil {
		r.failed = map[string]string{}
		r.next = map[string]time.Time{}
	}
	r.failed[id] = errMsg
	r.next[id] = next
	return nil
}

type producerMock struct {
	mock.Mock
}

func (p *producerMock) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	args := p.Called(ctx, topic, key, payload, headers)
	return args.Error(0)
}

func message(id, name string) *Message {
	return &Message{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"booking_id":"b-1"}`),
		OccurredAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Aggregate:  "b-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestFlushPublishesCloudEvents(t *testing.T) {
	relay := &fakeRelay{queue: []*Message{message("evt-1", "booking.approved"), message("evt-2", "listing.published")}}
	producer := &producerMock{}
	producer.On("Publish", mock.Anything, "rr.booking.events.v1", "b-1", mock.Anything, mock.Anything).Return(nil).Once()
	producer.On("Publish", mock.Anything, "rr.listing.events.v1", "b-1", mock.Anything, mock.Anything).Return(nil).Once()
	w := &Worker{Relay: relay, Producer: producer, TopicPrefix: "rr."}

	require.NoError(t, w.Flush(context.Background()))

	producer.AssertExpectations(t)
	assert.Equal(t, []string{"evt-1", "evt-2"}, relay.sent)

	call := producer.Calls[0]
	var evt map[string]any
	require.NoError(t, json.Unmarshal(call.Arguments.Get(3).([]byte), &evt))
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "booking.approved.v1", evt["type"])
	assert.Equal(t, "app://rigrent", evt["source"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	assert.Equal(t, map[string]any{"booking_id": "b-1"}, evt["data"])
	headers := call.Arguments.Get(4).(map[string]string)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
}

func TestPublishFailureSchedulesRetryWithBackoff(t *testing.T) {
	msg := message("evt-1", "booking.requested")
	msg.Attempts = 1
	relay := &fakeRelay{queue: []*Message{msg}}
	producer := &producerMock{}
	producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	w := &Worker{Relay: relay, Producer: producer, Backoff: []time.Duration{time.Second, time.Hour}}

	before := time.Now()
	require.NoError(t, w.Flush(context.Background()))

	assert.Empty(t, relay.sent)
	assert.Equal(t, "broker down", relay.failed["evt-1"])
	assert.True(t, relay.next["evt-1"].After(before.Add(59*time.Minute)))
}

func TestMalformedPayloadIsMarkedFailed(t *testing.T) {
	msg := message("evt-1", "booking.requested")
	msg.Payload = []byte("not json")
	relay := &fakeRelay{queue: []*Message{msg}}
	producer := &producerMock{}
	w := &Worker{Relay: relay, Producer: producer}

	require.NoError(t, w.Flush(context.Background()))

	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Contains(t, relay.failed, "evt-1")
}

func TestWorkerRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Flush(context.Background()), ErrWorkerNotConfigured)
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}

func TestRunStopsWithContext(t *testing.T) {
	relay := &fakeRelay{queue: []*Message{message("evt-1", "booking.requested")}}
	producer := &producerMock{}
	producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	w := &Worker{Relay: relay, Producer: producer, Interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		relay.mu.Lock()
		defer relay.mu.Unlock()
		return len(relay.sent) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
