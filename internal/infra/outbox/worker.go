package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is a claimed outbox record.
type Message struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
	Attempts   int
}

// Relay is the worker side of an outbox table. Claim returns nil when nothing
// is due.
type Relay interface {
	Claim(ctx context.Context, workerID string) (*Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

const maxFlushBatch = 100

type Worker struct {
	Relay       Relay
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger

	idOnce sync.Once
	id     string
}

// Run polls the relay until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if w.Relay == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.drain(ctx, maxFlushBatch); err != nil {
				return err
			}
		}
	}
}

// Flush publishes what is due right now. It lets a command push its events
// without waiting for the next tick.
func (w *Worker) Flush(ctx context.Context) error {
	if w.Relay == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	_, err := w.drain(ctx, maxFlushBatch)
	return err
}

func (w *Worker) drain(ctx context.Context, limit int) (int, error) {
	sent := 0
	for i := 0; i < limit; i++ {
		claimed, err := w.processOnce(ctx)
		if err != nil || !claimed {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	msg, err := w.Relay.Claim(ctx, w.workerID())
	if err != nil || msg == nil {
		return false, err
	}
	topic := w.topicFor(msg.Name)
	payload, headers, err := w.formatPayload(msg)
	if err != nil {
		w.fail(ctx, msg, err)
		return true, nil
	}
	if err := w.Producer.Publish(ctx, topic, msg.Aggregate, payload, headers); err != nil {
		w.fail(ctx, msg, err)
		return true, nil
	}
	return true, w.Relay.MarkSent(ctx, msg.ID)
}

func (w *Worker) fail(ctx context.Context, msg *Message, cause error) {
	if w.Logger != nil {
		w.Logger.Warn("outbox publish failed", "event_id", msg.ID, "event", msg.Name, "attempts", msg.Attempts, "err", cause)
	}
	_ = w.Relay.MarkFailed(ctx, msg.ID, w.nextRetry(msg.Attempts), cause.Error())
}

func (w *Worker) formatPayload(msg *Message) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              msg.ID,
		"type":            msg.Name + ".v1",
		"source":          w.source(),
		"time":            msg.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := msg.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps booking.approved to <prefix>booking.events.v1.
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	w.idOnce.Do(func() {
		w.id = w.ID
		if w.id == "" {
			w.id = uuid.NewString()
		}
	})
	return w.id
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://rigrent"
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
