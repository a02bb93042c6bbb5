package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "rigrent/internal/app/outbox"
	infraoutbox "rigrent/internal/infra/outbox"
)

type outboxState int

const (
	outboxNew outboxState = iota
	outboxClaimed
	outboxSent
	outboxFailed
)

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     outboxState
	attempts  int
	next      time.Time
	claimedAt time.Time
	lastError string
}

// Outbox keeps committed records in insertion order and relays them to the
// worker.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

// Add appends outside any unit of work.
func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.append(record)
	return nil
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range records {
		o.entries = append(o.entries, &outboxEntry{record: rec, state: outboxNew, next: now})
	}
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, e := range o.entries {
		due := (e.state == outboxNew || e.state == outboxFailed) && !e.next.After(now)
		stale := e.state == outboxClaimed && !e.claimedAt.Add(infraoutbox.ClaimTimeout).After(now)
		if !due && !stale {
			continue
		}
		e.state = outboxClaimed
		e.claimedAt = now
		return &infraoutbox.Message{
			ID:         e.record.ID,
			Name:       e.record.Name,
			Payload:    append([]byte(nil), e.record.Payload...),
			OccurredAt: e.record.OccurredAt,
			Aggregate:  e.record.Aggregate,
			Headers:    e.record.Headers,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = outboxSent
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e := o.find(id); e != nil {
		e.state = outboxFailed
		e.attempts++
		e.next = next
		e.lastError = errMsg
	}
	return nil
}

// Pending lists records that were not sent yet.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0)
	for _, e := range o.entries {
		if e.state != outboxSent {
			out = append(out, e.record)
		}
	}
	return out
}

func (o *Outbox) find(id string) *outboxEntry {
	for _, e := range o.entries {
		if e.record.ID == id {
			return e
		}
	}
	return nil
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Relay = (*Outbox)(nil)
)
