package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	appoutbox "rigrent/internal/app/outbox"
	infraoutbox "rigrent/internal/infra/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// OutboxStore writes records inside the unit's transaction and serves the
// relay side from the pool.
type OutboxStore struct {
	q queryer
}

func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{q: db}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(nonNilHeaders(record.Headers))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.q.ExecContext(ctx, `INSERT INTO outbox_events
		(id, name, payload, occurred_at, aggregate, headers, state, attempts, next_attempt_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)`,
		record.ID, record.Name, record.Payload, record.OccurredAt.UTC(), record.Aggregate, headers, stateNew, now)
	return err
}

// Claim picks the oldest due record. SKIP LOCKED lets several relays run
// side by side; a claim older than ClaimTimeout is handed out again.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	now := time.Now().UTC()
	row := s.q.QueryRowContext(ctx, `UPDATE outbox_events SET state = $1, claimed_by = $2, claimed_at = $3
		WHERE id = (
			SELECT id FROM outbox_events
			WHERE (state IN ($4, $5) AND next_attempt_at <= $3)
			   OR (state = $1 AND claimed_at <= $6)
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, name, payload, occurred_at, aggregate, headers, attempts`,
		stateClaimed, workerID, now, stateNew, stateFailed, now.Add(-infraoutbox.ClaimTimeout))
	var (
		msg     infraoutbox.Message
		headers []byte
	)
	err := row.Scan(&msg.ID, &msg.Name, &msg.Payload, &msg.OccurredAt, &msg.Aggregate, &headers, &msg.Attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &msg.Headers); err != nil {
			return nil, err
		}
	}
	msg.OccurredAt = msg.OccurredAt.UTC()
	return &msg, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE outbox_events SET state = $2, sent_at = $3 WHERE id = $1`,
		id, stateSent, time.Now().UTC())
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE outbox_events
		SET state = $2, next_attempt_at = $3, last_error = $4, attempts = attempts + 1
		WHERE id = $1`,
		id, stateFailed, next.UTC(), errMsg)
	return err
}

func nonNilHeaders(h map[string]string) map[string]string {
	if h == nil {
		return map[string]string{}
	}
	return h
}

var (
	_ appoutbox.Outbox  = (*OutboxStore)(nil)
	_ infraoutbox.Relay = (*OutboxStore)(nil)
)
