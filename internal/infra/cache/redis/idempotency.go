package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rigrent/internal/app/middleware"
)

const keyPrefix = "rigrent:idem:"

// KV is the subset of the redis client the store uses.
type KV interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// IdempotencyStore keeps command outcomes in redis with a TTL so replays
// survive restarts and are shared between instances.
type IdempotencyStore struct {
	kv  KV
	ttl time.Duration
}

func NewIdempotencyStore(kv KV, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{kv: kv, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.kv.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, fmt.Errorf("decode idempotency record %s: %w", key, err)
	}
	return rec.toRecord(key), true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	data, err := json.Marshal(fromRecord(rec))
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyPrefix+rec.Key, data, s.ttl).Err()
}

type record struct {
	Payload    []byte    `json:"payload,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func fromRecord(r middleware.IdempotencyRecord) record {
	return record{Payload: r.Payload, Error: r.Error, ErrorKind: r.ErrorKind, Reason: r.Reason, OccurredAt: r.OccurredAt}
}

func (r record) toRecord(key string) middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:        key,
		Payload:    r.Payload,
		Error:      r.Error,
		ErrorKind:  r.ErrorKind,
		Reason:     r.Reason,
		OccurredAt: r.OccurredAt,
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
