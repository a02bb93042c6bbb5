package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigrent/internal/app/middleware"
)

type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, exp time.Duration) *goredis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = exp
	return goredis.NewStatusResult("OK", nil)
}

func TestSaveThenGet(t *testing.T) {
	kv := newFakeKV()
	store := NewIdempotencyStore(kv, time.Hour)
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(context.Background(), middleware.IdempotencyRecord{
		Key:        "cmd-1",
		Error:      "booking: dates overlap an approved booking",
		ErrorKind:  "conflict",
		Reason:     "conflict",
		OccurredAt: at,
	}))

	rec, ok, err := store.Get(context.Background(), "cmd-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cmd-1", rec.Key)
	assert.Equal(t, "conflict", rec.ErrorKind)
	assert.Equal(t, "conflict", rec.Reason)
	assert.True(t, at.Equal(rec.OccurredAt))
	assert.Equal(t, time.Hour, kv.ttls["rigrent:idem:cmd-1"])
}

func TestGetMissingKey(t *testing.T) {
	store := NewIdempotencyStore(newFakeKV(), time.Hour)

	_, ok, err := store.Get(context.Background(), "nope")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetPropagatesBackendErrors(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("i/o timeout")
	store := NewIdempotencyStore(kv, time.Hour)

	_, _, err := store.Get(context.Background(), "cmd-1")

	assert.ErrorContains(t, err, "i/o timeout")
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-url://")

	assert.Error(t, err)
}
