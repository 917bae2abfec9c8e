package jackpot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("key not found")

type fakeJSONCache struct {
	values map[string]string
}

func newFakeJSONCache() *fakeJSONCache {
	return &fakeJSONCache{values: map[string]string{}}
}

func (f *fakeJSONCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.values[key]
	if !ok {
		return errNotFound
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (f *fakeJSONCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = string(raw)
	return nil
}

func TestSnapshotCache_SetThenGetHits(t *testing.T) {
	client := newFakeJSONCache()
	cache := NewSnapshotCache(client, time.Second, zerolog.Nop())

	snap := Snapshot{JackpotID: 1, Name: "x", CurrentAmount: decimal.NewFromInt(100), InitialAmount: decimal.NewFromInt(50), Cycle: 2}
	cache.Set(context.Background(), snap)

	got, hit := cache.Get(context.Background(), 1)
	require.True(t, hit)
	assert.Equal(t, snap.JackpotID, got.JackpotID)
	assert.True(t, snap.CurrentAmount.Equal(got.CurrentAmount))
}

func TestSnapshotCache_MissReportsFalse(t *testing.T) {
	client := newFakeJSONCache()
	cache := NewSnapshotCache(client, time.Second, zerolog.Nop())

	_, hit := cache.Get(context.Background(), 99)
	assert.False(t, hit)
}

func TestSnapshotCache_NilReceiverIsNoOp(t *testing.T) {
	var cache *SnapshotCache

	cache.Set(context.Background(), Snapshot{JackpotID: 1})
	_, hit := cache.Get(context.Background(), 1)
	assert.False(t, hit)
}
