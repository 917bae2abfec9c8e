package jackpot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// jsonCache is the subset of db/redis.Client that SnapshotCache depends on,
// kept narrow so tests can substitute an in-memory fake.
type jsonCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Snapshot is the cached read-model for GET /api/jackpots/{jackpotId}: a
// denormalized, slightly stale view of a Jackpot row.
type Snapshot struct {
	JackpotID     int64           `json:"jackpot_id"`
	Name          string          `json:"name"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	Cycle         int64           `json:"cycle"`
}

// SnapshotCache is an optional read-through cache in front of the jackpot
// read endpoint. The repository remains the source of truth; a cache miss
// or a disabled cache (nil receiver) simply means the caller falls back to
// reading Postgres directly.
type SnapshotCache struct {
	client jsonCache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewSnapshotCache(client jsonCache, ttl time.Duration, logger zerolog.Logger) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "snapshot_cache").Logger(),
	}
}

func snapshotKey(jackpotID int64) string {
	return fmt.Sprintf("jackpot:snapshot:%d", jackpotID)
}

// Get returns the cached snapshot and true on a hit. A nil receiver, a
// miss, or a Redis error all report false; none of them are surfaced as
// errors since the cache is purely an optimization.
func (c *SnapshotCache) Get(ctx context.Context, jackpotID int64) (Snapshot, bool) {
	if c == nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := c.client.GetJSON(ctx, snapshotKey(jackpotID), &snap); err != nil {
		return Snapshot{}, false
	}
	return snap, true
}

// Set writes a fresh snapshot. Safe to call on a nil receiver.
func (c *SnapshotCache) Set(ctx context.Context, snap Snapshot) {
	if c == nil {
		return
	}
	if err := c.client.SetJSON(ctx, snapshotKey(snap.JackpotID), snap, c.ttl); err != nil {
		c.logger.Warn().Err(err).Int64("jackpot_id", snap.JackpotID).Msg("failed to cache jackpot snapshot")
	}
}
