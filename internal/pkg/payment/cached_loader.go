package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// SnapshotKey is the redis hash holding the last loaded ledger
const SnapshotKey = "payment:ledger:snapshot"

// CachedLoader keeps the last loaded ledger in a redis hash so single identity
// lookups do not need to read the whole source again
type CachedLoader struct {
	inner  Loader
	client *redis.Client
	ttl    time.Duration
}

// NewCachedLoader wraps inner with a redis snapshot kept for ttl
func NewCachedLoader(inner Loader, client *redis.Client, ttl time.Duration) *CachedLoader {
	return &CachedLoader{inner: inner, client: client, ttl: ttl}
}

// LoadAll loads from the wrapped loader and refreshes the snapshot
func (c *CachedLoader) LoadAll(ctx context.Context) (*Ledger, error) {
	ledger, err := c.inner.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, ledger); err != nil {
		log.Warnf("[PaymentLedger] Unable to store ledger snapshot: %v", err)
	}
	return ledger, nil
}

// LoadSingleByIdentity answers from the snapshot when present, otherwise reloads the source
func (c *CachedLoader) LoadSingleByIdentity(ctx context.Context, id Identity) (*Record, error) {
	if !id.IsValid() {
		return nil, nil
	}

	record, found, err := c.lookup(ctx, id)
	if err != nil {
		log.Warnf("[PaymentLedger] Snapshot lookup failed for %s: %v", id, err)
	} else if found {
		return record, nil
	}

	ledger, err := c.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if r, ok := ledger.Get(id); ok {
		return &r, nil
	}
	return nil, nil
}

// CheckForErrors always reads the source, errors are not part of the snapshot
func (c *CachedLoader) CheckForErrors(ctx context.Context) ([]ComplianceError, error) {
	return c.inner.CheckForErrors(ctx)
}

// Invalidate drops the snapshot
func (c *CachedLoader) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, SnapshotKey).Err()
}

func (c *CachedLoader) store(ctx context.Context, ledger *Ledger) error {
	values := make(map[string]any, ledger.Count()+1)
	// marker field so an empty ledger still counts as a snapshot
	values["_loaded_at"] = time.Now().UTC().Format(time.RFC3339)
	for _, r := range ledger.Records() {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		values[r.Identity.Key()] = data
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, SnapshotKey)
	pipe.HSet(ctx, SnapshotKey, values)
	if c.ttl > 0 {
		pipe.Expire(ctx, SnapshotKey, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// lookup reports found=true when the snapshot exists, record is nil when the identity is not part of it
func (c *CachedLoader) lookup(ctx context.Context, id Identity) (*Record, bool, error) {
	data, err := c.client.HGet(ctx, SnapshotKey, id.Key()).Bytes()
	if err == nil {
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, false, err
		}
		return &r, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, false, err
	}

	exists, err := c.client.Exists(ctx, SnapshotKey).Result()
	if err != nil {
		return nil, false, err
	}
	return nil, exists == 1, nil
}
