package payment

import (
	"context"
	"sync"
)

type lookup struct {
	identity Identity
	record   *Record
}

// LedgerCache builds the ledger once and reuses it until invalidated. It also
// memoizes the last single identity lookup, which join checks use to avoid a full load.
type LedgerCache struct {
	loader Loader

	mu         sync.Mutex
	ledger     *Ledger
	lastLookup *lookup
}

// NewLedgerCache creates an empty cache over loader
func NewLedgerCache(loader Loader) *LedgerCache {
	return &LedgerCache{loader: loader}
}

// Ledger returns the cached ledger, loading it on first use. Failed loads are not cached.
func (c *LedgerCache) Ledger(ctx context.Context) (*Ledger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ledger == nil {
		ledger, err := c.loader.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		c.ledger = ledger
	}
	return c.ledger, nil
}

// Single returns the payment of id, nil when absent
func (c *LedgerCache) Single(ctx context.Context, id Identity) (*Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastLookup != nil && c.lastLookup.identity.Key() == id.Key() {
		return c.lastLookup.record, nil
	}

	record, err := c.loader.LoadSingleByIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	c.lastLookup = &lookup{identity: id, record: record}
	return record, nil
}

// CheckForErrors returns the row problems of the current source data
func (c *LedgerCache) CheckForErrors(ctx context.Context) ([]ComplianceError, error) {
	return c.loader.CheckForErrors(ctx)
}

// Invalidate forces the next query to reload
func (c *LedgerCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger = nil
	c.lastLookup = nil
}
