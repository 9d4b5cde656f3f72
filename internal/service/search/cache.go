package search

import (
	"context"
	"log/slog"
	"sync"

	"ridesg/internal/domain"
)

// CacheStore is the persistence surface the cache client needs. The
// postgres landmark repository implements it.
type CacheStore interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	Save(ctx context.Context, res *domain.SearchResult) (string, error)
}

// CacheClient reads previously stored landmarks. Everything it returns is
// re-tagged source "database", whatever the row was stored as - downstream
// dedup reads that tag as "already cached".
type CacheClient struct {
	store    CacheStore // nil when no database is configured
	logger   *slog.Logger
	warnOnce sync.Once
}

// NewCacheClient creates a cache client. store may be nil when the
// deployment has no database; searches then degrade to empty result sets
// and saves become no-ops.
func NewCacheClient(store CacheStore, logger *slog.Logger) *CacheClient {
	return &CacheClient{
		store:  store,
		logger: logger,
	}
}

// IsConfigured reports whether a backing store is present.
func (c *CacheClient) IsConfigured() bool {
	return c.store != nil
}

// Search returns cached results matching the query. An unconfigured cache
// yields an empty set, never an error.
func (c *CacheClient) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if !c.IsConfigured() {
		c.warnUnconfigured()
		return nil, nil
	}

	results, err := c.store.Search(ctx, query, maxExtractedEntries)
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Source = domain.SourceDatabase
	}

	return results, nil
}

// Save persists a result into the cache. A no-op when unconfigured.
func (c *CacheClient) Save(ctx context.Context, res *domain.SearchResult) error {
	if !c.IsConfigured() {
		c.warnUnconfigured()
		return nil
	}

	_, err := c.store.Save(ctx, res)
	return err
}

func (c *CacheClient) warnUnconfigured() {
	c.warnOnce.Do(func() {
		c.logger.Warn("landmark cache not configured, searches will skip the cache branch")
	})
}
