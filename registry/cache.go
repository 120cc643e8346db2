// Package registry - stale-while-revalidate packument cache.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/ortelius/deptree-backend/model"
	"github.com/ortelius/deptree-backend/util"
)

var logger = util.InitLogger()

// Fetcher is the upstream the cache fills from. *Client satisfies it;
// tests inject a deterministic fake.
type Fetcher interface {
	FetchPackument(ctx context.Context, name string) (*model.Packument, error)
}

// PackumentCache wraps a Fetcher with a TTL cache over a swappable
// Store. Within the stale window a stale entry is served immediately
// while one background refresh runs, bounding tail latency without
// serving indefinitely stale data. Duplicate refresh suppression is
// best effort: a second requester for the same key may observe the
// stale value rather than trigger another upstream fetch.
type PackumentCache struct {
	fetcher     Fetcher
	store       Store
	ttl         time.Duration
	staleWindow time.Duration
	now         func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
}

// NewPackumentCache builds a cache with the given freshness TTL and
// stale-while-revalidate window.
func NewPackumentCache(fetcher Fetcher, store Store, ttl, staleWindow time.Duration) *PackumentCache {
	return &PackumentCache{
		fetcher:     fetcher,
		store:       store,
		ttl:         ttl,
		staleWindow: staleWindow,
		now:         time.Now,
		inflight:    make(map[string]bool),
	}
}

// Get returns the packument for name, from cache when fresh enough,
// otherwise from the registry. Store failures degrade to a direct
// fetch; they never fail a request on their own.
func (c *PackumentCache) Get(ctx context.Context, name string) (*model.Packument, error) {
	entry, ok, err := c.store.Get(ctx, name)
	if err != nil {
		logger.Sugar().Warnf("Packument cache read for %s failed: %v", name, err)
	} else if ok && entry.Packument != nil {
		age := c.now().Sub(entry.FetchedAt)
		switch {
		case age <= c.ttl:
			return entry.Packument, nil
		case age <= c.ttl+c.staleWindow:
			c.refreshInBackground(name)
			return entry.Packument, nil
		}
		// Past the stale window: fall through to a blocking fetch.
	}

	return c.fetchAndStore(ctx, name)
}

func (c *PackumentCache) fetchAndStore(ctx context.Context, name string) (*model.Packument, error) {
	pack, err := c.fetcher.FetchPackument(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, name, &Entry{Packument: pack, FetchedAt: c.now()}); err != nil {
		logger.Sugar().Warnf("Packument cache write for %s failed: %v", name, err)
	}
	return pack, nil
}

// refreshInBackground kicks off one refresh per key. The refresh runs
// detached from the request context so a finished request does not
// cancel it.
func (c *PackumentCache) refreshInBackground(name string) {
	c.mu.Lock()
	if c.inflight[name] {
		c.mu.Unlock()
		return
	}
	c.inflight[name] = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, name)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := c.fetchAndStore(ctx, name); err != nil {
			logger.Sugar().Warnf("Background packument refresh for %s failed: %v", name, err)
		}
	}()
}
