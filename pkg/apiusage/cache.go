package apiusage

import (
	"context"
	"sync"
	"time"

	"github.com/avidel/ccstatusline/pkg/cache"
	"github.com/avidel/ccstatusline/pkg/logger"
)

// cacheKey names the snapshot entry in the runtime cache directory.
const cacheKey = "api-usage"

// refreshTimeout bounds a single background refresh attempt.
const refreshTimeout = 5 * time.Second

// CacheConfig tunes the snapshot cache.
type CacheConfig struct {
	// FreshTTL is the age below which a snapshot is served without
	// any network I/O.
	FreshTTL time.Duration

	// StaleTTL is the hard ceiling: older snapshots are treated as
	// absent. Between FreshTTL and StaleTTL the cached value is served
	// while a background refresh runs.
	StaleTTL time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Cache is the three-state snapshot cache shared across process
// invocations through the runtime cache directory.
type Cache struct {
	store    *cache.Store
	fetcher  Fetcher
	freshTTL time.Duration
	staleTTL time.Duration
	now      func() time.Time
	logger   logger.Logger

	// refreshes tracks in-flight background refreshes for Flush.
	refreshes sync.WaitGroup
}

// NewCache creates a snapshot cache over the given store and fetcher.
func NewCache(store *cache.Store, fetcher Fetcher, cfg CacheConfig, log logger.Logger) *Cache {
	if cfg.FreshTTL == 0 {
		cfg.FreshTTL = 30 * time.Second
	}
	if cfg.StaleTTL == 0 {
		cfg.StaleTTL = 5 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Cache{
		store:    store,
		fetcher:  fetcher,
		freshTTL: cfg.FreshTTL,
		staleTTL: cfg.StaleTTL,
		now:      now,
		logger:   log,
	}
}

// Snapshot returns the current quota snapshot, or ok=false when none
// is available.
//
// A fresh cached snapshot is returned without network I/O. A stale but
// usable one is returned immediately while a best-effort refresh runs
// for the next invocation. With no usable entry a single synchronous
// fetch bounded by ctx is attempted; its failure is logged and
// reported as absent, never as an error.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, bool) {
	snap, computedAt, err := cache.Get[Snapshot](c.store, cacheKey)
	if err == nil {
		age := c.now().Sub(computedAt)

		if age < c.freshTTL {
			return &snap, true
		}

		if age < c.staleTTL {
			c.refreshAsync()
			return &snap, true
		}
	}

	return c.fetchAndCache(ctx)
}

// fetchAndCache performs the synchronous expired-state fetch. The
// key's advisory lock serializes fetchers across processes; when it is
// contended the concurrent fetcher's result is adopted instead.
func (c *Cache) fetchAndCache(ctx context.Context) (*Snapshot, bool) {
	lock := c.store.Lock(cacheKey)

	locked, err := lock.TryLock()
	if err != nil || !locked {
		// Another process is fetching. Re-read once: it may already
		// have published.
		if snap, computedAt, readErr := cache.Get[Snapshot](c.store, cacheKey); readErr == nil {
			if c.now().Sub(computedAt) < c.staleTTL {
				return &snap, true
			}
		}
		return nil, false
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			c.logger.Warn("failed to release usage cache lock", "error", unlockErr)
		}
	}()

	snap, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.logger.Debug("usage snapshot fetch failed", "error", err)
		return nil, false
	}

	c.put(snap)
	return snap, true
}

// refreshAsync kicks off a background refresh of a stale entry. The
// caller never waits on it; the result lands in the cache for the next
// invocation. Contention on the key's lock means another process is
// already refreshing, so the attempt is skipped.
func (c *Cache) refreshAsync() {
	lock := c.store.Lock(cacheKey)

	locked, err := lock.TryLock()
	if err != nil || !locked {
		return
	}

	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()
		defer func() {
			if unlockErr := lock.Unlock(); unlockErr != nil {
				c.logger.Warn("failed to release usage cache lock", "error", unlockErr)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		snap, err := c.fetcher.Fetch(ctx)
		if err != nil {
			c.logger.Debug("usage snapshot refresh failed", "error", err)
			return
		}

		c.put(snap)
		c.logger.Debug("usage snapshot refreshed",
			"five_hour_percent", snap.FiveHourPercent,
			"seven_day_percent", snap.SevenDayPercent)
	}()
}

// Flush blocks until any in-flight background refresh has landed in
// the cache, bounded by the refresh timeout. A short-lived process
// must call this before exiting or the stale-tier refresh dies with it
// and the result never reaches the next invocation.
func (c *Cache) Flush() {
	done := make(chan struct{})
	go func() {
		c.refreshes.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(refreshTimeout + time.Second):
		c.logger.Warn("usage snapshot refresh abandoned at exit")
	}
}

// put caches a snapshot; write failures are diagnostic-only.
func (c *Cache) put(snap *Snapshot) {
	if err := cache.Put(c.store, cacheKey, *snap, c.now(), c.freshTTL); err != nil {
		c.logger.Warn("failed to cache usage snapshot", "error", err)
	}
}
