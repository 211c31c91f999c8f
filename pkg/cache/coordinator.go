package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avidel/ccstatusline/pkg/logger"
)

// retryDelay is the polling interval while waiting on a held lock.
const retryDelay = 25 * time.Millisecond

// CoordinatorConfig contains coordinator tuning parameters.
type CoordinatorConfig struct {
	// LockWait bounds how long a process waits for a lock held by a
	// concurrent invocation before degrading to direct computation.
	LockWait time.Duration

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Coordinator serializes expensive recomputation across concurrent
// process invocations sharing a Store.
//
// The design goals, in order: every call returns within a bounded time;
// returned output is never incoherent; at most one process normally
// performs the recomputation per TTL window. Duplicate work under heavy
// contention is acceptable, blocking indefinitely is not.
type Coordinator struct {
	store    *Store
	lockWait time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewCoordinator creates a coordinator over the given store.
//
// Parameters:
//   - store: Shared entry/lock store
//   - cfg: Tuning parameters
//   - log: Logger instance
//
// Returns a configured Coordinator.
func NewCoordinator(store *Store, cfg CoordinatorConfig, log logger.Logger) *Coordinator {
	if cfg.LockWait <= 0 {
		cfg.LockWait = 2 * time.Second
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Coordinator{
		store:    store,
		lockWait: cfg.LockWait,
		now:      now,
		logger:   log,
	}
}

// GetOrCompute returns the cached value for key if it is fresher than
// ttl, otherwise computes a new one.
//
// Fast path: a lock-free read; fresh entries are returned immediately,
// which is the dominant case. On a miss the coordinator takes the key's
// exclusive advisory lock without blocking, re-checks freshness under
// the lock (another process may have just finished), computes, publishes
// the result, and releases the lock.
//
// If the lock is held elsewhere, the call waits up to the configured
// bound for it to release, then re-reads; a now-fresh entry is returned
// as-is. If the wait times out or the entry is still stale, the value
// is computed WITHOUT the lock and returned without being written back,
// so a concurrently published fresher entry is never clobbered.
//
// Errors from compute are returned verbatim; nothing is cached for them.
func (c *Coordinator) GetOrCompute(key string, ttl time.Duration, compute func() (string, error)) (string, error) {
	// Fast path: no lock.
	if value, ok := c.readFresh(key, ttl); ok {
		return value, nil
	}

	lock := c.store.Lock(key)

	locked, err := lock.TryLock()
	if err != nil {
		// Lock file corruption or permission trouble: treat as an
		// immediate miss and compute directly.
		c.logger.Warn("cache lock unavailable, computing uncached",
			"key", key,
			"error", err)
		return compute()
	}

	if locked {
		defer c.unlock(lock, key)

		// Re-check under the lock: another process may have published
		// while we were acquiring.
		if value, ok := c.readFresh(key, ttl); ok {
			return value, nil
		}

		value, err := compute()
		if err != nil {
			return "", err
		}

		c.publish(key, value, ttl)
		return value, nil
	}

	// Lock held by a concurrent invocation: wait, bounded.
	ctx, cancel := context.WithTimeout(context.Background(), c.lockWait)
	defer cancel()

	locked, err = lock.TryLockContext(ctx, retryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		c.logger.Warn("cache lock wait failed",
			"key", key,
			"error", err)
	}

	if locked {
		defer c.unlock(lock, key)

		if value, ok := c.readFresh(key, ttl); ok {
			return value, nil
		}

		value, err := compute()
		if err != nil {
			return "", err
		}

		c.publish(key, value, ttl)
		return value, nil
	}

	// Wait timed out. One more lock-free read: the holder may have
	// published and moved on.
	if value, ok := c.readFresh(key, ttl); ok {
		return value, nil
	}

	// Degraded fallback: duplicate work is acceptable, incorrect output
	// is not. Compute without the lock and do not write back.
	c.logger.Debug("lock wait timed out, computing uncached", "key", key)
	return compute()
}

// readFresh performs a lock-free read and reports whether the entry is
// usable at the configured clock's current instant.
func (c *Coordinator) readFresh(key string, ttl time.Duration) (string, bool) {
	entry, err := c.store.Read(key)
	if err != nil {
		return "", false
	}

	if !entry.Fresh(c.now(), ttl) {
		return "", false
	}

	var value string
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		return "", false
	}

	return value, true
}

// publish writes the computed value; failures are diagnostic-only.
func (c *Coordinator) publish(key, value string, ttl time.Duration) {
	if err := Put(c.store, key, value, c.now(), ttl); err != nil {
		c.logger.Warn("failed to write cache entry",
			"key", key,
			"error", err)
	}
}

// unlock releases the advisory lock; failures are diagnostic-only.
func (c *Coordinator) unlock(lock interface{ Unlock() error }, key string) {
	if err := lock.Unlock(); err != nil {
		c.logger.Warn("failed to release cache lock",
			"key", key,
			"error", err)
	}
}
