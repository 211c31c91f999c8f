package cache

import (
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avidel/ccstatusline/pkg/logger"
)

func newTestCoordinator(t *testing.T, now func() time.Time) (*Coordinator, *Store) {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	coord := NewCoordinator(store, CoordinatorConfig{
		LockWait: 200 * time.Millisecond,
		Now:      now,
	}, logger.Noop())

	return coord, store
}

func TestGetOrCompute_MissComputesAndCaches(t *testing.T) {
	t.Parallel()

	coord, store := newTestCoordinator(t, nil)

	var calls int32
	compute := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "rendered", nil
	}

	got, err := coord.GetOrCompute("session-1", 30*time.Second, compute)
	require.NoError(t, err)
	assert.Equal(t, "rendered", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// The result must have been published.
	value, _, err := Get[string](store, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "rendered", value)
}

func TestGetOrCompute_FreshHitSkipsCompute(t *testing.T) {
	t.Parallel()

	coord, _ := newTestCoordinator(t, nil)

	var calls int32
	compute := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "rendered", nil
	}

	// Same key, same TTL window: combined total of one compute.
	for i := 0; i < 5; i++ {
		got, err := coord.GetOrCompute("session-1", 30*time.Second, compute)
		require.NoError(t, err)
		assert.Equal(t, "rendered", got)
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls),
		"compute must run at most once per TTL window under uncontended locks")
}

func TestGetOrCompute_StaleRecomputes(t *testing.T) {
	t.Parallel()

	current := time.Now()
	coord, _ := newTestCoordinator(t, func() time.Time { return current })

	var calls int32
	compute := func() (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return "first", nil
		}
		return "second", nil
	}

	got, err := coord.GetOrCompute("k", 30*time.Second, compute)
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// Advance past the TTL: the entry is stale and must be recomputed.
	current = current.Add(31 * time.Second)

	got, err = coord.GetOrCompute("k", 30*time.Second, compute)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGetOrCompute_ComputeErrorNotCached(t *testing.T) {
	t.Parallel()

	coord, store := newTestCoordinator(t, nil)

	wantErr := errors.New("boom")
	_, err := coord.GetOrCompute("k", 30*time.Second, func() (string, error) {
		return "", wantErr
	})
	require.ErrorIs(t, err, wantErr)

	_, err = store.Read("k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetOrCompute_ContendedLockDegradesWithoutWriteback(t *testing.T) {
	t.Parallel()

	current := time.Now()
	coord, store := newTestCoordinator(t, func() time.Time { return current })

	// Seed a stale entry.
	require.NoError(t, Put(store, "k", "stale", current.Add(-time.Minute), 30*time.Second))

	// Simulate a concurrent invocation holding the key's lock for longer
	// than the coordinator is willing to wait.
	holder := store.Lock("k")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() {
		require.NoError(t, holder.Unlock())
	}()

	var calls int32
	got, err := coord.GetOrCompute("k", 30*time.Second, func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "degraded", nil
	})
	require.NoError(t, err)

	// Duplicate work is acceptable, incorrect output is not: the value
	// is computed without the lock...
	assert.Equal(t, "degraded", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// ...and NOT written back, so the holder's eventual publish is safe.
	value, _, err := Get[string](store, "k")
	require.NoError(t, err)
	assert.Equal(t, "stale", value)
}

func TestGetOrCompute_WaitsForHolderThenReadsFreshEntry(t *testing.T) {
	t.Parallel()

	current := time.Now()
	coord, store := newTestCoordinator(t, func() time.Time { return current })

	holder := store.Lock("k")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	// The "holder" publishes a fresh entry and releases shortly after
	// the coordinator starts waiting.
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = Put(store, "k", "published", current, 30*time.Second)
		_ = holder.Unlock()
	}()

	var calls int32
	got, err := coord.GetOrCompute("k", 30*time.Second, func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "recomputed", nil
	})
	require.NoError(t, err)

	assert.Equal(t, "published", got)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls),
		"waiter must adopt the holder's fresh entry instead of recomputing")
}

func TestGetOrCompute_CorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	coord, store := newTestCoordinator(t, nil)

	// Write garbage where the entry file lives.
	require.NoError(t, store.Write("k", Entry{Value: []byte(`"x"`), ComputedAt: time.Now()}))
	require.NoError(t, os.WriteFile(store.entryPath("k"), []byte("not json"), 0600))

	got, err := coord.GetOrCompute("k", 30*time.Second, func() (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}
