// Package cache provides the cross-process cache layer for ccstatusline.
//
// Every statusline refresh is a fresh short-lived process, so freshness
// state cannot live in memory: each cache entry is a JSON file under a
// per-user runtime directory, guarded by an advisory lock file scoped to
// the entry's key. Entries survive process exit but are expected to be
// cleared on reboot.
//
// The package has two layers: Store, a keyed entry/lock file store, and
// Coordinator, which serializes expensive recomputation across
// concurrent invocations (see coordinator.go).
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Entry is the persisted wrapper around a cached value.
//
// A corrupted or unreadable entry is treated as a cache miss everywhere,
// never as an error condition.
type Entry struct {
	// Value is the cached payload, kept opaque at this layer.
	Value json.RawMessage `json:"value"`

	// ComputedAt is the instant the value was computed.
	ComputedAt time.Time `json:"computed_at"`

	// TTL is the freshness window the writer intended.
	TTL time.Duration `json:"ttl"`
}

// Age returns how old the entry is at the given instant.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.ComputedAt)
}

// Fresh reports whether the entry is younger than the given TTL.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) < ttl
}

// Store is a filesystem-backed key-value store with per-key advisory
// locking. Reads never take a lock: writers publish entries atomically
// (temp file + rename), so a reader always sees either the old or the
// new entry, never a torn one.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if necessary.
//
// Parameters:
//   - dir: Cache directory (typically $XDG_RUNTIME_DIR/ccstatusline)
//
// Returns:
//   - Configured Store
//   - Error if the directory cannot be created
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, ErrEmptyCacheDir
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Read returns the entry for key.
//
// Returns ErrCacheMiss if the entry is absent, unreadable, or corrupt.
// No lock is taken: writes are atomic.
func (s *Store) Read(key string) (Entry, error) {
	data, err := os.ReadFile(s.entryPath(key)) // nolint:gosec
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry file: treat as a miss, not a failure.
		return Entry{}, fmt.Errorf("%w: %s (corrupt)", ErrCacheMiss, key)
	}

	if entry.ComputedAt.IsZero() {
		return Entry{}, fmt.Errorf("%w: %s (no timestamp)", ErrCacheMiss, key)
	}

	return entry, nil
}

// Write stores the entry for key atomically.
//
// The entry is marshaled to a temp file in the same directory and
// renamed over the destination, so concurrent lock-free readers always
// observe a complete entry.
func (s *Store) Write(key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	path := s.entryPath(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		// Best-effort cleanup of the orphaned temp file.
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}

	return nil
}

// Lock returns the advisory lock scoped to key.
//
// The caller decides blocking semantics (TryLock vs TryLockContext).
// Lock files are separate from entry files so that holding the lock
// never interferes with lock-free entry reads.
func (s *Store) Lock(key string) *flock.Flock {
	return flock.New(s.lockPath(key))
}

// entryPath returns the entry file path for key.
func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// lockPath returns the lock file path for key.
func (s *Store) lockPath(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".lock")
}

// sanitizeKey maps an arbitrary key onto a safe file name component.
//
// Keys are typically session UUIDs, but callers may pass anything;
// characters outside [A-Za-z0-9._-] are replaced with underscores.
func sanitizeKey(key string) string {
	if key == "" {
		return "_"
	}

	var b strings.Builder
	b.Grow(len(key))

	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '.', c == '_', c == '-':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}

// Get reads and unmarshals the typed value stored under key.
//
// Returns the value, the entry's computed-at instant, and an error.
// All failure modes (absent, corrupt, wrong shape) surface as
// ErrCacheMiss.
func Get[T any](s *Store, key string) (T, time.Time, error) {
	var zero T

	entry, err := s.Read(key)
	if err != nil {
		return zero, time.Time{}, err
	}

	var value T
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		return zero, time.Time{}, fmt.Errorf("%w: %s (bad payload)", ErrCacheMiss, key)
	}

	return value, entry.ComputedAt, nil
}

// Put marshals and stores a typed value under key with the given TTL.
func Put[T any](s *Store, key string, value T, computedAt time.Time, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return s.Write(key, Entry{
		Value:      data,
		ComputedAt: computedAt,
		TTL:        ttl,
	})
}
