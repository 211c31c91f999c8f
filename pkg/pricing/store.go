package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/avidel/ccstatusline/pkg/logger"
)

// Bucket and key names.
var (
	bucketPricing  = []byte("pricing")
	keyTable       = []byte("table")
	keyFetchedAt   = []byte("fetched_at")
	defaultTimeout = time.Second
)

// Store persists the pricing table across invocations in a BoltDB
// file. Bolt's own file lock serializes concurrent openers; the open
// timeout keeps a contended invocation from hanging.
type Store struct {
	db     *bolt.DB
	logger logger.Logger
}

// NewStore opens (creating if needed) the durable pricing database at
// path.
func NewStore(path string, log logger.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create pricing cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: defaultTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pricing database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketPricing)
		return createErr
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close pricing database after initialization error",
				"error", closeErr)
		}
		return nil, fmt.Errorf("failed to create pricing bucket: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

// Load returns the cached table and the time it was fetched.
//
// Returns ErrNoCachedTable when the database has never been populated.
func (s *Store) Load() (Table, time.Time, error) {
	var (
		table     Table
		fetchedAt time.Time
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketPricing)

		raw := bucket.Get(keyTable)
		if raw == nil {
			return ErrNoCachedTable
		}
		if err := json.Unmarshal(raw, &table); err != nil {
			return fmt.Errorf("failed to decode cached pricing table: %w", err)
		}

		ts := bucket.Get(keyFetchedAt)
		if ts == nil {
			return ErrNoCachedTable
		}
		if err := fetchedAt.UnmarshalText(ts); err != nil {
			return fmt.Errorf("failed to decode cache timestamp: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	if len(table) == 0 {
		return nil, time.Time{}, ErrEmptyTable
	}

	return table, fetchedAt, nil
}

// Save replaces the cached table and stamps it with fetchedAt.
func (s *Store) Save(table Table, fetchedAt time.Time) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode pricing table: %w", err)
	}

	ts, err := fetchedAt.MarshalText()
	if err != nil {
		return fmt.Errorf("failed to encode cache timestamp: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketPricing)
		if err := bucket.Put(keyTable, raw); err != nil {
			return err
		}
		return bucket.Put(keyFetchedAt, ts)
	})
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
