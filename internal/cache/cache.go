// Package cache provides a TTL result cache backed by Badger, keyed by a
// fingerprint of the query and its parameters. Staleness is decided at
// read time from the timestamp stored with each entry, so a TTL change
// takes effect for entries written before it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultTTL is applied when a caller passes no explicit TTL.
const DefaultTTL = 15 * time.Minute

// Cache is a Badger-backed result cache.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// entry is the stored envelope: payload plus write time.
type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  jsontext.Value `json:"payload"`
}

// Open opens (or creates) the cache database at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	if logger != nil {
		logger.Info("cache database opened", "path", path)
	}
	return &Cache{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives the cache key for a query and its parameters. The query is
// trimmed and lowercased; parameters are serialized with sorted keys so
// the same logical request always yields the same key.
func Key(query string, params map[string]any) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, _ := json.Marshal(params[k])
			fmt.Fprintf(h, "|%s=%s", k, v)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up a key and unmarshals the payload into dest. Returns false
// on a miss, an expired entry, or a corrupt one; corrupt and expired
// entries are deleted in passing. A cache failure never propagates as an
// error to the caller's request path.
func (c *Cache) Get(key string, ttl time.Duration, dest any) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	if err == badger.ErrKeyNotFound {
		return false
	}
	if err != nil {
		// Corrupt entry: treat as a miss and drop it.
		if c.logger != nil {
			c.logger.Warn("dropping unreadable cache entry", "key", key, "error", err)
		}
		c.delete(key)
		return false
	}

	if time.Since(e.StoredAt) > ttl {
		c.delete(key)
		return false
	}

	if err := json.Unmarshal(e.Payload, dest); err != nil {
		if c.logger != nil {
			c.logger.Warn("dropping undecodable cache payload", "key", key, "error", err)
		}
		c.delete(key)
		return false
	}
	return true
}

// Set stores a payload under key, stamped with the current time.
func (c *Cache) Set(key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal cache payload: %w", err)
	}
	e := entry{StoredAt: time.Now().UTC(), Payload: data}
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

// Prune removes entries older than ttl. Returns the number removed.
func (c *Cache) Prune(ttl time.Duration) (int, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cutoff := time.Now().UTC().Add(-ttl)

	var stale [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var e entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil || e.StoredAt.Before(cutoff) {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}

	for _, key := range stale {
		if err := c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		}); err != nil {
			return 0, fmt.Errorf("prune cache: %w", err)
		}
	}
	return len(stale), nil
}

// Clear drops every cache entry. Returns the number removed.
func (c *Cache) Clear() (int, error) {
	removed := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}

	if err := c.db.DropAll(); err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return removed, nil
}

func (c *Cache) delete(key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && c.logger != nil {
		c.logger.Warn("failed to delete cache entry", "key", key, "error", err)
	}
}
