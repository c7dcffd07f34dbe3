package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Expiring is a cache of gob encoded values that expire. The expiry is part
// of the file name, so expired entries are dropped without being decoded.
type Expiring[T any] struct {
	cache *Cache
	now   func() time.Time
}

// NewExpiring creates a new cache instance that supports item expiration.
func NewExpiring[T any](path string, cacheType Type) (*Expiring[T], error) {
	cache, err := New(path, cacheType)
	if err != nil {
		return nil, fmt.Errorf("create expiring cache: %w", err)
	}
	return &Expiring[T]{cache: cache, now: time.Now}, nil
}

func (c *Expiring[T]) getCacheFilename(id string, expiresAt int64) string {
	return fmt.Sprintf("%s.%d", id, expiresAt)
}

// Get returns the cached value. A missing or expired entry is reported as
// [os.ErrNotExist].
func (c *Expiring[T]) Get(id string) (T, error) {
	var value T
	if err := checkID(id); err != nil {
		return value, fmt.Errorf("read: %w", err)
	}
	matches, err := c.cache.glob(id + ".*")
	if err != nil {
		return value, fmt.Errorf("failed to read expiring cache: %w", err)
	}
	if len(matches) == 0 {
		return value, os.ErrNotExist
	}

	filename := filepath.Base(matches[0])
	parts := strings.Split(filename, ".")
	expectedFilenameParts := 2 // name and expiration timestamp
	if len(parts) != expectedFilenameParts {
		return value, fmt.Errorf("invalid cache filename")
	}

	expiresAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return value, fmt.Errorf("invalid expiration timestamp")
	}

	if expiresAt < c.now().Unix() {
		if err := os.Remove(matches[0]); err != nil {
			return value, fmt.Errorf("failed to remove expired cache file: %w", err)
		}
		return value, os.ErrNotExist
	}

	if err := c.cache.Read(filename, func(r io.Reader) error {
		return gob.NewDecoder(r).Decode(&value) //nolint:wrapcheck
	}); err != nil {
		return value, err
	}
	return value, nil
}

// Put stores the value for ttl, replacing any previous entry.
func (c *Expiring[T]) Put(id string, value T, ttl time.Duration) error {
	if err := c.Delete(id); err != nil {
		return fmt.Errorf("failed to remove old cache file: %w", err)
	}
	filename := c.getCacheFilename(id, c.now().Add(ttl).Unix())
	if err := c.cache.Write(filename, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(value) //nolint:wrapcheck
	}); err != nil {
		return fmt.Errorf("failed to write expiring cache file: %w", err)
	}
	return nil
}

// Delete removes a cached item by its ID.
func (c *Expiring[T]) Delete(id string) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	matches, err := c.cache.glob(id + ".*")
	if err != nil {
		return fmt.Errorf("failed to delete expiring cache: %w", err)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete expiring cache file: %w", err)
		}
	}

	return nil
}
