// Package cache provides a simple in-file cache implementation.
package cache

import (
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

// Type represents the type of cache being used.
type Type string

// Cache types for different purposes.
const (
	PageCache Type = "pages"
)

var (
	errInvalidID = errors.New("invalid id")
	// names may carry a suffix after a dot, ids may not.
	validName = regexp.MustCompile(`^[0-9a-zA-Z_-][0-9a-zA-Z_.-]*$`)
	validID   = regexp.MustCompile(`^[0-9a-zA-Z_-]+$`)
)

// Cache stores one file per id in a directory.
type Cache struct {
	baseDir string
	cType   Type
}

// New creates a new cache instance with the specified base directory and cache type.
func New(baseDir string, cacheType Type) (*Cache, error) {
	dir := filepath.Join(baseDir, string(cacheType))
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{
		baseDir: baseDir,
		cType:   cacheType,
	}, nil
}

// ID returns the cache id for an arbitrary key, such as a URL.
func ID(key string) string {
	sum := sha1.Sum([]byte(key)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

func (c *Cache) dir() string {
	return filepath.Join(c.baseDir, string(c.cType))
}

func checkName(name string) error {
	if !validName.MatchString(name) {
		return errInvalidID
	}
	return nil
}

func checkID(id string) error {
	if !validID.MatchString(id) {
		return errInvalidID
	}
	return nil
}

func (c *Cache) Read(id string, readFn func(io.Reader) error) error {
	if err := checkName(id); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	file, err := os.Open(filepath.Join(c.dir(), id))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if err := readFn(file); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

func (c *Cache) Write(id string, writeFn func(io.Writer) error) error {
	if err := checkName(id); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	file, err := os.Create(filepath.Join(c.dir(), id))
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if err := writeFn(file); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// Delete removes a cached item by its ID.
func (c *Cache) Delete(id string) error {
	if err := checkName(id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := os.Remove(filepath.Join(c.dir(), id)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (c *Cache) glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir(), pattern))
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	return matches, nil
}
