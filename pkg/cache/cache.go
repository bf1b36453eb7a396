// pkg/cache/cache.go
package cache

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/arc-language/abistage/pkg/scanner"
)

// Scanner builds a profile for one archive
type Scanner interface {
	Scan(path string) *scanner.Profile
}

// ProfileCache memoizes ABI profiles by archive path. Archives are assumed
// immutable once installed, so a readable profile is kept for the lifetime
// of the cache. Profiles that failed with a read error are handed to the
// callers that were waiting on that scan and then dropped.
type ProfileCache struct {
	scanner Scanner

	mu      sync.Mutex
	entries map[string]*entry

	scans atomic.Int64
}

type entry struct {
	once    sync.Once
	profile *scanner.Profile
}

// New creates an empty cache backed by s
func New(s Scanner) *ProfileCache {
	return &ProfileCache{
		scanner: s,
		entries: make(map[string]*entry),
	}
}

// Get returns the profile for the archive at path, scanning it on first use.
// Concurrent calls for the same unseen path share a single scan and never
// observe a partially built profile.
func (c *ProfileCache) Get(path string) *scanner.Profile {
	key := Key(path)

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		c.scans.Add(1)
		e.profile = c.scanner.Scan(path)
	})

	if !e.profile.Readable() {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	return e.profile
}

// Forget drops the cached profile for path, e.g. after a package is replaced
func (c *ProfileCache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, Key(path))
}

// Len returns the number of cached profiles
func (c *ProfileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Scans returns how many scans the cache has executed
func (c *ProfileCache) Scans() int64 {
	return c.scans.Load()
}

// Key normalizes an archive path into its cache identity
func Key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
