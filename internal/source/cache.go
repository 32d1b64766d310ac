package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/schemagraph/internal/selector"
)

// CachedSource memoizes file contents of another Source.
//
// Entries are keyed by blob SHA when the last tree listing supplied one, so a
// file whose content did not change is served from memory across scans.
// Failed reads are not cached.
type CachedSource struct {
	inner Source
	cache otter.Cache[string, string]

	mu   sync.RWMutex
	shas map[string]string // path -> sha from the latest Tree call
}

// NewCachedSource wraps inner with a cache of at most capacity entries that
// expire after ttl. A zero ttl keeps entries until evicted.
func NewCachedSource(inner Source, capacity int, ttl time.Duration) (*CachedSource, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}

	var (
		cache otter.Cache[string, string]
		err   error
	)
	builder := otter.MustBuilder[string, string](capacity)
	if ttl > 0 {
		cache, err = builder.WithTTL(ttl).Build()
	} else {
		cache, err = builder.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build content cache: %w", err)
	}

	return &CachedSource{
		inner: inner,
		cache: cache,
		shas:  make(map[string]string),
	}, nil
}

// Tree delegates to the wrapped source and remembers blob SHAs.
func (c *CachedSource) Tree(ctx context.Context) ([]selector.TreeEntry, error) {
	entries, err := c.inner.Tree(ctx)
	if err != nil {
		return nil, err
	}

	shas := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Type == selector.EntryFile && e.SHA != "" {
			shas[e.Path] = e.SHA
		}
	}

	c.mu.Lock()
	c.shas = shas
	c.mu.Unlock()

	return entries, nil
}

// Content returns cached content or reads through to the wrapped source.
func (c *CachedSource) Content(ctx context.Context, path string) (string, error) {
	key := c.key(path)
	if content, ok := c.cache.Get(key); ok {
		return content, nil
	}

	content, err := c.inner.Content(ctx, path)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, content)
	return content, nil
}

// Invalidate drops cached content for the given paths.
func (c *CachedSource) Invalidate(paths ...string) {
	for _, p := range paths {
		c.cache.Delete(c.key(p))
		c.cache.Delete("path:" + p)
	}
}

// Len returns the number of cached entries.
func (c *CachedSource) Len() int {
	return c.cache.Size()
}

// Close releases the cache's background resources.
func (c *CachedSource) Close() {
	c.cache.Close()
}

func (c *CachedSource) key(path string) string {
	c.mu.RLock()
	sha := c.shas[path]
	c.mu.RUnlock()

	if sha != "" {
		return "sha:" + sha
	}
	return "path:" + path
}
