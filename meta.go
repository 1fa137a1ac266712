package main

import (
	"os"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Meta is the freshness token for a filesystem path: derived from a stat()
// call, componentwise-comparable, and embedded in every cached Body.
type Meta struct {
	Len         uint64
	Modified    time.Time
	HasModified bool
	IsDir       bool
}

// metaFromFileInfo converts an os.FileInfo into a Meta.
func metaFromFileInfo(info os.FileInfo) Meta {
	return Meta{
		Len:         uint64(info.Size()),
		Modified:    info.ModTime(),
		HasModified: true,
		IsDir:       info.IsDir(),
	}
}

// MetaCacheConfig configures the metadata cache's freshness window.
type MetaCacheConfig struct {
	TTL      time.Duration // default 60s
	Capacity int           // default 100_000
}

// DefaultMetaCacheConfig returns the spec defaults.
func DefaultMetaCacheConfig() MetaCacheConfig {
	return MetaCacheConfig{TTL: 60 * time.Second, Capacity: 100_000}
}

// MetaCache amortizes stat() calls on the hot path. Stat failures are never
// cached; only successful lookups are stored.
type MetaCache struct {
	cache *expirable.LRU[string, Meta]
}

// NewMetaCache builds a metadata cache with the given config.
func NewMetaCache(cfg MetaCacheConfig) *MetaCache {
	return &MetaCache{
		cache: expirable.NewLRU[string, Meta](cfg.Capacity, nil, cfg.TTL),
	}
}

// Metadata returns the cached Meta for path if present and unexpired,
// otherwise stats the path, caches the result, and returns it. Stat errors
// propagate to the caller untouched; nothing is cached on error.
func (c *MetaCache) Metadata(path string) (Meta, error) {
	if meta, ok := c.cache.Get(path); ok {
		return meta, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Meta{}, err
	}

	meta := metaFromFileInfo(info)
	c.cache.Add(path, meta)
	return meta, nil
}
