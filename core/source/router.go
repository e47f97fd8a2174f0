package source

import (
	"context"

	"github.com/FocuswithJustin/xbrltree/core/cache"
	"github.com/FocuswithJustin/xbrltree/core/errors"
	"github.com/FocuswithJustin/xbrltree/core/xml"
)

// Router sends local locators, and remote ones the mirror holds, to Files.
// Remaining remote locators go to Remote, or are not found when Remote is
// nil.
type Router struct {
	Files  *Files
	Remote Source
}

// Fetch implements Source.
func (r *Router) Fetch(ctx context.Context, locator string) (*xml.Document, error) {
	doc, err := r.Files.Fetch(ctx, locator)
	if err == nil || !IsRemote(locator) || !errors.Is(err, errors.ErrNotFound) {
		return doc, err
	}
	if r.Remote == nil {
		return nil, err
	}
	return r.Remote.Fetch(ctx, locator)
}

// Exists implements Source.
func (r *Router) Exists(ctx context.Context, locator string) (bool, error) {
	ok, err := r.Files.Exists(ctx, locator)
	if err != nil || ok || !IsRemote(locator) || r.Remote == nil {
		return ok, err
	}
	return r.Remote.Exists(ctx, locator)
}

// Cached keeps parsed documents from Source in an LRU cache.
type Cached struct {
	Source Source
	Cache  *cache.Documents
}

// NewCached wraps src with an LRU of size documents.
func NewCached(src Source, size int) *Cached {
	return &Cached{
		Source: src,
		Cache:  cache.New(cache.Config{MaxSize: size}),
	}
}

// Fetch implements Source.
func (c *Cached) Fetch(ctx context.Context, locator string) (*xml.Document, error) {
	if doc, ok := c.Cache.Get(locator); ok {
		return doc, nil
	}
	doc, err := c.Source.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	c.Cache.Put(locator, doc)
	return doc, nil
}

// Exists implements Source.
func (c *Cached) Exists(ctx context.Context, locator string) (bool, error) {
	if _, ok := c.Cache.Get(locator); ok {
		return true, nil
	}
	return c.Source.Exists(ctx, locator)
}

// CacheLogArgs returns the document cache counters of src as log key-value
// pairs, or nil when src is not a *Cached.
func CacheLogArgs(src Source) []any {
	c, ok := src.(*Cached)
	if !ok {
		return nil
	}
	s := c.Cache.Stats()
	return []any{
		"doc_cache_hits", s.Hits,
		"doc_cache_misses", s.Misses,
		"doc_cache_evictions", s.Evictions,
		"doc_cache_size", s.Size,
	}
}
