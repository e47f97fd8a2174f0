// Package cache provides an LRU cache for parsed XBRL documents.
package cache

import (
	"container/list"
	"sync"

	"github.com/FocuswithJustin/xbrltree/core/xml"
)

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of documents (0 = unlimited).
	MaxSize int
}

// entry represents a cache entry.
type entry struct {
	locator string
	doc     *xml.Document
}

// Documents is a thread-safe LRU cache of parsed documents keyed by locator.
// A filing's taxonomy schemas are shared by most of its nodes, so one schema
// is typically requested hundreds of times during a single pass.
type Documents struct {
	mu        sync.Mutex
	config    Config
	entries   map[string]*list.Element
	evictList *list.List
	stats     Stats
}

// New creates a document cache with the given configuration.
func New(config Config) *Documents {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &Documents{
		config:    config,
		entries:   make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a document by locator.
func (c *Documents) Get(locator string) (*xml.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[locator]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.evictList.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*entry).doc, true
}

// Put stores a document under its locator, evicting the least recently
// used entry when the cache is full.
func (c *Documents) Put(locator string, doc *xml.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[locator]; ok {
		c.evictList.MoveToFront(el)
		el.Value.(*entry).doc = doc
		return
	}

	c.entries[locator] = c.evictList.PushFront(&entry{locator: locator, doc: doc})

	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		if oldest := c.evictList.Back(); oldest != nil {
			c.removeElement(oldest)
			c.stats.Evictions++
		}
	}
}

// Remove drops a document from the cache.
func (c *Documents) Remove(locator string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[locator]; ok {
		c.removeElement(el)
	}
}

// Clear removes all entries.
func (c *Documents) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.evictList.Init()
}

// Len returns the number of cached documents.
func (c *Documents) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *Documents) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *Documents) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	delete(c.entries, el.Value.(*entry).locator)
}
