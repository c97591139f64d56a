package paging

import (
	"encoding/binary"
	"sync"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/bawdo/sqlpage/parser"
)

// Cache keeps parsed statements keyed by their text, rule and nesting
// limit, so one cache may be shared by pagers configured differently. Parsed
// statements are immutable, so one entry may be handed to many callers.
// When full, the oldest entry is evicted.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[uint64]cacheEntry
	order   []uint64
	hits    uint64
	misses  uint64
}

type cacheEntry struct {
	text     string
	rule     parser.ParseRule
	maxDepth int
	infos    []*parser.StatementInfo
}

// NewCache returns a cache holding at most max entries. A max below 1
// yields a cache that stores nothing.
func NewCache(max int) *Cache {
	return &Cache{max: max, entries: make(map[uint64]cacheEntry)}
}

// cacheKey hashes everything that changes the parse of text: the rule and
// the nesting limit.
func cacheKey(text string, rule parser.ParseRule, maxDepth int) uint64 {
	var tail [9]byte
	tail[0] = rule.Bits()
	binary.LittleEndian.PutUint64(tail[1:], uint64(maxDepth))
	d := xxhash.New()
	_, _ = d.WriteString(text)
	_, _ = d.Write(tail[:])
	return d.Sum64()
}

// Get returns the statements cached for text under rule and maxDepth.
func (c *Cache) Get(text string, rule parser.ParseRule, maxDepth int) ([]*parser.StatementInfo, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey(text, rule, maxDepth)]
	if !ok || e.text != text || e.rule != rule || e.maxDepth != maxDepth {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.infos, true
}

// Put stores infos for text parsed under rule and maxDepth.
func (c *Cache) Put(text string, rule parser.ParseRule, maxDepth int, infos []*parser.StatementInfo) {
	if c == nil || c.max < 1 {
		return
	}
	key := cacheKey(text, rule, maxDepth)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{text: text, rule: rule, maxDepth: maxDepth, infos: infos}
	for len(c.order) > c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
