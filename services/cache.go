package services

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"netsuite-gateway/models"
)

// DefaultCacheTTL bounds how long a computed value serves before the ERP is
// asked again.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	value      interface{}
	insertedAt time.Time
}

// Cache is the process-wide result cache plus the in-flight coalescer.
// Entries expire lazily on read; there is no background sweeper. Values are
// never mutated in place, always replaced.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group
}

// NewCache creates a cache with the given TTL (DefaultCacheTTL when zero)
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live entry, evicting it if expired
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check: a writer may have replaced the entry meanwhile.
		if cur, still := c.entries[key]; still && c.now().Sub(cur.insertedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Put stores a value under a key, replacing any previous entry
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, insertedAt: c.now()}
	c.mu.Unlock()
}

// Len reports live plus stale entry count; /health exposes it
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Do returns the cached value for key or computes it once, coalescing
// concurrent identical callers onto one execution. The computation runs
// detached from any single caller's context so a client disconnect does not
// starve the remaining waiters; each waiter still honors its own context.
// Failures are never cached, so the next caller retries.
func (c *Cache) Do(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, models.WrapError(models.ErrTimeout, ctx.Err(), "request cancelled while waiting for computation")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	}
}

// KeyParams are the normalized inputs a cache key derives from. Field order
// is fixed by the struct, slices are sorted, and ids render as strings, so
// the canonical form is stable across process runs.
type KeyParams struct {
	Accounts   []string `json:"accounts,omitempty"`
	Periods    []string `json:"periods,omitempty"`
	Subsidiary string   `json:"subsidiary,omitempty"`
	Department string   `json:"department,omitempty"`
	Location   string   `json:"location,omitempty"`
	Class      string   `json:"class,omitempty"`
	Book       string   `json:"book"`
	Extra      string   `json:"extra,omitempty"`
}

// CacheKey canonicalizes an operation tag plus parameters into a key
func CacheKey(op string, p KeyParams) string {
	if p.Accounts != nil {
		accounts := make([]string, len(p.Accounts))
		copy(accounts, p.Accounts)
		sort.Strings(accounts)
		p.Accounts = accounts
	}
	if p.Periods != nil {
		periods := make([]string, len(p.Periods))
		copy(periods, p.Periods)
		sort.Strings(periods)
		p.Periods = periods
	}
	payload, _ := json.Marshal(p)
	return op + ":" + string(payload)
}

// FilterKeyParams renders a filter bundle into key fields
func FilterKeyParams(f models.FilterBundle) KeyParams {
	p := KeyParams{Book: strconv.FormatInt(f.Book(), 10)}
	if f.SubsidiaryID > 0 {
		p.Subsidiary = strconv.FormatInt(f.SubsidiaryID, 10)
	}
	if f.DepartmentID > 0 {
		p.Department = strconv.FormatInt(f.DepartmentID, 10)
	}
	if f.LocationID > 0 {
		p.Location = strconv.FormatInt(f.LocationID, 10)
	}
	if f.ClassID > 0 {
		p.Class = strconv.FormatInt(f.ClassID, 10)
	}
	return p
}
