package tickerstate

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

type entry struct {
	state      *State
	lastTouch  time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Cache is a bounded mapping from symbol to most recent State, sharded by a
// stable hash of the symbol so that each shard has exactly one writer at a
// time, matching the sharding scheme the engine uses to dispatch workers.
type Cache struct {
	shards     [shardCount]*shard
	maxSymbols int
	idleTTL    time.Duration

	mu    sync.RWMutex
	count int
}

// NewCache builds a cache capped at maxSymbols entries total, with entries
// idle (no update) for longer than idleTTL eligible for the background sweep.
func NewCache(maxSymbols int, idleTTL time.Duration) *Cache {
	if maxSymbols <= 0 {
		maxSymbols = 10000
	}
	if idleTTL <= 0 {
		idleTTL = 5 * time.Minute
	}
	c := &Cache{maxSymbols: maxSymbols, idleTTL: idleTTL}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return c
}

func (c *Cache) shardFor(symbol string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return c.shards[h.Sum32()%shardCount]
}

// Get returns the cached state for symbol, if present.
func (c *Cache) Get(symbol string) (*State, bool) {
	sh := c.shardFor(symbol)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.entries[symbol]
	if !ok {
		return nil, false
	}
	return e.state, true
}

// Put replaces the cached state for symbol atomically. Refuses new symbols
// once maxSymbols is reached; existing symbols may still be updated.
func (c *Cache) Put(state *State) error {
	sh := c.shardFor(state.Symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.entries[state.Symbol]; !exists {
		c.mu.Lock()
		if c.count >= c.maxSymbols {
			c.mu.Unlock()
			return errCapacity(state.Symbol, c.maxSymbols)
		}
		c.count++
		c.mu.Unlock()
	}

	sh.entries[state.Symbol] = &entry{state: state, lastTouch: time.Now()}
	return nil
}

// Sweep evicts entries idle longer than idleTTL. Eviction never emits an
// event; it only reclaims memory. Returns the number of entries removed.
func (c *Cache) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		for sym, e := range sh.entries {
			if now.Sub(e.lastTouch) > c.idleTTL {
				delete(sh.entries, sym)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 {
		c.mu.Lock()
		c.count -= removed
		c.mu.Unlock()
	}
	return removed
}

// Len reports the current number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// MaxSymbols reports the configured capacity passed to NewCache.
func (c *Cache) MaxSymbols() int { return c.maxSymbols }

func errCapacity(symbol string, max int) error {
	return fmt.Errorf("tickerstate: max_symbols %d exceeded, refusing %s", max, symbol)
}
