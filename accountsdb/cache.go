// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsdb

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

// EvictionGate decides whether the cell behind addr may be reclaimed.
// Wire it to state.IsEvictable.
type EvictionGate func(addr solana.Address) bool

// Cache is an LRU of persisted account snapshots whose eviction respects the
// per-account custody flags: pinned (delegated or undelegating) entries are
// never silently dropped.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	gate   EvictionGate
	pinned []Entry // entries displaced by capacity pressure awaiting readmission
}

// NewCache creates a snapshot cache of the given capacity.
func NewCache(capacity int, gate EvictionGate) (*Cache, error) {
	c := &Cache{gate: gate}
	inner, err := lru.NewWithEvict(capacity, c.onEvicted)
	if err != nil {
		return nil, err
	}
	c.lru = inner
	return c, nil
}

// onEvicted runs inside the lru's lock; it only records displaced pinned
// entries for readmission by the triggering caller.
func (c *Cache) onEvicted(key, value interface{}) {
	addr := key.(solana.Address)
	if c.gate(addr) {
		return
	}
	c.pinned = append(c.pinned, Entry{Addr: addr, Acc: value.(account.Account)})
}

// Add caches a snapshot for addr.
func (c *Cache) Add(addr solana.Address, acc account.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(addr, acc)
	c.readmit()
}

// readmit gives displaced pinned entries one more slot. A single pass keeps
// this terminating even when the cache is saturated with pinned entries; a
// pinned entry displaced twice in the same operation stays out of the cache
// and is reported, since dropping it silently would hide the custody bug.
func (c *Cache) readmit() {
	pend := c.pinned
	c.pinned = nil
	for _, e := range pend {
		c.lru.Add(e.Addr, e.Acc)
	}
	if len(c.pinned) > 0 {
		for _, e := range c.pinned {
			logger.Error("pinned snapshot displaced under capacity pressure", "addr", e.Addr)
		}
		metricEvictionRejected().Add(int64(len(c.pinned)))
		c.pinned = nil
	}
	metricCachedSnapshots().Set(int64(c.lru.Len()))
}

// Get returns the cached snapshot for addr.
func (c *Cache) Get(addr solana.Address) (account.Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(addr)
	if !ok {
		return account.Account{}, false
	}
	return v.(account.Account), true
}

// Evict reclaims the snapshot at addr. It returns ErrEvictionRace when the
// account's flags pin it; such a call signals an ordering bug on the caller
// side and must not be retried automatically.
func (c *Cache) Evict(addr solana.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.gate(addr) {
		metricEvictionRejected().Add(1)
		return account.ErrEvictionRace
	}
	c.lru.Remove(addr)
	metricCachedSnapshots().Set(int64(c.lru.Len()))
	return nil
}

// Len returns the number of cached snapshots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
