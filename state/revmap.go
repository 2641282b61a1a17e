// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

// revmap maintains pending account mutations in a stack of levels.
// Each level inherits key/value of levels below it, giving the executor
// save-restore/checkpoint-revert semantics over the transaction in flight.
type revmap struct {
	src     func(solana.Address) (*account.Account, bool)
	levels  []*level
	keyRevs map[solana.Address]*intStack
}

type level struct {
	kvs     map[solana.Address]*account.Account
	journal []journalEntry
}

type journalEntry struct {
	addr solana.Address
	acc  *account.Account
}

func newLevel() *level {
	return &level{kvs: make(map[solana.Address]*account.Account)}
}

// newRevmap creates a revmap. src acts as the source of data for addresses
// no pending level has touched.
func newRevmap(src func(solana.Address) (*account.Account, bool)) *revmap {
	return &revmap{
		src:     src,
		keyRevs: make(map[solana.Address]*intStack),
	}
}

// Depth returns the depth of the level stack.
func (rm *revmap) Depth() int {
	return len(rm.levels)
}

// Push pushes a new level on the stack.
// It returns the stack depth before the push, to be passed to PopTo.
func (rm *revmap) Push() int {
	rm.levels = append(rm.levels, newLevel())
	return len(rm.levels) - 1
}

// Pop pops the level at the top of the stack, reverting all Put operations
// since the matching Push.
func (rm *revmap) Pop() {
	top := rm.levels[len(rm.levels)-1]
	for addr := range top.kvs {
		revs := rm.keyRevs[addr]
		revs.pop()
		if len(*revs) == 0 {
			delete(rm.keyRevs, addr)
		}
	}
	rm.levels = rm.levels[:len(rm.levels)-1]
}

// PopTo pops levels until the stack depth reaches depth.
func (rm *revmap) PopTo(depth int) {
	for len(rm.levels) > depth {
		rm.Pop()
	}
}

// Get returns the latest pending state for addr, falling through to src when
// no level has touched it.
func (rm *revmap) Get(addr solana.Address) (*account.Account, bool) {
	if revs, ok := rm.keyRevs[addr]; ok {
		lvl := rm.levels[revs.top()]
		if acc, ok := lvl.kvs[addr]; ok {
			return acc, true
		}
	}
	return rm.src(addr)
}

// Put records a pending mutation at the top level.
// It panics if the stack is empty.
func (rm *revmap) Put(addr solana.Address, acc *account.Account) {
	top := rm.levels[len(rm.levels)-1]
	top.kvs[addr] = acc
	top.journal = append(top.journal, journalEntry{addr, acc})

	// key revisions are tracked for O(1) Get
	rev := len(rm.levels) - 1
	if revs, ok := rm.keyRevs[addr]; ok {
		if revs.top() != rev {
			revs.push(rev)
		}
	} else {
		rm.keyRevs[addr] = &intStack{rev}
	}
}

// Journal iterates all surviving Put operations in order. The callback
// returning false stops the iteration.
func (rm *revmap) Journal(cb func(addr solana.Address, acc *account.Account) bool) {
	for _, lvl := range rm.levels {
		for _, e := range lvl.journal {
			if !cb(e.addr, e.acc) {
				return
			}
		}
	}
}

type intStack []int

func (s *intStack) pop() {
	*s = (*s)[:len(*s)-1]
}

func (s *intStack) push(v int) {
	*s = append(*s, v)
}

func (s intStack) top() int {
	return s[len(s)-1]
}
