// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import (
	"sync/atomic"

	"github.com/magicblock-labs/solana-upgrade-v3/seqlock"
)

// Handle is the writer-shared memory region of a shared cell. The writer
// publishes mutations copy-on-write: it builds the next version and swaps the
// pointer in one atomic store, then bumps the cell's sequence lock.
type Handle struct {
	ptr atomic.Pointer[Account]
}

// Reinit produces a fresh self-consistent read-only view of the region's
// current state. It never fails; the view may already be stale by the time it
// returns, which the caller's sequence lock check sorts out.
func (h *Handle) Reinit() *Account {
	return h.ptr.Load()
}

// Cell is the unit of account storage: either an exclusively owned value or
// a region shared with the writer.
//
// An owned cell never has a sequence lock, since no concurrent writer exists
// by construction. A shared cell has exactly one, created with the cell and
// valid for its lifetime.
//
// All mutating methods must be called from the single writer goroutine only.
type Cell struct {
	shared *Handle       // nil for owned cells
	seq    *seqlock.Lock // nil for owned cells

	owned      Account // valid when shared == nil
	generation uint32  // owned-cell mutation counter; shared cells use seq
}

// NewOwned creates a cell exclusively holding acc.
func NewOwned(acc Account) *Cell {
	return &Cell{owned: acc}
}

// NewShared creates a cell whose state lives in a writer-shared region
// seeded with acc.
func NewShared(acc Account) *Cell {
	c := &Cell{
		shared: &Handle{},
		seq:    &seqlock.Lock{},
	}
	c.shared.ptr.Store(&acc)
	return c
}

// Shared reports whether the cell's state is shared with the writer.
func (c *Cell) Shared() bool {
	return c.shared != nil
}

// Seq returns the cell's sequence lock, nil for owned cells.
func (c *Cell) Seq() *seqlock.Lock {
	return c.seq
}

// Generation returns the cell's mutation counter.
func (c *Cell) Generation() uint32 {
	if c.shared != nil {
		return c.seq.Load()
	}
	return c.generation
}

// Update applies fn to the cell's state and completes the mutation by
// bumping the generation. Writer only.
func (c *Cell) Update(fn func(*Account)) {
	if c.shared == nil {
		fn(&c.owned)
		c.generation++
		return
	}
	next := c.shared.Reinit().Copy()
	fn(&next)
	c.shared.ptr.Store(&next)
	c.seq.Bump()
}

// Snapshot returns a deep copy of the cell's state, obtained through the
// optimistic read protocol for shared cells and directly for owned ones.
func (c *Cell) Snapshot() Account {
	return View(c, func(a *Account) Account {
		return a.Copy()
	})
}

// SnapshotBounded is Snapshot with a retry budget; it returns
// seqlock.ErrReadConflict when the budget is exhausted.
func (c *Cell) SnapshotBounded(attempts int) (Account, error) {
	return ViewBounded(c, attempts, func(a *Account) Account {
		return a.Copy()
	})
}

// Flags returns the cell's current flag bundle.
func (c *Cell) Flags() Flags {
	return View(c, func(a *Account) Flags {
		return a.Flags
	})
}

// IsEvictable reports whether the cell may be reclaimed by eviction logic.
func (c *Cell) IsEvictable() bool {
	return c.Flags().Evictable()
}

// View executes fn against a borrowed view of the cell under the optimistic
// read protocol, retrying until an unchanged read. fn must not retain or
// mutate the passed account. For owned cells fn executes exactly once.
func View[T any](c *Cell, fn func(*Account) T) T {
	if c.shared == nil {
		return fn(&c.owned)
	}
	var view *Account
	reinit := func() { view = c.shared.Reinit() }
	reinit()
	return seqlock.ReadLoop(c.seq, reinit, func() T {
		return fn(view)
	})
}

// ViewBounded is View with a retry budget.
func ViewBounded[T any](c *Cell, attempts int, fn func(*Account) T) (T, error) {
	if c.shared == nil {
		return fn(&c.owned), nil
	}
	var view *Account
	reinit := func() { view = c.shared.Reinit() }
	reinit()
	return seqlock.ReadBounded(c.seq, attempts, reinit, func() T {
		return fn(view)
	})
}
