// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"

	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/log"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

var logger = log.WithContext("pkg", "state")

// State manages the in-memory account state of the current session.
//
// There is one logical writer (the transaction executor); all mutating
// methods belong to it. Concurrent readers go through the cells' optimistic
// read protocol and never block the writer.
//
// The cell index itself is also queried off the writer goroutine: eviction
// logic calls IsEvictable and Flags concurrently with materialization. The
// mutex guards only the index; per-cell state stays on the seqlock protocol.
type State struct {
	mu       sync.RWMutex
	cells    map[solana.Address]*account.Cell
	rm       *revmap // pending mutations of the transaction in flight
	baseline map[solana.Address]account.Account
}

// New creates an empty state.
func New() *State {
	s := &State{
		cells:    make(map[solana.Address]*account.Cell),
		baseline: make(map[solana.Address]account.Account),
	}
	s.rm = newRevmap(func(addr solana.Address) (*account.Account, bool) {
		cell, ok := s.cell(addr)
		if !ok {
			return nil, false
		}
		acc := cell.Snapshot()
		return &acc, true
	})
	s.rm.Push()
	return s
}

// Materialize creates an owned cell for an account freshly materialized
// locally. The given state becomes the persisted baseline for dirty
// filtering. Replaces any existing cell at addr.
func (s *State) Materialize(addr solana.Address, acc account.Account) *account.Cell {
	cell := account.NewOwned(acc.Copy())
	s.mu.Lock()
	s.cells[addr] = cell
	s.mu.Unlock()
	s.baseline[addr] = acc.Copy()
	metricCellCount().AddWithLabel(1, map[string]string{"type": "owned"})
	return cell
}

// MaterializeShared creates a shared cell for an account sourced from a
// writer-mutated region, exposing it to concurrent optimistic readers.
func (s *State) MaterializeShared(addr solana.Address, acc account.Account) *account.Cell {
	cell := account.NewShared(acc.Copy())
	s.mu.Lock()
	s.cells[addr] = cell
	s.mu.Unlock()
	s.baseline[addr] = acc.Copy()
	metricCellCount().AddWithLabel(1, map[string]string{"type": "shared"})
	return cell
}

// Cell returns the cell at addr.
func (s *State) Cell(addr solana.Address) (*account.Cell, bool) {
	return s.cell(addr)
}

func (s *State) cell(addr solana.Address) (*account.Cell, bool) {
	s.mu.RLock()
	cell, ok := s.cells[addr]
	s.mu.RUnlock()
	return cell, ok
}

// GetAccount returns the current account state at addr: the pending mutation
// if the transaction in flight touched it, the committed cell state
// otherwise. The returned copy is safe to retain.
func (s *State) GetAccount(addr solana.Address) (account.Account, bool) {
	acc, ok := s.rm.Get(addr)
	if !ok {
		return account.Account{}, false
	}
	return acc.Copy(), true
}

// UpdateAccount records a pending mutation for addr. It does not touch the
// cell; cells advance only when a commit marks the batch persisted.
func (s *State) UpdateAccount(addr solana.Address, acc account.Account) {
	cpy := acc.Copy()
	s.rm.Put(addr, &cpy)
}

// Exists returns whether a non-empty account is known at addr.
func (s *State) Exists(addr solana.Address) bool {
	acc, ok := s.GetAccount(addr)
	return ok && !acc.IsEmpty()
}

// NewCheckpoint makes a checkpoint of pending mutations.
// It returns the revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.rm.Push()
}

// RevertTo reverts pending mutations to the checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.rm.PopTo(revision)
}

// Flags returns the flag bundle of the cell at addr, zero if unknown.
// Safe to call from any goroutine.
func (s *State) Flags(addr solana.Address) account.Flags {
	cell, ok := s.cell(addr)
	if !ok {
		return 0
	}
	return cell.Flags()
}

// IsEvictable reports whether the cell at addr may be reclaimed by the
// external cache/eviction logic. Unknown addresses are evictable.
// Safe to call from any goroutine.
func (s *State) IsEvictable(addr solana.Address) bool {
	cell, ok := s.cell(addr)
	if !ok {
		return true
	}
	return cell.IsEvictable()
}

// SetDelegated establishes or relinquishes delegation custody for addr.
// Idempotent; unknown addresses are ignored.
func (s *State) SetDelegated(addr solana.Address, v bool) {
	s.setFlag(addr, "delegated", v, func(f *account.Flags) { f.SetDelegated(v) })
}

// SetConfined toggles balance confinement for addr. Confinement without
// delegation is permitted only for privileged accounts; other requests are
// rejected with a warning. Idempotent.
func (s *State) SetConfined(addr solana.Address, v bool) {
	if v {
		flags := s.Flags(addr)
		if !flags.Delegated() && !flags.Privileged() {
			logger.Warn("refusing to confine account without custody", "addr", addr)
			return
		}
	}
	s.setFlag(addr, "confined", v, func(f *account.Flags) { f.SetConfined(v) })
}

// SetUndelegating marks custody relinquishment in flight for addr; the cell
// is pinned against eviction until the flag is cleared by external
// revocation. Idempotent.
func (s *State) SetUndelegating(addr solana.Address, v bool) {
	s.setFlag(addr, "undelegating", v, func(f *account.Flags) { f.SetUndelegating(v) })
}

// SetPrivileged marks addr as a system-level account exempt from confinement
// and fee-payer integrity checks. Idempotent.
func (s *State) SetPrivileged(addr solana.Address, v bool) {
	s.setFlag(addr, "privileged", v, func(f *account.Flags) { f.SetPrivileged(v) })
}

func (s *State) setFlag(addr solana.Address, name string, v bool, set func(*account.Flags)) {
	cell, ok := s.cell(addr)
	if !ok {
		logger.Warn("custody signal for unknown account", "flag", name, "addr", addr)
		return
	}
	next := cell.Flags()
	set(&next)
	if next == cell.Flags() {
		// no-op changes must not bump the generation
		return
	}
	cell.Update(func(a *account.Account) {
		set(&a.Flags)
	})
	logger.Debug("account flag changed", "flag", name, "value", v, "addr", addr)
}

// Change is one entry of the pending write-set, with dirtiness computed
// against the last persisted baseline.
type Change struct {
	Addr            solana.Address
	Acc             account.Account
	Dirty           bool
	LamportsChanged bool
}

// Changes extracts the pending write-set in first-touch order, each entry
// carrying the final pending state for its address.
func (s *State) Changes() []Change {
	var order []solana.Address
	final := make(map[solana.Address]*account.Account)

	s.rm.Journal(func(addr solana.Address, acc *account.Account) bool {
		if _, ok := final[addr]; !ok {
			order = append(order, addr)
		}
		final[addr] = acc
		return true
	})

	changes := make([]Change, 0, len(order))
	for _, addr := range order {
		acc := final[addr].Copy()
		base, ok := s.baseline[addr]
		c := Change{Addr: addr, Acc: acc}
		if ok {
			c.Dirty = !acc.Equal(&base)
			c.LamportsChanged = acc.Lamports != base.Lamports
		} else {
			c.Dirty = true
			c.LamportsChanged = acc.Lamports != 0
		}
		changes = append(changes, c)
	}
	return changes
}

// Baseline returns the last persisted snapshot for addr.
func (s *State) Baseline(addr solana.Address) (account.Account, bool) {
	base, ok := s.baseline[addr]
	if !ok {
		return account.Account{}, false
	}
	return base.Copy(), true
}

// MarkPersisted advances the cell at addr to the persisted state and resets
// the baseline. Custody flags stay with the cell: the persisted account's
// flag bits do not clobber flags set since the write-set was built.
func (s *State) MarkPersisted(addr solana.Address, acc account.Account) {
	cell, ok := s.cell(addr)
	if !ok {
		cell = s.Materialize(addr, acc)
	}
	cell.Update(func(a *account.Account) {
		flags := a.Flags
		*a = acc.Copy()
		a.Flags = flags
	})
	base := acc.Copy()
	base.Flags = cell.Flags()
	s.baseline[addr] = base
}

// ResetPending discards all pending mutations, readying the state for the
// next transaction.
func (s *State) ResetPending() {
	s.rm.PopTo(0)
	s.rm.Push()
}
