// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package seqlock implements a sequence lock, a versioned-counter primitive
// for lock-free optimistic reads over memory owned by a single writer.
//
// The writer bumps the counter after every completed mutation. A reader
// snapshots the counter, performs its read, then compares the counter again:
// equality means the read observed a single consistent version. Comparison is
// equality, not ordering, so the 32-bit counter wrapping around is benign (a
// false "changed" at worst, never a false "unchanged").
package seqlock

import "sync/atomic"

// DefaultReadAttempts is a reasonable budget for ReadBounded callers that
// have no latency requirement of their own. Writes per region are rare, so
// even heavily contended reads settle within a few attempts.
const DefaultReadAttempts = 64

// Lock is the shared version counter over a writer-mutated region.
// The zero value is ready to use. Only the writer may call Bump.
type Lock struct {
	counter atomic.Uint32
}

// Bump increments the counter. It must be called by the writer exactly once
// after each completed mutation of the guarded region.
func (l *Lock) Bump() {
	l.counter.Add(1)
}

// Load returns the current counter value.
func (l *Lock) Load() uint32 {
	return l.counter.Load()
}

// Acquire captures the current counter value into a reader-local token.
func (l *Lock) Acquire() ReadToken {
	return ReadToken{lock: l, observed: l.counter.Load()}
}

// ReadToken is a reader-private snapshot of the counter, taken at
// acquisition time.
type ReadToken struct {
	lock     *Lock
	observed uint32
}

// Changed reports whether the writer mutated since the token was taken.
func (t ReadToken) Changed() bool {
	return t.lock.counter.Load() != t.observed
}

// Refresh re-reads the counter into the token without touching data.
func (t *ReadToken) Refresh() {
	t.observed = t.lock.counter.Load()
}
