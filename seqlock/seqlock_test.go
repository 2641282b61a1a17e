// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seqlock_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/magicblock-labs/solana-upgrade-v3/seqlock"
)

func TestToken(t *testing.T) {
	var l seqlock.Lock

	token := l.Acquire()
	assert.False(t, token.Changed())

	l.Bump()
	assert.True(t, token.Changed())

	token.Refresh()
	assert.False(t, token.Changed())
}

func TestReadUnchanged(t *testing.T) {
	var l seqlock.Lock

	calls := 0
	v, changed := seqlock.Read(&l, func() int {
		calls++
		return 7
	})
	assert.Equal(t, 7, v)
	assert.False(t, changed)
	assert.Equal(t, 1, calls)
}

func TestReadChanged(t *testing.T) {
	var l seqlock.Lock

	_, changed := seqlock.Read(&l, func() int {
		l.Bump()
		return 0
	})
	assert.True(t, changed)
}

func TestReadNilLock(t *testing.T) {
	// owned cells have no lock; the reader fn must run exactly once
	calls := 0
	v, changed := seqlock.Read(nil, func() int {
		calls++
		return 1
	})
	assert.Equal(t, 1, v)
	assert.False(t, changed)
	assert.Equal(t, 1, calls)

	calls = 0
	seqlock.ReadLoop(nil, func() { t.Fatal("reinit must not run") }, func() int {
		calls++
		return 1
	})
	assert.Equal(t, 1, calls)

	calls = 0
	_, err := seqlock.ReadBounded(nil, 1, nil, func() int {
		calls++
		return 1
	})
	assert.Nil(t, err)
	assert.Equal(t, 1, calls)
}

func TestReadLoopRetries(t *testing.T) {
	var l seqlock.Lock

	conflicts := 3
	calls := 0
	reinits := 0
	v := seqlock.ReadLoop(&l, func() { reinits++ }, func() int {
		calls++
		if conflicts > 0 {
			conflicts--
			l.Bump()
		}
		return calls
	})
	assert.Equal(t, 4, v)
	assert.Equal(t, 3, reinits)
}

func TestReadBoundedConflict(t *testing.T) {
	var l seqlock.Lock

	calls := 0
	_, err := seqlock.ReadBounded(&l, 5, nil, func() int {
		calls++
		l.Bump() // conflict on every attempt
		return 0
	})
	assert.True(t, seqlock.IsErrReadConflict(err))
	assert.Equal(t, 5, calls)
}

// TestReadConsistency interleaves a single writer with many optimistic
// readers. Mutations are published copy-on-write (immutable pair behind an
// atomic pointer, counter bumped after the swap); every read reporting
// unchanged must observe a single version, never a mix of two mutations.
func TestReadConsistency(t *testing.T) {
	type pair struct{ a, b uint64 }

	var (
		l      seqlock.Lock
		shared atomic.Pointer[pair]
	)
	shared.Store(&pair{})

	done := make(chan struct{})
	var writer errgroup.Group
	writer.Go(func() error {
		for i := uint64(1); i <= 20000; i++ {
			shared.Store(&pair{a: i, b: i})
			l.Bump()
		}
		close(done)
		return nil
	})

	var readers errgroup.Group
	for r := 0; r < 8; r++ {
		readers.Go(func() error {
			for {
				select {
				case <-done:
					return nil
				default:
				}
				var snap *pair
				reinit := func() { snap = shared.Load() }
				reinit()
				got := seqlock.ReadLoop(&l, reinit, func() pair {
					return *snap
				})
				if got.a != got.b {
					return seqlock.ErrReadConflict
				}
			}
		})
	}

	require.Nil(t, writer.Wait())
	require.Nil(t, readers.Wait(), "reader observed torn state")
}
