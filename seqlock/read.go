// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seqlock

import "github.com/pkg/errors"

// ErrReadConflict is returned by ReadBounded when the attempt budget is
// exhausted under write contention. It is always locally recoverable: the
// caller may retry or fall back to an exclusive read.
var ErrReadConflict = errors.New("optimistic read conflict")

// IsErrReadConflict reports whether err is caused by retry budget exhaustion.
func IsErrReadConflict(err error) bool {
	return errors.Cause(err) == ErrReadConflict
}

// Read executes fn once against the guarded data, reporting whether the
// writer mutated concurrently. A false changed flag means the result is a
// consistent snapshot of a single version.
//
// A nil lock means the data is exclusively owned and cannot be mutated
// concurrently; fn executes exactly once and changed is always false.
func Read[T any](l *Lock, fn func() T) (result T, changed bool) {
	if l == nil {
		return fn(), false
	}
	token := l.Acquire()
	result = fn()
	return result, token.Changed()
}

// ReadLoop repeats the optimistic read until it observes an unchanged
// counter. Before every retry, reinit must re-materialize whatever borrowed
// view fn reads through; reinit may be nil when fn reads the region afresh
// on each call.
//
// There is no retry bound. The protocol relies on writer mutations being
// rare relative to reads; callers needing a latency bound should use
// ReadBounded instead.
func ReadLoop[T any](l *Lock, reinit func(), fn func() T) T {
	if l == nil {
		return fn()
	}
	for {
		token := l.Acquire()
		result := fn()
		if !token.Changed() {
			return result
		}
		metricReadRetries().Add(1)
		if reinit != nil {
			reinit()
		}
	}
}

// ReadBounded is ReadLoop with an attempt budget. It returns ErrReadConflict
// after attempts consecutive conflicted reads. attempts < 1 is treated as 1.
func ReadBounded[T any](l *Lock, attempts int, reinit func(), fn func() T) (T, error) {
	if l == nil {
		return fn(), nil
	}
	if attempts < 1 {
		attempts = 1
	}
	var result T
	for i := 0; i < attempts; i++ {
		token := l.Acquire()
		result = fn()
		if !token.Changed() {
			return result, nil
		}
		metricReadRetries().Add(1)
		if reinit != nil {
			reinit()
		}
	}
	metricReadConflicts().Add(1)
	return result, ErrReadConflict
}
