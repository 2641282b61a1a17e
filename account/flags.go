// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import "github.com/pkg/errors"

// Flags is the per-account flag bundle, bit-packed for compactness.
//
// Flags are mutated only on the writer goroutine as part of the cell's
// serialized mutation stream, so they need no synchronization of their own:
// shared-cell flag changes ride the same sequence counter as data changes.
type Flags uint8

const (
	// flagDelegated: this validator session holds exclusive custody of the
	// account and need not re-fetch it externally.
	flagDelegated Flags = 1 << iota
	// flagConfined: the lamport balance must not change within this session.
	flagConfined
	// flagUndelegating: custody is being relinquished; the account must not
	// be evicted until external revocation completes.
	flagUndelegating
	// flagPrivileged: exempt from confinement and fee-payer integrity checks.
	flagPrivileged
)

// Delegated returns the delegation custody flag.
func (f Flags) Delegated() bool { return f&flagDelegated != 0 }

// Confined returns the balance confinement flag.
func (f Flags) Confined() bool { return f&flagConfined != 0 }

// Undelegating returns the in-flight undelegation flag.
func (f Flags) Undelegating() bool { return f&flagUndelegating != 0 }

// Privileged returns the privilege bypass flag.
func (f Flags) Privileged() bool { return f&flagPrivileged != 0 }

// SetDelegated sets or clears the delegation custody flag. Idempotent.
func (f *Flags) SetDelegated(v bool) { f.set(flagDelegated, v) }

// SetConfined sets or clears the balance confinement flag. Idempotent.
func (f *Flags) SetConfined(v bool) { f.set(flagConfined, v) }

// SetUndelegating sets or clears the in-flight undelegation flag. Idempotent.
func (f *Flags) SetUndelegating(v bool) { f.set(flagUndelegating, v) }

// SetPrivileged sets or clears the privilege bypass flag. Idempotent.
func (f *Flags) SetPrivileged(v bool) { f.set(flagPrivileged, v) }

func (f *Flags) set(bit Flags, v bool) {
	if v {
		*f |= bit
	} else {
		*f &^= bit
	}
}

// Evictable reports whether a cell carrying these flags may be reclaimed.
// Delegated and undelegating accounts are pinned.
func (f Flags) Evictable() bool {
	return !f.Delegated() && !f.Undelegating()
}

// CheckConfinement asserts the balance confinement invariant against a
// pre/post balance pair. It returns ErrBalanceConfined when the account is
// confined, not privileged, and the balance changed.
func (f Flags) CheckConfinement(pre, post uint64) error {
	if !f.Confined() || f.Privileged() {
		return nil
	}
	if pre != post {
		return errors.WithMessagef(ErrBalanceConfined, "pre %d post %d", pre, post)
	}
	return nil
}
