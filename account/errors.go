// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import "github.com/pkg/errors"

var (
	// ErrBalanceConfined a confined, non-privileged account's balance changed.
	// Fatal to the enclosing transaction's commit; must never be silently
	// persisted.
	ErrBalanceConfined = errors.New("confined account balance changed")

	// ErrEvictionRace an eviction was attempted against a delegated or
	// undelegating cell. Signals a caller-side ordering bug; must not be
	// retried automatically.
	ErrEvictionRace = errors.New("account pinned by custody, not evictable")
)

// IsErrBalanceConfined reports whether err is a balance confinement violation.
func IsErrBalanceConfined(err error) bool {
	return errors.Cause(err) == ErrBalanceConfined
}

// IsErrEvictionRace reports whether err is an eviction race.
func IsErrEvictionRace(err error) bool {
	return errors.Cause(err) == ErrEvictionRace
}
