// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package account

import (
	"bytes"

	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

// Account is the runtime representation of an account's state.
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      solana.Address
	Executable bool
	Flags      Flags
}

// IsEmpty returns if an account is empty.
// An empty account has zero balance, no data and no owner.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 &&
		len(a.Data) == 0 &&
		a.Owner.IsZero()
}

// AddLamports credits the balance.
func (a *Account) AddLamports(v uint64) {
	a.Lamports += v
}

// SubLamports debits the balance. It returns false if the balance is
// insufficient, leaving the account untouched.
func (a *Account) SubLamports(v uint64) bool {
	if v > a.Lamports {
		return false
	}
	a.Lamports -= v
	return true
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() Account {
	cpy := *a
	if len(a.Data) > 0 {
		cpy.Data = append([]byte(nil), a.Data...)
	}
	return cpy
}

// Equal reports whether two accounts carry identical state.
func (a *Account) Equal(b *Account) bool {
	return a.Lamports == b.Lamports &&
		a.Owner == b.Owner &&
		a.Executable == b.Executable &&
		a.Flags == b.Flags &&
		bytes.Equal(a.Data, b.Data)
}
