// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commit

import (
	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
	"github.com/magicblock-labs/solana-upgrade-v3/state"
)

// WriteAccount is one ordered entry of a transaction's write-set.
type WriteAccount struct {
	Addr solana.Address
	Acc  account.Account
}

// Outcome is the processed-transaction result handed in by the executor.
// It is one of Executed, FeesOnly or NotLoadable.
type Outcome interface {
	isOutcome()
}

// Executed is a transaction that ran to completion, successfully or not.
// WriteSet index 0 is the designated fee payer, with fees already deducted
// during the load phase.
type Executed struct {
	Succeeded bool
	WriteSet  []WriteAccount
}

func (Executed) isOutcome() {}

// FeesOnly is a transaction that failed before execution but still had its
// fee collected and any nonce advanced.
type FeesOnly struct {
	Rollback Rollback
}

func (FeesOnly) isOutcome() {}

// NotLoadable is a transaction whose accounts could not be loaded at all.
// Nothing is persisted; the transaction is reported failed with no balance
// changes.
type NotLoadable struct {
	Err error
}

func (NotLoadable) isOutcome() {}

// Rollback describes the minimal account set needed to correctly apply
// fee/nonce effects when a transaction does not fully execute. It is one of
// RollbackFeePayer, RollbackNonceSame or RollbackNonceSeparate.
type Rollback interface {
	isRollback()
}

// RollbackFeePayer persists the fee payer alone.
type RollbackFeePayer struct {
	FeePayer WriteAccount
}

func (RollbackFeePayer) isRollback() {}

// RollbackNonceSame persists a single account that is both the advanced
// nonce and the fee payer.
type RollbackNonceSame struct {
	Account WriteAccount
}

func (RollbackNonceSame) isRollback() {}

// RollbackNonceSeparate persists a distinct advanced nonce account plus the
// fee payer.
type RollbackNonceSeparate struct {
	Nonce    WriteAccount
	FeePayer WriteAccount
}

func (RollbackNonceSeparate) isRollback() {}

// WriteSetFromState extracts the pending mutations of st as an ordered
// write-set, first-touch order, ready to form an Executed outcome.
func WriteSetFromState(st *state.State) []WriteAccount {
	changes := st.Changes()
	ws := make([]WriteAccount, 0, len(changes))
	for _, c := range changes {
		ws = append(ws, WriteAccount{Addr: c.Addr, Acc: c.Acc})
	}
	return ws
}
