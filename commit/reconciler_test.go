// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commit_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/accountsdb"
	"github.com/magicblock-labs/solana-upgrade-v3/commit"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
	"github.com/magicblock-labs/solana-upgrade-v3/state"
)

var (
	addrA = solana.BytesToAddress([]byte("A")) // fee payer
	addrB = solana.BytesToAddress([]byte("B")) // combined nonce and fee payer
	addrC = solana.BytesToAddress([]byte("C")) // separate nonce
	addrX = solana.BytesToAddress([]byte("X"))
	addrY = solana.BytesToAddress([]byte("Y"))
)

type fixture struct {
	st    *state.State
	store *accountsdb.LevelStore
	rec   *commit.Reconciler
	batch *accountsdb.Batch // last batch observed by the subscriber
	ch    <-chan accountsdb.Batch
}

func newFixture(t *testing.T) *fixture {
	st := state.New()
	store, err := accountsdb.NewMem()
	require.Nil(t, err)
	t.Cleanup(func() { store.Close() })

	notifier := accountsdb.NewNotifier()
	ch, cancel := notifier.Subscribe()
	t.Cleanup(cancel)

	return &fixture{
		st:    st,
		store: store,
		rec:   commit.NewReconciler(st, accountsdb.WithNotifier(store, notifier)),
		ch:    ch,
	}
}

func (f *fixture) lastBatch() *accountsdb.Batch {
	select {
	case b := <-f.ch:
		return &b
	default:
		return nil
	}
}

func (f *fixture) mustGet(t *testing.T, addr solana.Address) *account.Account {
	acc, err := f.store.Get(addr)
	require.Nil(t, err)
	return acc
}

// Rollback = fee-payer-only: persisted set is exactly the fee payer with the
// fee already deducted.
func TestFeeOnlyFeePayer(t *testing.T) {
	f := newFixture(t)
	f.st.Materialize(addrA, account.Account{Lamports: 1000})

	receipt, err := f.rec.Commit(commit.FeesOnly{
		Rollback: commit.RollbackFeePayer{
			FeePayer: commit.WriteAccount{Addr: addrA, Acc: account.Account{Lamports: 995}},
		},
	}, false)
	require.Nil(t, err)

	assert.True(t, receipt.Failed)
	assert.Equal(t, []solana.Address{addrA}, receipt.Persisted)
	assert.Equal(t, uint64(995), f.mustGet(t, addrA).Lamports)
}

// Rollback = combined nonce+fee-payer: one account carrying the advanced
// nonce state.
func TestFeeOnlyNonceSame(t *testing.T) {
	f := newFixture(t)
	f.st.Materialize(addrB, account.Account{Lamports: 500, Data: []byte{0}})

	updatedNonce := account.Account{Lamports: 495, Data: []byte{1}}
	receipt, err := f.rec.Commit(commit.FeesOnly{
		Rollback: commit.RollbackNonceSame{
			Account: commit.WriteAccount{Addr: addrB, Acc: updatedNonce},
		},
	}, false)
	require.Nil(t, err)

	assert.Equal(t, []solana.Address{addrB}, receipt.Persisted)
	got := f.mustGet(t, addrB)
	assert.Equal(t, []byte{1}, got.Data)
}

// Rollback = separate nonce and fee payer: both persisted.
func TestFeeOnlyNonceSeparate(t *testing.T) {
	f := newFixture(t)
	f.st.Materialize(addrA, account.Account{Lamports: 1000})
	f.st.Materialize(addrC, account.Account{Lamports: 1, Data: []byte{0}})

	receipt, err := f.rec.Commit(commit.FeesOnly{
		Rollback: commit.RollbackNonceSeparate{
			Nonce:    commit.WriteAccount{Addr: addrC, Acc: account.Account{Lamports: 1, Data: []byte{1}}},
			FeePayer: commit.WriteAccount{Addr: addrA, Acc: account.Account{Lamports: 995}},
		},
	}, false)
	require.Nil(t, err)

	assert.Equal(t, []solana.Address{addrC, addrA}, receipt.Persisted)
	assert.Equal(t, []byte{1}, f.mustGet(t, addrC).Data)
	assert.Equal(t, uint64(995), f.mustGet(t, addrA).Lamports)
}

// Fully executed but failed: only the fee payer survives; every other
// write-set change is discarded.
func TestExecutedFailed(t *testing.T) {
	f := newFixture(t)
	f.st.Materialize(addrA, account.Account{Lamports: 1000})
	f.st.Materialize(addrX, account.Account{Lamports: 10})
	f.st.Materialize(addrY, account.Account{Lamports: 20})

	receipt, err := f.rec.Commit(commit.Executed{
		Succeeded: false,
		WriteSet: []commit.WriteAccount{
			{Addr: addrA, Acc: account.Account{Lamports: 995}},
			{Addr: addrX, Acc: account.Account{Lamports: 999}},
			{Addr: addrY, Acc: account.Account{Lamports: 999}},
		},
	}, false)
	require.Nil(t, err)

	assert.True(t, receipt.Failed)
	assert.Equal(t, []solana.Address{addrA}, receipt.Persisted)

	_, err = f.store.Get(addrX)
	assert.True(t, accountsdb.IsNotFound(err))
}

// Fully executed, succeeded, none privileged, only X dirty: the dirty
// filter keeps X (and A, whose fee debit made it dirty) and drops Y.
func TestExecutedDirtyFilter(t *testing.T) {
	f := newFixture(t)
	f.st.Materialize(addrA, account.Account{Lamports: 1000})
	f.st.Materialize(addrX, account.Account{Lamports: 10})
	f.st.Materialize(addrY, account.Account{Lamports: 20})

	receipt, err := f.rec.Commit(commit.Executed{
		Succeeded: true,
		WriteSet: []commit.WriteAccount{
			{Addr: addrA, Acc: account.Account{Lamports: 995}},
			{Addr: addrX, Acc: account.Account{Lamports: 11}},
			{Addr: addrY, Acc: account.Account{Lamports: 20}}, // untouched
		},
	}, false)
	require.Nil(t, err)

	assert.False(t, receipt.Failed)
	assert.Equal(t, []solana.Address{addrA, addrX}, receipt.Persisted)
	_, err = f.store.Get(addrY)
	assert.True(t, accountsdb.IsNotFound(err))

	batch := f.lastBatch()
	require.NotNil(t, batch)
	assert.False(t, batch.PrivilegedBypass)
}

// Privileged accounts are persisted unconditionally, even if individually
// unchanged, and the batch is flagged as privileged-bypass.
func TestExecutedPrivilegedBypass(t *testing.T) {
	f := newFixture(t)
	f.st.Materialize(addrA, account.Account{Lamports: 1000})
	f.st.Materialize(addrY, account.Account{Lamports: 20})
	f.st.SetPrivileged(addrY, true)

	receipt, err := f.rec.Commit(commit.Executed{
		Succeeded: true,
		WriteSet: []commit.WriteAccount{
			{Addr: addrA, Acc: account.Account{Lamports: 995}},
			{Addr: addrY, Acc: account.Account{Lamports: 20}}, // clean but privileged
		},
	}, false)
	require.Nil(t, err)

	assert.Equal(t, []solana.Address{addrA, addrY}, receipt.Persisted)

	batch := f.lastBatch()
	require.NotNil(t, batch)
	assert.True(t, batch.PrivilegedBypass)
}

// Clean delegated accounts must not be silently dropped by the dirty
// filter.
func TestExecutedDelegatedBypassesDirtyFilter(t *testing.T) {
	f := newFixture(t)
	f.st.MaterializeShared(addrX, account.Account{Lamports: 10})
	f.st.SetDelegated(addrX, true)

	// the write-set copy carries the delegated flag's state at extraction;
	// a clean rewrite must still persist
	acc, _ := f.st.GetAccount(addrX)
	receipt, err := f.rec.Commit(commit.Executed{
		Succeeded: true,
		WriteSet:  []commit.WriteAccount{{Addr: addrX, Acc: acc}},
	}, false)
	require.Nil(t, err)

	assert.Equal(t, []solana.Address{addrX}, receipt.Persisted)
	assert.True(t, f.mustGet(t, addrX).Flags.Delegated())
}

// Not loadable: nothing persisted, transaction reported failed.
func TestNotLoadable(t *testing.T) {
	f := newFixture(t)

	receipt, err := f.rec.Commit(commit.NotLoadable{Err: errors.New("missing account")}, false)
	require.Nil(t, err)

	assert.True(t, receipt.Failed)
	assert.Empty(t, receipt.Persisted)
	assert.Nil(t, f.lastBatch())
}

// A confined, non-privileged account whose balance changed rejects the
// whole commit; nothing is persisted.
func TestConfinementRejection(t *testing.T) {
	f := newFixture(t)
	f.st.MaterializeShared(addrA, account.Account{Lamports: 1000})
	f.st.SetDelegated(addrA, true)
	f.st.SetConfined(addrA, true)

	_, err := f.rec.Commit(commit.FeesOnly{
		Rollback: commit.RollbackFeePayer{
			FeePayer: commit.WriteAccount{Addr: addrA, Acc: account.Account{Lamports: 995}},
		},
	}, false)
	assert.True(t, account.IsErrBalanceConfined(err))

	_, err = f.store.Get(addrA)
	assert.True(t, accountsdb.IsNotFound(err))
}

// The same balance change on a privileged account is accepted.
func TestConfinementPrivilegedAccepted(t *testing.T) {
	f := newFixture(t)
	f.st.MaterializeShared(addrA, account.Account{Lamports: 1000})
	f.st.SetPrivileged(addrA, true)
	f.st.SetConfined(addrA, true)

	receipt, err := f.rec.Commit(commit.FeesOnly{
		Rollback: commit.RollbackFeePayer{
			FeePayer: commit.WriteAccount{Addr: addrA, Acc: account.Account{Lamports: 995}},
		},
	}, false)
	require.Nil(t, err)
	assert.Equal(t, []solana.Address{addrA}, receipt.Persisted)
}

func TestUnhandledShapes(t *testing.T) {
	f := newFixture(t)

	_, err := f.rec.Commit(nil, false)
	assert.True(t, commit.IsErrUnhandledRollback(err))

	_, err = f.rec.Commit(commit.FeesOnly{Rollback: nil}, false)
	assert.True(t, commit.IsErrUnhandledRollback(err))

	_, err = f.rec.Commit(commit.Executed{Succeeded: false}, false)
	assert.True(t, commit.IsErrUnhandledRollback(err), "failed transaction without fee payer")
}

// End to end: executor mutates state through checkpoints, extracts the
// write-set and commits it.
func TestWriteSetFromState(t *testing.T) {
	f := newFixture(t)
	f.st.Materialize(addrA, account.Account{Lamports: 1000})
	f.st.Materialize(addrX, account.Account{Lamports: 10})

	f.st.UpdateAccount(addrA, account.Account{Lamports: 995})
	rev := f.st.NewCheckpoint()
	f.st.UpdateAccount(addrX, account.Account{Lamports: 99})
	f.st.RevertTo(rev)
	f.st.UpdateAccount(addrX, account.Account{Lamports: 11})

	ws := commit.WriteSetFromState(f.st)
	require.Len(t, ws, 2)
	assert.Equal(t, addrA, ws[0].Addr)
	assert.Equal(t, uint64(11), ws[1].Acc.Lamports)

	receipt, err := f.rec.Commit(commit.Executed{Succeeded: true, WriteSet: ws}, false)
	require.Nil(t, err)
	assert.Equal(t, []solana.Address{addrA, addrX}, receipt.Persisted)

	// cells advanced to the persisted state
	cell, _ := f.st.Cell(addrX)
	assert.Equal(t, uint64(11), cell.Snapshot().Lamports)
}
