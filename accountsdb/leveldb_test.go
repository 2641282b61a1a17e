// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/accountsdb"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

var (
	addrA = solana.BytesToAddress([]byte("A"))
	addrB = solana.BytesToAddress([]byte("B"))
)

func newStore(t *testing.T) *accountsdb.LevelStore {
	store, err := accountsdb.NewMem()
	require.Nil(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGet(t *testing.T) {
	store := newStore(t)

	owner := solana.BytesToAddress([]byte("program"))
	var flags account.Flags
	flags.SetDelegated(true)

	acc := account.Account{
		Lamports:   995,
		Data:       []byte{1, 2, 3},
		Owner:      owner,
		Executable: true,
		Flags:      flags,
	}
	err := store.Put(accountsdb.Batch{
		Entries: []accountsdb.Entry{{Addr: addrA, Acc: acc}},
	})
	require.Nil(t, err)

	got, err := store.Get(addrA)
	require.Nil(t, err)
	assert.True(t, got.Equal(&acc))
}

func TestGetMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(addrA)
	assert.True(t, accountsdb.IsNotFound(err))
}

func TestEmptyAccountDeletes(t *testing.T) {
	store := newStore(t)

	require.Nil(t, store.Put(accountsdb.Batch{
		Entries: []accountsdb.Entry{{Addr: addrA, Acc: account.Account{Lamports: 1}}},
	}))
	_, err := store.Get(addrA)
	require.Nil(t, err)

	// persisting an empty account removes the record
	require.Nil(t, store.Put(accountsdb.Batch{
		Entries: []accountsdb.Entry{{Addr: addrA, Acc: account.Account{}}},
	}))
	_, err = store.Get(addrA)
	assert.True(t, accountsdb.IsNotFound(err))
}

func TestBatchMultipleEntries(t *testing.T) {
	store := newStore(t)

	err := store.Put(accountsdb.Batch{
		Entries: []accountsdb.Entry{
			{Addr: addrA, Acc: account.Account{Lamports: 1}},
			{Addr: addrB, Acc: account.Account{Lamports: 2}},
		},
	})
	require.Nil(t, err)

	a, err := store.Get(addrA)
	require.Nil(t, err)
	assert.Equal(t, uint64(1), a.Lamports)

	b, err := store.Get(addrB)
	require.Nil(t, err)
	assert.Equal(t, uint64(2), b.Lamports)
}
