// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsdb

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

var _ Store = (*LevelStore)(nil)

// Options options for creating a level db backed store.
type Options struct {
	CacheSize              int
	OpenFilesCacheCapacity int
}

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
)

// LevelStore persists account snapshots in a level db instance.
type LevelStore struct {
	db *leveldb.DB
}

// New creates a persistent store at path.
// Creates an empty one if not exists, or opens if already there.
func New(path string, opts Options) (*LevelStore, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "new persistent accounts db")
	}
	return openLevelDB(stg, opts.CacheSize, opts.OpenFilesCacheCapacity)
}

// NewMem creates a store in memory.
func NewMem() (*LevelStore, error) {
	return openLevelDB(storage.NewMemStorage(), 0, 0)
}

func openLevelDB(stg storage.Storage, cacheSize, openFilesCacheCapacity int) (*LevelStore, error) {
	if cacheSize < 16 {
		cacheSize = 16
	}
	if openFilesCacheCapacity < 16 {
		openFilesCacheCapacity = 16
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFilesCacheCapacity,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open accounts db")
	}
	return &LevelStore{db: db}, nil
}

// Put writes the batch in one level db write, which is atomic.
// Empty accounts are deleted rather than stored.
func (s *LevelStore) Put(b Batch) error {
	batch := new(leveldb.Batch)
	for i := range b.Entries {
		entry := &b.Entries[i]
		if entry.Acc.IsEmpty() {
			batch.Delete(entry.Addr.Bytes())
			continue
		}
		data, err := rlp.EncodeToBytes(&entry.Acc)
		if err != nil {
			return errors.Wrap(err, "encode account")
		}
		batch.Put(entry.Addr.Bytes(), data)
	}
	if err := s.db.Write(batch, &writeOpt); err != nil {
		return errors.Wrap(err, "write batch")
	}
	metricPersistedAccounts().Add(int64(len(b.Entries)))
	return nil
}

// Get retrieves the stored account at addr.
func (s *LevelStore) Get(addr solana.Address) (*account.Account, error) {
	data, err := s.db.Get(addr.Bytes(), &readOpt)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get account")
	}
	var acc account.Account
	if err := rlp.DecodeBytes(data, &acc); err != nil {
		return nil, errors.Wrap(err, "decode account")
	}
	return &acc, nil
}

// Close closes the underlying db.
func (s *LevelStore) Close() error {
	return s.db.Close()
}
