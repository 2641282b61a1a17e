// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accountsdb implements the storage/notification collaborator that
// consumes persisted account snapshots from the commit path.
package accountsdb

import (
	"github.com/pkg/errors"

	"github.com/magicblock-labs/solana-upgrade-v3/account"
	"github.com/magicblock-labs/solana-upgrade-v3/log"
	"github.com/magicblock-labs/solana-upgrade-v3/solana"
)

var logger = log.WithContext("pkg", "accountsdb")

// ErrNotFound is returned by Get when no account is stored at the address.
var ErrNotFound = errors.New("account not found")

// IsNotFound reports whether err indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// Entry is one persisted (address, account-state) pair.
type Entry struct {
	Addr solana.Address
	Acc  account.Account
}

// Batch is the unit of persistence emitted by the commit path. The write is
// atomic: either every entry lands or none does.
type Batch struct {
	Entries []Entry

	// Replay marks batches re-emitted while catching up rather than newly
	// processed.
	Replay bool

	// PrivilegedBypass marks batches whose accounts skipped dirty filtering
	// due to privilege.
	PrivilegedBypass bool
}

// Store persists account snapshots.
type Store interface {
	// Put writes the batch atomically. It is not retried by the caller on
	// failure; the error surfaces to whoever drove the commit.
	Put(b Batch) error

	// Get retrieves the stored account at addr. The error can be checked
	// via IsNotFound.
	Get(addr solana.Address) (*account.Account, error)

	Close() error
}
