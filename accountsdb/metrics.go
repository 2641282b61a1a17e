// Copyright (c) 2025 The MagicBlock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountsdb

import "github.com/magicblock-labs/solana-upgrade-v3/metrics"

var (
	metricPersistedAccounts = metrics.LazyLoadCounter("persisted_account_count")
	metricEvictionRejected  = metrics.LazyLoadCounter("eviction_rejected_count")
	metricCachedSnapshots   = metrics.LazyLoadGauge("cached_snapshot_count")
)
