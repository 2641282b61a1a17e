// Copyright (c) 2025 The MagicBlock developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seqlock

import "github.com/magicblock-labs/solana-upgrade-v3/metrics"

var (
	metricReadRetries   = metrics.LazyLoadCounter("seqlock_read_retry_count")
	metricReadConflicts = metrics.LazyLoadCounter("seqlock_read_conflict_count")
)
