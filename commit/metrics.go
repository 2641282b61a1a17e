// Copyright (c) 2025 The MagicBlock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package commit

import "github.com/magicblock-labs/solana-upgrade-v3/metrics"

var (
	metricCommitCount     = metrics.LazyLoadCounterVec("commit_count", []string{"kind"})
	metricCommitRejected  = metrics.LazyLoadCounter("commit_rejected_count")
	metricPersistSetSizes = metrics.LazyLoadHistogram("persist_set_size", []int64{0, 1, 2, 4, 8, 16, 32, 64})
)
