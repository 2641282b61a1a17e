// Copyright (c) 2025 The MagicBlock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/magicblock-labs/solana-upgrade-v3/metrics"

var metricCellCount = metrics.LazyLoadGaugeVec("account_cell_count", []string{"type"})
