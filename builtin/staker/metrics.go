// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/nftstaker/nftstaker/metrics"

var (
	metricActiveStakes = metrics.LazyLoadGauge("staker_active_stakes")
	metricOperations   = metrics.LazyLoadCounterVec("staker_operations_count", []string{"op", "status"})
	metricRewardsPaid  = metrics.LazyLoadCounter("staker_rewards_paid_gwei")
)

func countOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "status": status})
}
