// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package debug

type IncreaseTimeRequest struct {
	Seconds uint64 `json:"seconds"`
}

type TimeResult struct {
	Now uint64 `json:"now"`
}
