// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/nftstaker/nftstaker/thor"
)

// Account for marshal account
type Account struct {
	Balance   math.HexOrDecimal256 `json:"balance"`
	IsBuiltin bool                 `json:"isBuiltin"`
}

// CallData represents contract-call body
type CallData struct {
	Value  *math.HexOrDecimal256 `json:"value"`
	Data   string                `json:"data"`
	Caller *thor.Address         `json:"caller"`
}

// CallResult is the outcome of a simulated call.
type CallResult struct {
	Data         string `json:"data"`
	Reverted     bool   `json:"reverted"`
	RevertReason string `json:"revertReason"`
}
