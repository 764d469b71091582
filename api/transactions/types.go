// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/thor"
)

// Transaction is a single clause sent by an unlocked dev account.
type Transaction struct {
	Origin thor.Address `json:"origin"`
	Clause types.Clause `json:"clause"`
}

// SendTxResult is the id of an executed transaction.
type SendTxResult struct {
	ID thor.Bytes32 `json:"id"`
}
