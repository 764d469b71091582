// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

// Event event.
type Event struct {
	Address thor.Address   `json:"address"`
	Topics  []thor.Bytes32 `json:"topics"`
	Data    string         `json:"data"`
}

// Receipt for json marshal
type Receipt struct {
	TxID         thor.Bytes32 `json:"txID"`
	Origin       thor.Address `json:"origin"`
	To           thor.Address `json:"to"`
	Method       string       `json:"method"`
	BlockNumber  uint32       `json:"blockNumber"`
	BlockTime    uint64       `json:"blockTime"`
	Reverted     bool         `json:"reverted"`
	RevertReason string       `json:"revertReason,omitempty"`
	Output       string       `json:"output"`
	Events       []*Event     `json:"events"`
}

// ConvertReceipt convert a raw receipt into a json format receipt
func ConvertReceipt(r *tx.Receipt) *Receipt {
	receipt := &Receipt{
		TxID:         r.TxID,
		Origin:       r.Origin,
		To:           r.To,
		Method:       r.Method,
		BlockNumber:  r.BlockNumber,
		BlockTime:    r.BlockTime,
		Reverted:     r.Reverted,
		RevertReason: r.RevertReason,
		Output:       hexutil.Encode(r.Output),
		Events:       make([]*Event, len(r.Events)),
	}
	for i, e := range r.Events {
		receipt.Events[i] = &Event{
			Address: e.Address,
			Topics:  e.Topics,
			Data:    hexutil.Encode(e.Data),
		}
	}
	return receipt
}
