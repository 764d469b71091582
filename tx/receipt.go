// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/nftstaker/nftstaker/thor"
)

// Receipt represents the results of a call executed by the ledger host.
type Receipt struct {
	TxID        thor.Bytes32
	Origin      thor.Address
	To          thor.Address
	Method      string
	BlockNumber uint32
	BlockTime   uint64
	// set when the call reverted, its state changes discarded
	Reverted     bool
	RevertReason string
	Output       []byte
	Events       Events
}

// NewID derives a call id from its origin, the block it executes in and its index within that block.
func NewID(origin thor.Address, blockNumber uint32, index uint64) thor.Bytes32 {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:], blockNumber)
	binary.BigEndian.PutUint64(b[4:], index)
	return thor.Blake2b(origin.Bytes(), b[:])
}

// EncodeReceipt rlp encodes r for storage.
func EncodeReceipt(r *Receipt) ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// DecodeReceipt decodes a receipt encoded by EncodeReceipt.
func DecodeReceipt(data []byte) (*Receipt, error) {
	var r Receipt
	if err := rlp.DecodeBytes(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
