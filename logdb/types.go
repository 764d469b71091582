// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

// Event represents tx.Event that can be stored in db.
type Event struct {
	BlockNumber uint32
	Index       uint32
	BlockTime   uint64
	TxID        thor.Bytes32
	TxOrigin    thor.Address // contract caller
	Address     thor.Address // always a contract address
	Topics      [5]*thor.Bytes32
	Data        []byte
}

// newEvent converts tx.Event to Event.
func newEvent(receipt *tx.Receipt, index uint32, txEvent *tx.Event) *Event {
	ev := &Event{
		BlockNumber: receipt.BlockNumber,
		Index:       index,
		BlockTime:   receipt.BlockTime,
		TxID:        receipt.TxID,
		TxOrigin:    receipt.Origin,
		Address:     txEvent.Address,
		Data:        txEvent.Data,
	}
	for i := 0; i < len(txEvent.Topics) && i < len(ev.Topics); i++ {
		topic := txEvent.Topics[i]
		ev.Topics[i] = &topic
	}
	return ev
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type EventCriteria struct {
	Address *thor.Address // always a contract address
	Topics  [5]*thor.Bytes32
}

// EventFilter filter
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
