// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/nftstaker/nftstaker/api/events"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

type LogMeta struct {
	BlockNumber uint32       `json:"blockNumber"`
	BlockTime   uint64       `json:"blockTime"`
	TxID        thor.Bytes32 `json:"txID"`
	TxOrigin    thor.Address `json:"txOrigin"`
	EventIndex  uint32       `json:"eventIndex"`
}

// SubscriptionEvent is pushed to event subscribers as soon as the call emitting it is committed.
type SubscriptionEvent struct {
	Address thor.Address   `json:"address"`
	Topics  []thor.Bytes32 `json:"topics"`
	Data    string         `json:"data"`
	Name    string         `json:"name,omitempty"`
	Decoded map[string]any `json:"decoded,omitempty"`
	Meta    LogMeta        `json:"meta"`
}

func convertEvent(receipt *tx.Receipt, index uint32, event *tx.Event) *SubscriptionEvent {
	se := &SubscriptionEvent{
		Address: event.Address,
		Topics:  event.Topics,
		Data:    hexutil.Encode(event.Data),
		Meta: LogMeta{
			BlockNumber: receipt.BlockNumber,
			BlockTime:   receipt.BlockTime,
			TxID:        receipt.TxID,
			TxOrigin:    receipt.Origin,
			EventIndex:  index,
		},
	}
	se.Name, se.Decoded = events.DecodeEvent(event.Address, event.Topics, event.Data)
	return se
}

// EventFilter selects events by emitter and topics. Nil fields match anything.
type EventFilter struct {
	Address *thor.Address
	Topic0  *thor.Bytes32
	Topic1  *thor.Bytes32
	Topic2  *thor.Bytes32
	Topic3  *thor.Bytes32
	Topic4  *thor.Bytes32
}

// Match returns whether event is selected by the filter.
func (ef *EventFilter) Match(event *tx.Event) bool {
	if ef.Address != nil && *ef.Address != event.Address {
		return false
	}

	matchTopic := func(topic *thor.Bytes32, index int) bool {
		if topic != nil {
			if len(event.Topics) <= index {
				return false
			}
			if *topic != event.Topics[index] {
				return false
			}
		}
		return true
	}

	return matchTopic(ef.Topic0, 0) &&
		matchTopic(ef.Topic1, 1) &&
		matchTopic(ef.Topic2, 2) &&
		matchTopic(ef.Topic3, 3) &&
		matchTopic(ef.Topic4, 4)
}
