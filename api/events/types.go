// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	hexmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/nftstaker/nftstaker/abi"
	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/logdb"
	"github.com/nftstaker/nftstaker/thor"
)

type LogMeta struct {
	BlockNumber uint32       `json:"blockNumber"`
	BlockTime   uint64       `json:"blockTime"`
	TxID        thor.Bytes32 `json:"txID"`
	TxOrigin    thor.Address `json:"txOrigin"`
	EventIndex  uint32       `json:"eventIndex"`
}

// FilteredEvent is a persisted event, decoded when it was emitted by a builtin contract.
type FilteredEvent struct {
	Address thor.Address    `json:"address"`
	Topics  []*thor.Bytes32 `json:"topics"`
	Data    string          `json:"data"`
	Name    string          `json:"name,omitempty"`
	Decoded map[string]any  `json:"decoded,omitempty"`
	Meta    LogMeta         `json:"meta"`
}

type TopicSet struct {
	Topic0 *thor.Bytes32 `json:"topic0"`
	Topic1 *thor.Bytes32 `json:"topic1"`
	Topic2 *thor.Bytes32 `json:"topic2"`
	Topic3 *thor.Bytes32 `json:"topic3"`
	Topic4 *thor.Bytes32 `json:"topic4"`
}

type EventCriteria struct {
	Address *thor.Address `json:"address"`
	TopicSet
}

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From *uint64         `json:"from,omitempty"`
	To   *uint64         `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

// convertEventFilter maps the json filter onto the log db filter. Open range ends are clamped
// to what sqlite can bind.
func convertEventFilter(filter *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{
		Order: filter.Order,
	}
	if filter.Options != nil {
		f.Options = &logdb.Options{
			Offset: filter.Options.Offset,
			Limit:  filter.Options.Limit,
		}
	}
	if filter.Range != nil {
		r := &logdb.Range{Unit: filter.Range.Unit, To: math.MaxInt64}
		if r.Unit == "" {
			r.Unit = logdb.Block
		}
		if filter.Range.From != nil {
			r.From = *filter.Range.From
		}
		if filter.Range.To != nil {
			r.To = *filter.Range.To
		}
		f.Range = r
	}
	for _, c := range filter.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Address: c.Address,
			Topics:  [5]*thor.Bytes32{c.Topic0, c.Topic1, c.Topic2, c.Topic3, c.Topic4},
		})
	}
	return f
}

func convertEvent(event *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Address: event.Address,
		Data:    hexutil.Encode(event.Data),
		Meta: LogMeta{
			BlockNumber: event.BlockNumber,
			BlockTime:   event.BlockTime,
			TxID:        event.TxID,
			TxOrigin:    event.TxOrigin,
			EventIndex:  event.Index,
		},
	}
	var topics []thor.Bytes32
	for _, topic := range event.Topics {
		if topic != nil {
			fe.Topics = append(fe.Topics, topic)
			topics = append(topics, *topic)
		}
	}
	fe.Name, fe.Decoded = DecodeEvent(event.Address, topics, event.Data)
	return fe
}

// DecodeEvent decodes an event of the builtin contracts into its named arguments.
// Events it does not know yield nothing.
func DecodeEvent(addr thor.Address, topics []thor.Bytes32, data []byte) (string, map[string]any) {
	if len(topics) == 0 {
		return "", nil
	}
	var contract *abi.ABI
	switch addr {
	case builtin.Registry.Address:
		contract = builtin.Registry.ABI
	case builtin.Staker.Address:
		contract = builtin.Staker.ABI
	default:
		return "", nil
	}
	ev, ok := contract.EventByID(topics[0])
	if !ok {
		return "", nil
	}
	args, err := ev.DecodeToMap(topics, data)
	if err != nil {
		logger.Debug("failed to decode event", "address", addr, "event", ev.Name(), "err", err)
		return ev.Name(), nil
	}
	for k, v := range args {
		if n, ok := v.(*big.Int); ok {
			args[k] = (*hexmath.HexOrDecimal256)(n)
		}
	}
	return ev.Name(), args
}
