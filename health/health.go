// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

type CallIngestion struct {
	BlockNumber       uint32        `json:"blockNumber"`
	LastTxID          *thor.Bytes32 `json:"lastTxID"`
	LastCallTimestamp *time.Time    `json:"lastCallTimestamp"`
	Reverted          uint64        `json:"reverted"`
}

type Status struct {
	Healthy bool           `json:"healthy"`
	Ready   bool           `json:"ready"`
	Storage string         `json:"storage"`
	Calls   *CallIngestion `json:"calls"`
}

// Health follows the committed calls of the ledger. It is a receipt writer of the runtime.
type Health struct {
	lock        sync.RWMutex
	probe       func() error
	ready       bool
	lastCall    time.Time
	lastTxID    *thor.Bytes32
	blockNumber uint32
	reverted    uint64
}

// New creates a Health. probe checks the storage is reachable, nil skips the check.
func New(probe func() error) *Health {
	return &Health{probe: probe}
}

func (h *Health) WriteReceipt(receipt *tx.Receipt) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastCall = time.Now()
	id := receipt.TxID
	h.lastTxID = &id
	h.blockNumber = receipt.BlockNumber
	if receipt.Reverted {
		h.reverted++
	}
	return nil
}

// Ready marks whether the node is serving requests.
func (h *Health) Ready(ready bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.ready = ready
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	calls := &CallIngestion{
		BlockNumber: h.blockNumber,
		LastTxID:    h.lastTxID,
		Reverted:    h.reverted,
	}
	if !h.lastCall.IsZero() {
		lastCall := h.lastCall
		calls.LastCallTimestamp = &lastCall
	}

	storage := "ok"
	if h.probe != nil {
		if err := h.probe(); err != nil {
			storage = err.Error()
		}
	}

	return &Status{
		Healthy: h.ready && storage == "ok",
		Ready:   h.ready,
		Storage: storage,
		Calls:   calls,
	}
}
