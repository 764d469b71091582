// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/logdb"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

var (
	registry = thor.BytesToAddress([]byte("Registry"))
	ledger   = thor.BytesToAddress([]byte("NFTStaker"))
	origin   = thor.BytesToAddress([]byte("origin"))

	topicTransfer = thor.Keccak256([]byte("Transfer(address,address,uint256)"))
	topicStaked   = thor.Keccak256([]byte("Staked(address,uint256,uint64)"))
)

func newReceipt(number uint32, events ...*tx.Event) *tx.Receipt {
	return &tx.Receipt{
		TxID:        tx.NewID(origin, number, 0),
		Origin:      origin,
		BlockNumber: number,
		BlockTime:   1000 + uint64(number)*10,
		Events:      events,
	}
}

func seed(t *testing.T, db *logdb.LogDB) {
	for n := uint32(1); n <= 10; n++ {
		require.NoError(t, db.WriteReceipt(newReceipt(n,
			&tx.Event{Address: registry, Topics: []thor.Bytes32{topicTransfer, thor.Uint64ToBytes32(uint64(n))}, Data: []byte{byte(n)}},
			&tx.Event{Address: ledger, Topics: []thor.Bytes32{topicStaked}},
		)))
	}
}

func TestFilterEvents(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)

	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 20)
	assert.Equal(t, uint32(1), all[0].BlockNumber)
	assert.Equal(t, uint32(0), all[0].Index)
	assert.Equal(t, uint32(1), all[1].Index)
	assert.Equal(t, origin, all[0].TxOrigin)
	assert.Nil(t, all[1].Topics[1])

	tests := []struct {
		name   string
		filter *logdb.EventFilter
		want   int
	}{
		{"by address", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Address: &ledger}}}, 10},
		{"by topic", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Topics: [5]*thor.Bytes32{nil, ptr(thor.Uint64ToBytes32(3))}}}}, 1},
		{"criteria are or-ed", &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{
			{Topics: [5]*thor.Bytes32{nil, ptr(thor.Uint64ToBytes32(3))}},
			{Topics: [5]*thor.Bytes32{nil, ptr(thor.Uint64ToBytes32(4))}},
		}}, 2},
		{"block range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Block, From: 2, To: 4}}, 6},
		{"time range", &logdb.EventFilter{Range: &logdb.Range{Unit: logdb.Time, From: 1095, To: 1100}}, 2},
		{"range with criteria", &logdb.EventFilter{
			Range:       &logdb.Range{Unit: logdb.Block, From: 2, To: 4},
			CriteriaSet: []*logdb.EventCriteria{{Address: &registry}},
		}, 3},
		{"paged", &logdb.EventFilter{Options: &logdb.Options{Offset: 18, Limit: 5}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}

	desc, err := db.FilterEvents(ctx, &logdb.EventFilter{Order: logdb.DESC, Options: &logdb.Options{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, desc, 1)
	assert.Equal(t, uint32(10), desc[0].BlockNumber)
	assert.Equal(t, ledger, desc[0].Address)
}

func TestRevertedReceiptIsSkipped(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	r := newReceipt(1, &tx.Event{Address: ledger, Topics: []thor.Bytes32{topicStaked}})
	r.Reverted = true
	require.NoError(t, db.WriteReceipt(r))

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPersistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")

	db, err := logdb.New(path)
	require.NoError(t, err)
	seed(t, db)
	require.NoError(t, db.Close())

	db, err = logdb.New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, events, 20)
}

func ptr[T any](v T) *T { return &v }
