// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/builtin/staker"
	"github.com/nftstaker/nftstaker/builtin/staker/accrual"
	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
	"github.com/nftstaker/nftstaker/xenv"
)

var (
	deployer = thor.BytesToAddress([]byte("deployer"))
	holder   = thor.BytesToAddress([]byte("holder"))
)

type receiptRecorder struct {
	receipts []*tx.Receipt
}

func (r *receiptRecorder) WriteReceipt(receipt *tx.Receipt) error {
	r.receipts = append(r.receipts, receipt)
	return nil
}

func newRuntime(t *testing.T, clock xenv.Clock) (*Runtime, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	require.NoError(t, builtin.Registry.WithState(st).Initialize(deployer))
	require.NoError(t, builtin.Staker.WithState(st).Initialize(staker.Params{
		Owner:      deployer,
		LockPeriod: 60,
		Strategy:   accrual.NewFlat(big.NewInt(1e15)),
	}))
	require.NoError(t, st.SetBalance(deployer, new(big.Int).Mul(big.NewInt(10), thor.Ether)))
	require.NoError(t, st.Commit())

	rt, err := New(st, db, clock)
	require.NoError(t, err)
	return rt, st
}

func encode(t *testing.T, to thor.Address, name string, args ...any) *Clause {
	var c = builtin.Registry.ABI
	if to == builtin.Staker.Address {
		c = builtin.Staker.ABI
	}
	method, ok := c.MethodByName(name)
	require.True(t, ok, name)
	data, err := method.EncodeInput(args...)
	require.NoError(t, err)
	return &Clause{To: to, Data: data}
}

func TestExecRevertsOnError(t *testing.T) {
	rt, st := newRuntime(t, xenv.NewManualClock(1000))
	rec := &receiptRecorder{}
	rt.AddReceiptWriter(rec)

	receipt, err := rt.Exec(holder, builtin.Staker.Address, "partial", func(env *xenv.Environment) error {
		require.NoError(t, env.State().SetBalance(holder, big.NewInt(1)))
		return reverts.ErrUnauthorized
	})
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Reverted)
	assert.Equal(t, "Unauthorized", receipt.RevertReason)
	assert.Equal(t, uint32(1), receipt.BlockNumber)
	assert.Equal(t, uint64(1000), receipt.BlockTime)

	bal, err := st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())

	stored, err := rt.GetReceipt(receipt.TxID)
	require.NoError(t, err)
	assert.True(t, stored.Reverted)
	assert.Len(t, rec.receipts, 1)

	_, err = rt.GetReceipt(thor.Bytes32{})
	assert.True(t, rt.IsNotFound(err))
}

func TestExecInfrastructureError(t *testing.T) {
	rt, _ := newRuntime(t, xenv.NewManualClock(1000))

	receipt, err := rt.Exec(holder, builtin.Staker.Address, "broken", func(env *xenv.Environment) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, receipt)
	assert.Equal(t, uint32(0), rt.BlockNumber())
}

func TestViewDiscardsChanges(t *testing.T) {
	rt, st := newRuntime(t, xenv.NewManualClock(1000))

	err := rt.View(holder, func(env *xenv.Environment) error {
		assert.Equal(t, uint64(1000), env.Now())
		return env.State().SetBalance(holder, big.NewInt(5))
	})
	require.NoError(t, err)

	bal, err := st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
	assert.Equal(t, uint32(0), rt.BlockNumber())
}

func TestPlainTransfer(t *testing.T) {
	rt, st := newRuntime(t, xenv.NewManualClock(1000))

	_, err := rt.ExecuteClause(deployer, &Clause{To: holder, Value: big.NewInt(7)})
	require.NoError(t, err)
	bal, err := st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bal)

	_, err = rt.ExecuteClause(holder, &Clause{To: deployer, Value: big.NewInt(8)})
	assert.ErrorIs(t, err, reverts.ErrInsufficientFunds)

	_, err = rt.ExecuteClause(holder, &Clause{To: deployer, Data: []byte{1, 2, 3, 4}})
	assert.ErrorIs(t, err, reverts.ErrInvalidArgument)
}

func TestBlockNumberSurvivesRestart(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := state.New(db)
	rt, err := New(st, db, xenv.NewManualClock(1))
	require.NoError(t, err)
	for range 3 {
		_, err := rt.Exec(holder, holder, "noop", func(*xenv.Environment) error { return nil })
		require.NoError(t, err)
	}

	rt, err = New(st, db, xenv.NewManualClock(1))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), rt.BlockNumber())
}

func TestReferenceScenario(t *testing.T) {
	clock := xenv.NewManualClock(1_700_000_000)
	rt, st := newRuntime(t, clock)
	rec := &receiptRecorder{}
	rt.AddReceiptWriter(rec)

	supply := func() *big.Int {
		out, err := rt.InspectClause(holder, encode(t, builtin.Registry.Address, "currentSupply"))
		require.NoError(t, err)
		return new(big.Int).SetBytes(out)
	}

	// fund the ledger from the deployer
	fund := encode(t, builtin.Staker.Address, "fund")
	fund.Value = thor.Ether
	_, err := rt.ExecuteClause(deployer, fund)
	require.NoError(t, err)

	assert.Equal(t, int64(0), supply().Int64())
	for want := range 2 {
		_, err := rt.ExecuteClause(holder, encode(t, builtin.Registry.Address, "safeMint"))
		require.NoError(t, err)
		assert.Equal(t, int64(want+1), supply().Int64())
	}

	_, err = rt.ExecuteClause(holder, encode(t, builtin.Registry.Address, "approve", common.Address(builtin.Staker.Address), big.NewInt(0)))
	require.NoError(t, err)
	_, err = rt.ExecuteClause(holder, encode(t, builtin.Staker.Address, "stake", big.NewInt(0)))
	require.NoError(t, err)

	receipt, err := rt.ExecuteClause(holder, encode(t, builtin.Staker.Address, "unStake", big.NewInt(0)))
	assert.EqualError(t, err, "Stake is still in lock period")
	assert.True(t, receipt.Reverted)
	assert.Empty(t, receipt.Events)

	_, err = rt.ExecuteClause(deployer, encode(t, builtin.Staker.Address, "setLockTimePeriod", uint64(1_662_574_802)))
	require.NoError(t, err)
	clock.IncreaseTime(1_762_574_802)

	receipt, err = rt.ExecuteClause(holder, encode(t, builtin.Staker.Address, "unStake", big.NewInt(0)))
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)

	before, err := st.GetBalance(holder)
	require.NoError(t, err)
	receipt, err = rt.ExecuteClause(holder, encode(t, builtin.Staker.Address, "claimRewards"))
	require.NoError(t, err)
	after, err := st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), new(big.Int).Sub(after, before))
	assert.Equal(t, big.NewInt(1e15), new(big.Int).SetBytes(receipt.Output))

	// a second claim pays zero
	receipt, err = rt.ExecuteClause(holder, encode(t, builtin.Staker.Address, "claimRewards"))
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).SetBytes(receipt.Output).Sign())
	assert.Empty(t, receipt.Events)

	assert.Equal(t, rt.BlockNumber(), rec.receipts[len(rec.receipts)-1].BlockNumber)
}

func TestFailedClaimKeepsRewards(t *testing.T) {
	clock := xenv.NewManualClock(1000)
	rt, st := newRuntime(t, clock)

	_, err := rt.ExecuteClause(holder, encode(t, builtin.Registry.Address, "safeMint"))
	require.NoError(t, err)
	_, err = rt.ExecuteClause(holder, encode(t, builtin.Registry.Address, "approve", common.Address(builtin.Staker.Address), big.NewInt(0)))
	require.NoError(t, err)
	_, err = rt.ExecuteClause(holder, encode(t, builtin.Staker.Address, "stake", big.NewInt(0)))
	require.NoError(t, err)

	// the ledger holds no funds
	receipt, err := rt.ExecuteClause(holder, encode(t, builtin.Staker.Address, "claimRewards"))
	assert.ErrorIs(t, err, reverts.ErrInsufficientContractFunds)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Reverted)

	ledger := builtin.Staker.WithState(st)
	rec, err := ledger.GetStake(0)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Settled.Sign())

	rewards, err := ledger.ViewRewards(holder, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), rewards)

	bal, err := st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
	bal, err = st.GetBalance(builtin.Staker.Address)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
}

func TestValueToNonPayableMethodReverts(t *testing.T) {
	rt, st := newRuntime(t, xenv.NewManualClock(1000))

	c := encode(t, builtin.Staker.Address, "lockPeriod")
	c.Value = big.NewInt(1)
	receipt, err := rt.ExecuteClause(deployer, c)
	assert.ErrorIs(t, err, reverts.ErrInvalidArgument)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Reverted)
	assert.Equal(t, uint32(1), rt.BlockNumber())

	bal, err := st.GetBalance(builtin.Staker.Address)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
}
