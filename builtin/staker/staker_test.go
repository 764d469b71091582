// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/builtin/staker/accrual"
	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
)

var (
	admin  = thor.BytesToAddress([]byte("admin"))
	holder = thor.BytesToAddress([]byte("holder"))
	other  = thor.BytesToAddress([]byte("other"))

	registryAddr = thor.BytesToAddress([]byte("Registry"))
	stakerAddr   = thor.BytesToAddress([]byte("NFTStaker"))

	flatReward = big.NewInt(1e15)
)

type fixture struct {
	st  *state.State
	reg *registry.Registry
	stk *Staker
}

func newFixture(t *testing.T, policy LockPolicy, strategy accrual.Strategy) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	reg := registry.New(registryAddr, st, nil)
	require.NoError(t, reg.Initialize(admin))

	stk := New(stakerAddr, st, reg, nil)
	require.NoError(t, stk.Initialize(Params{
		Owner:      admin,
		LockPeriod: 60,
		LockPolicy: policy,
		Strategy:   strategy,
	}))
	require.NoError(t, st.SetBalance(stakerAddr, big.NewInt(1e18)))
	return &fixture{st: st, reg: reg, stk: stk}
}

// mintAndApprove mints a token to holder and approves the ledger for it.
func (f *fixture) mintAndApprove(t *testing.T) registry.TokenID {
	id, err := f.reg.SafeMint(holder)
	require.NoError(t, err)
	require.NoError(t, f.reg.Approve(holder, stakerAddr, id))
	return id
}

func TestInitialize(t *testing.T) {
	f := newFixture(t, "", nil)

	owner, err := f.stk.Owner()
	require.NoError(t, err)
	assert.Equal(t, admin, owner)

	reg, err := f.stk.Registry()
	require.NoError(t, err)
	assert.Equal(t, registryAddr, reg)

	period, err := f.stk.LockPeriod()
	require.NoError(t, err)
	assert.Equal(t, uint64(60), period)

	policy, err := f.stk.LockPolicy()
	require.NoError(t, err)
	assert.Equal(t, LockPolicyLive, policy)

	strategy, err := f.stk.Strategy()
	require.NoError(t, err)
	assert.Equal(t, accrual.NameFlat, strategy.Name())
	assert.Equal(t, thor.FlatReward(), strategy.Amount())

	assert.ErrorIs(t, f.stk.Initialize(Params{}), reverts.ErrInvalidArgument)
	assert.ErrorIs(t, f.stk.Initialize(Params{Owner: admin, LockPolicy: "weekly"}), reverts.ErrInvalidArgument)
	assert.ErrorIs(t, f.stk.Initialize(Params{Owner: admin}), reverts.ErrInvalidArgument)
}

func TestSetLockTimePeriod(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)

	assert.ErrorIs(t, f.stk.SetLockTimePeriod(holder, 10), reverts.ErrUnauthorized)

	require.NoError(t, f.stk.SetLockTimePeriod(admin, 10))
	period, err := f.stk.LockPeriod()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), period)

	// a zero period would let a flat reward be farmed by stake/unstake loops
	assert.ErrorIs(t, f.stk.SetLockTimePeriod(admin, 0), reverts.ErrInvalidArgument)
	period, err = f.stk.LockPeriod()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), period)
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)

	assert.ErrorIs(t, f.stk.TransferOwnership(holder, holder), reverts.ErrUnauthorized)
	assert.ErrorIs(t, f.stk.TransferOwnership(admin, thor.Address{}), reverts.ErrInvalidArgument)

	require.NoError(t, f.stk.TransferOwnership(admin, other))
	owner, err := f.stk.Owner()
	require.NoError(t, err)
	assert.Equal(t, other, owner)
	assert.ErrorIs(t, f.stk.SetLockTimePeriod(admin, 1), reverts.ErrUnauthorized)
}

func TestFund(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)
	require.NoError(t, f.st.SetBalance(admin, big.NewInt(500)))

	require.NoError(t, f.stk.Fund(admin, big.NewInt(200)))
	bal, err := f.stk.Balance()
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(big.NewInt(1e18), big.NewInt(200)), bal)

	assert.ErrorIs(t, f.stk.Fund(admin, big.NewInt(301)), reverts.ErrInsufficientFunds)
	assert.ErrorIs(t, f.stk.Fund(admin, big.NewInt(0)), reverts.ErrInvalidArgument)
}

func TestStake(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)
	id := f.mintAndApprove(t)

	// unminted
	assert.ErrorIs(t, f.stk.Stake(holder, 7, 100), reverts.ErrNotFound)
	// not the owner
	assert.ErrorIs(t, f.stk.Stake(other, id, 100), reverts.ErrNotOwner)

	require.NoError(t, f.stk.Stake(holder, id, 100))

	owner, err := f.reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, stakerAddr, owner)

	st, err := f.stk.GetStake(id)
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, holder, st.Staker)
	assert.Equal(t, uint64(100), st.StakedAt)
	assert.Equal(t, uint64(60), st.LockPeriod)

	ids, err := f.stk.StakedTokens(holder)
	require.NoError(t, err)
	assert.Equal(t, []registry.TokenID{id}, ids)

	n, err := f.stk.ActiveStakes()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	// at most one active record per token
	assert.ErrorIs(t, f.stk.Stake(holder, id, 101), reverts.ErrAlreadyStaked)
}

func TestStakeWithoutApproval(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)
	id, err := f.reg.SafeMint(holder)
	require.NoError(t, err)

	assert.ErrorIs(t, f.stk.Stake(holder, id, 100), reverts.ErrUnauthorized)

	st, err := f.stk.GetStake(id)
	require.NoError(t, err)
	assert.False(t, st.Active)
}

func TestUnStake(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)
	id := f.mintAndApprove(t)

	assert.ErrorIs(t, f.stk.UnStake(holder, id, 100), reverts.ErrNotStaked)

	require.NoError(t, f.stk.Stake(holder, id, 100))

	err := f.stk.UnStake(holder, id, 159)
	assert.ErrorIs(t, err, reverts.ErrStillLocked)
	assert.Equal(t, "Stake is still in lock period", err.Error())

	st, err := f.stk.GetStake(id)
	require.NoError(t, err)
	assert.True(t, st.Active)

	assert.ErrorIs(t, f.stk.UnStake(other, id, 160), reverts.ErrUnauthorized)

	require.NoError(t, f.stk.UnStake(holder, id, 160))

	owner, err := f.reg.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, holder, owner)

	st, err = f.stk.GetStake(id)
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.Equal(t, flatReward, st.Settled)

	ids, err := f.stk.StakedTokens(holder)
	require.NoError(t, err)
	assert.Empty(t, ids)

	rewards, err := f.stk.ViewRewards(holder, 160)
	require.NoError(t, err)
	assert.Equal(t, flatReward, rewards)

	// re-enterable after approval
	require.NoError(t, f.reg.Approve(holder, stakerAddr, id))
	require.NoError(t, f.stk.Stake(holder, id, 200))
	st, err = f.stk.GetStake(id)
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, 0, st.Settled.Sign())
}

func TestLockPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   LockPolicy
		unlocked bool
	}{
		{"live follows the new period", LockPolicyLive, true},
		{"snapshot keeps the period at stake time", LockPolicySnapshot, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.policy, nil)
			id := f.mintAndApprove(t)
			require.NoError(t, f.stk.Stake(holder, id, 100))
			require.NoError(t, f.stk.SetLockTimePeriod(admin, 10))

			err := f.stk.UnStake(holder, id, 110)
			if tt.unlocked {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, reverts.ErrStillLocked)
			}
		})
	}
}

func TestLockPeriodSaturates(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)
	id := f.mintAndApprove(t)
	require.NoError(t, f.stk.Stake(holder, id, 100))
	require.NoError(t, f.stk.SetLockTimePeriod(admin, ^uint64(0)))

	assert.ErrorIs(t, f.stk.UnStake(holder, id, ^uint64(0)), reverts.ErrStillLocked)
}

func TestViewRewardsIsPure(t *testing.T) {
	f := newFixture(t, LockPolicyLive, accrual.NewLinearByDuration(big.NewInt(3)))
	id := f.mintAndApprove(t)
	require.NoError(t, f.stk.Stake(holder, id, 100))

	for range 3 {
		r, err := f.stk.ViewRewards(holder, 110)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(30), r)
	}
	st, err := f.stk.GetStake(id)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Settled.Sign())

	r, err := f.stk.ViewRewards(other, 110)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Sign())
}

func TestClaimRewards(t *testing.T) {
	f := newFixture(t, LockPolicyLive, accrual.NewLinearByDuration(big.NewInt(5)))
	id := f.mintAndApprove(t)
	require.NoError(t, f.stk.Stake(holder, id, 100))

	// claim while still staked settles the active record
	paid, err := f.stk.ClaimRewards(holder, 120)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), paid)

	bal, err := f.st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)

	// second immediate claim pays zero
	paid, err = f.stk.ClaimRewards(holder, 120)
	require.NoError(t, err)
	assert.Equal(t, 0, paid.Sign())

	require.NoError(t, f.stk.UnStake(holder, id, 200))
	paid, err = f.stk.ClaimRewards(holder, 200)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), paid)

	// unstaked tokens stop accruing
	r, err := f.stk.ViewRewards(holder, 10_000)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Sign())
}

func TestClaimRewardsInsufficientContractFunds(t *testing.T) {
	f := newFixture(t, LockPolicyLive, nil)
	require.NoError(t, f.st.SetBalance(stakerAddr, big.NewInt(1)))
	id := f.mintAndApprove(t)
	require.NoError(t, f.stk.Stake(holder, id, 100))

	_, err := f.stk.ClaimRewards(holder, 100)
	assert.ErrorIs(t, err, reverts.ErrInsufficientContractFunds)

	// a failed claim writes nothing
	st, err := f.stk.GetStake(id)
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, 0, st.Settled.Sign())

	rewards, err := f.stk.ViewRewards(holder, 100)
	require.NoError(t, err)
	assert.Equal(t, flatReward, rewards)

	bal, err := f.st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
	bal, err = f.stk.Balance()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), bal)

	// and the reward is still claimable once funded
	require.NoError(t, f.st.SetBalance(stakerAddr, big.NewInt(1e18)))
	paid, err := f.stk.ClaimRewards(holder, 100)
	require.NoError(t, err)
	assert.Equal(t, flatReward, paid)
}

func TestClaimRewardsLargeAmount(t *testing.T) {
	rate, _ := new(big.Int).SetString("1000000000000000000000000000000", 10)
	f := newFixture(t, LockPolicyLive, accrual.NewLinearByDuration(rate))
	funds := new(big.Int).Mul(rate, big.NewInt(1e6))
	require.NoError(t, f.st.SetBalance(stakerAddr, funds))
	id := f.mintAndApprove(t)
	require.NoError(t, f.stk.Stake(holder, id, 100))

	paid, err := f.stk.ClaimRewards(holder, 1100)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(rate, big.NewInt(1000)), paid)

	bal, err := f.st.GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, paid, bal)
}

func TestReferenceScenario(t *testing.T) {
	f := newFixture(t, LockPolicyLive, accrual.NewFlat(flatReward))
	now := uint64(1_700_000_000)

	for want := range 2 {
		id, err := f.reg.SafeMint(holder)
		require.NoError(t, err)
		assert.Equal(t, registry.TokenID(want), id)
	}
	supply, err := f.reg.CurrentSupply()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), supply)

	require.NoError(t, f.reg.Approve(holder, stakerAddr, 0))
	require.NoError(t, f.stk.Stake(holder, 0, now))

	err = f.stk.UnStake(holder, 0, now)
	assert.EqualError(t, err, "Stake is still in lock period")

	require.NoError(t, f.stk.SetLockTimePeriod(admin, 1_662_574_802))
	now += 1_762_574_802

	require.NoError(t, f.stk.UnStake(holder, 0, now))

	before, err := f.st.GetBalance(holder)
	require.NoError(t, err)
	_, err = f.stk.ClaimRewards(holder, now)
	require.NoError(t, err)
	after, err := f.st.GetBalance(holder)
	require.NoError(t, err)

	assert.Equal(t, flatReward, new(big.Int).Sub(after, before))
}
