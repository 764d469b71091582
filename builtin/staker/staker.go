// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/builtin/solidity"
	"github.com/nftstaker/nftstaker/builtin/staker/accrual"
	"github.com/nftstaker/nftstaker/builtin/staker/stakes"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
)

var logger = log.WithContext("pkg", "staker")

func SetLogger(l log.Logger) {
	logger = l
}

// Staker implements native methods of the `NFTStaker` contract.
// Every method taking now reads the ledger clock once at call time.
type Staker struct {
	addr     thor.Address
	registry TokenRegistry
	treasury Treasury
	events   Events

	storage      *storage
	stakeService *stakes.Service
}

// New create a new instance. A nil events receiver discards logs.
func New(addr thor.Address, st *state.State, reg TokenRegistry, events Events) *Staker {
	if events == nil {
		events = noopEvents{}
	}
	sctx := solidity.NewContext(addr, st)
	return &Staker{
		addr:         addr,
		registry:     reg,
		treasury:     st,
		events:       events,
		storage:      newStorage(sctx),
		stakeService: stakes.New(sctx),
	}
}

// Initialize stores the deployment parameters. It runs once at deployment.
func (s *Staker) Initialize(p Params) error {
	if p.Owner.IsZero() {
		return reverts.ErrInvalidArgument.Withf("zero owner")
	}
	if p.LockPolicy == "" {
		p.LockPolicy = LockPolicyLive
	}
	if !p.LockPolicy.Valid() {
		return reverts.ErrInvalidArgument.Withf("unknown lock policy %q", p.LockPolicy)
	}
	if p.LockPeriod == 0 {
		return reverts.ErrInvalidArgument.Withf("zero lock period")
	}
	if p.Strategy == nil {
		p.Strategy = accrual.NewFlat(thor.FlatReward())
	}

	s.storage.owner.Set(p.Owner)
	s.storage.registry.Set(s.registry.Address())
	if err := s.storage.lockPeriod.Upsert(p.LockPeriod); err != nil {
		return errors.Wrap(err, "failed to set lock period")
	}
	if err := s.storage.lockPolicy.Upsert(string(p.LockPolicy)); err != nil {
		return errors.Wrap(err, "failed to set lock policy")
	}
	if err := s.storage.setStrategy(p.Strategy); err != nil {
		return err
	}

	logger.Info("initialized", "owner", p.Owner, "lockPeriod", p.LockPeriod, "policy", p.LockPolicy, "strategy", p.Strategy.Name())
	return nil
}

//
// Getters - no state change
//

func (s *Staker) Address() thor.Address {
	return s.addr
}

func (s *Staker) Owner() (thor.Address, error) {
	return s.storage.owner.Get()
}

// Registry returns the address of the token registry recorded at deployment.
func (s *Staker) Registry() (thor.Address, error) {
	return s.storage.registry.Get()
}

func (s *Staker) LockPeriod() (uint64, error) {
	return s.storage.lockPeriod.Get()
}

func (s *Staker) LockPolicy() (LockPolicy, error) {
	return s.storage.getPolicy()
}

func (s *Staker) Strategy() (accrual.Strategy, error) {
	return s.storage.getStrategy()
}

// Balance returns the native currency held by the ledger to pay rewards.
func (s *Staker) Balance() (*big.Int, error) {
	return s.treasury.GetBalance(s.addr)
}

// GetStake returns the custody record of a token, inactive if it is not staked.
func (s *Staker) GetStake(id registry.TokenID) (*Stake, error) {
	return s.stakeService.Get(id)
}

// StakedTokens returns the ids currently staked by addr.
func (s *Staker) StakedTokens(addr thor.Address) ([]registry.TokenID, error) {
	return s.stakeService.TokensOf(addr)
}

// ActiveStakes returns how many tokens the ledger holds in custody.
func (s *Staker) ActiveStakes() (uint64, error) {
	return s.stakeService.ActiveCount()
}

// ViewRewards returns the claimable reward of addr at now: its balance plus what its active stakes have accrued.
func (s *Staker) ViewRewards(addr thor.Address, now uint64) (*big.Int, error) {
	total, err := s.storage.getReward(addr)
	if err != nil {
		return nil, err
	}
	strategy, err := s.storage.getStrategy()
	if err != nil {
		return nil, err
	}
	ids, err := s.stakeService.TokensOf(addr)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		st, err := s.stakeService.Get(id)
		if err != nil {
			return nil, err
		}
		total.Add(total, pending(strategy, st, now))
	}
	return total, nil
}

//
// Setters - state change
//

// SetLockTimePeriod replaces the global lock period. Owner only.
func (s *Staker) SetLockTimePeriod(caller thor.Address, seconds uint64) (err error) {
	logger.Debug("setting lock period", "caller", caller, "seconds", seconds)
	defer func() { countOp("setLockTimePeriod", err) }()

	if err := s.onlyOwner(caller); err != nil {
		logger.Info("set lock period failed", "caller", caller, "error", err)
		return err
	}
	if seconds == 0 {
		return reverts.ErrInvalidArgument.Withf("zero lock period")
	}
	previous, err := s.storage.lockPeriod.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get lock period")
	}
	if err := s.storage.lockPeriod.Upsert(seconds); err != nil {
		return errors.Wrap(err, "failed to set lock period")
	}

	s.events.LockPeriodChanged(previous, seconds)
	logger.Info("lock period changed", "previous", previous, "current", seconds)
	return nil
}

// TransferOwnership hands the administrator role to newOwner. Owner only.
func (s *Staker) TransferOwnership(caller, newOwner thor.Address) (err error) {
	defer func() { countOp("transferOwnership", err) }()

	if err := s.onlyOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return reverts.ErrInvalidArgument.Withf("new owner is the zero address")
	}
	s.storage.owner.Set(newOwner)
	s.events.OwnershipTransferred(caller, newOwner)
	logger.Info("ownership transferred", "previous", caller, "current", newOwner)
	return nil
}

// Fund moves amount of native currency from funder into the ledger.
func (s *Staker) Fund(funder thor.Address, amount *big.Int) (err error) {
	defer func() { countOp("fund", err) }()

	if amount == nil || amount.Sign() <= 0 {
		return reverts.ErrInvalidArgument.Withf("funding amount must be positive")
	}
	if err := s.treasury.Transfer(funder, s.addr, amount); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return reverts.ErrInsufficientFunds.Withf("funder %v", funder)
		}
		return errors.Wrap(err, "failed to fund")
	}
	s.events.Funded(funder, amount)
	logger.Info("funded", "funder", funder, "amount", amount)
	return nil
}

// Stake pulls token id from caller into the ledger's custody.
// The caller must own the token and have approved the ledger in the registry.
func (s *Staker) Stake(caller thor.Address, id registry.TokenID, now uint64) (err error) {
	logger.Debug("staking", "caller", caller, "tokenID", id)
	defer func() { countOp("stake", err) }()

	st, err := s.stakeService.Get(id)
	if err != nil {
		return err
	}
	if st.Active {
		logger.Info("stake failed", "tokenID", id, "error", reverts.ErrAlreadyStaked)
		return reverts.ErrAlreadyStaked.Withf("token %d", id)
	}

	owner, err := s.registry.OwnerOf(id)
	if err != nil {
		logger.Info("stake failed", "tokenID", id, "error", err)
		return err
	}
	if owner != caller {
		logger.Info("stake failed", "tokenID", id, "error", reverts.ErrNotOwner)
		return reverts.ErrNotOwner.Withf("token %d", id)
	}

	// the registry rejects the move unless the ledger was approved
	if err := s.registry.TransferFrom(s.addr, caller, s.addr, id); err != nil {
		logger.Info("stake failed", "tokenID", id, "error", err)
		return err
	}

	lockPeriod, err := s.storage.lockPeriod.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get lock period")
	}
	if _, err := s.stakeService.Add(id, caller, now, lockPeriod); err != nil {
		return err
	}

	s.events.Staked(caller, id, now)
	s.reportActive()
	logger.Info("staked", "staker", caller, "tokenID", id, "stakedAt", now)
	return nil
}

// UnStake returns token id to its staker once the lock period elapsed,
// moving the reward it accrued into the staker's balance.
func (s *Staker) UnStake(caller thor.Address, id registry.TokenID, now uint64) (err error) {
	logger.Debug("unstaking", "caller", caller, "tokenID", id)
	defer func() { countOp("unStake", err) }()

	st, err := s.stakeService.Get(id)
	if err != nil {
		return err
	}
	if !st.Active {
		logger.Info("unstake failed", "tokenID", id, "error", reverts.ErrNotStaked)
		return reverts.ErrNotStaked.Withf("token %d", id)
	}
	if st.Staker != caller {
		logger.Info("unstake failed", "tokenID", id, "error", reverts.ErrUnauthorized)
		return reverts.ErrUnauthorized.Withf("token %d is staked by another address", id)
	}

	unlocked, err := s.unlocked(st, now)
	if err != nil {
		return err
	}
	if !unlocked {
		logger.Info("unstake failed", "tokenID", id, "error", reverts.ErrStillLocked)
		return reverts.ErrStillLocked
	}

	strategy, err := s.storage.getStrategy()
	if err != nil {
		return err
	}
	reward := pending(strategy, st, now)
	if err := s.credit(st.Staker, reward); err != nil {
		return err
	}
	st.Settled = new(big.Int).Add(st.Settled, reward)

	if err := s.stakeService.Deactivate(id, st); err != nil {
		return err
	}
	if err := s.registry.TransferFrom(s.addr, s.addr, st.Staker, id); err != nil {
		return errors.Wrap(err, "failed to return token")
	}

	s.events.Unstaked(st.Staker, id, reward)
	s.reportActive()
	logger.Info("unstaked", "staker", st.Staker, "tokenID", id, "reward", reward)
	return nil
}

// ClaimRewards pays the caller's whole reward balance, including what its active stakes accrued so far.
// A zero balance is a no-op that pays nothing.
func (s *Staker) ClaimRewards(caller thor.Address, now uint64) (paid *big.Int, err error) {
	logger.Debug("claiming rewards", "caller", caller)
	defer func() { countOp("claimRewards", err) }()

	amount, err := s.ViewRewards(caller, now)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		logger.Debug("nothing to claim", "caller", caller)
		return amount, nil
	}

	// nothing is written before the payout is known to succeed
	available, err := s.treasury.GetBalance(s.addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ledger balance")
	}
	if available.Cmp(amount) < 0 {
		logger.Info("claim failed", "caller", caller, "amount", amount, "available", available)
		return nil, reverts.ErrInsufficientContractFunds.Withf("need %v, have %v", amount, available)
	}

	if err := s.settle(caller, now); err != nil {
		return nil, err
	}
	if err := s.storage.setReward(caller, new(big.Int)); err != nil {
		return nil, err
	}
	if err := s.treasury.Transfer(s.addr, caller, amount); err != nil {
		return nil, errors.Wrap(err, "failed to pay rewards")
	}

	s.events.RewardsClaimed(caller, amount)
	gwei := new(big.Int).Div(amount, big.NewInt(1e9))
	if !gwei.IsInt64() {
		gwei.SetInt64(math.MaxInt64)
	}
	metricRewardsPaid().Add(gwei.Int64())
	logger.Info("rewards claimed", "caller", caller, "amount", amount)
	return amount, nil
}

//
// internals
//

func (s *Staker) onlyOwner(caller thor.Address) error {
	owner, err := s.storage.owner.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get owner")
	}
	if caller != owner {
		return reverts.ErrUnauthorized.Withf("caller is not the owner")
	}
	return nil
}

func (s *Staker) unlocked(st *Stake, now uint64) (bool, error) {
	policy, err := s.storage.getPolicy()
	if err != nil {
		return false, err
	}
	lockPeriod := st.LockPeriod
	if policy == LockPolicyLive {
		if lockPeriod, err = s.storage.lockPeriod.Get(); err != nil {
			return false, errors.Wrap(err, "failed to get lock period")
		}
	}
	return stakes.Unlocked(now, st.StakedAt, lockPeriod), nil
}

// settle moves the accrued reward of every active stake of addr into its balance.
func (s *Staker) settle(addr thor.Address, now uint64) error {
	strategy, err := s.storage.getStrategy()
	if err != nil {
		return err
	}
	ids, err := s.stakeService.TokensOf(addr)
	if err != nil {
		return err
	}
	for _, id := range ids {
		st, err := s.stakeService.Get(id)
		if err != nil {
			return err
		}
		reward := pending(strategy, st, now)
		if reward.Sign() == 0 {
			continue
		}
		if err := s.credit(addr, reward); err != nil {
			return err
		}
		st.Settled = new(big.Int).Add(st.Settled, reward)
		if err := s.stakeService.Update(id, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Staker) credit(addr thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := s.storage.getReward(addr)
	if err != nil {
		return err
	}
	return s.storage.setReward(addr, bal.Add(bal, amount))
}

func (s *Staker) reportActive() {
	if n, err := s.stakeService.ActiveCount(); err == nil {
		metricActiveStakes().Set(int64(n))
	}
}

// pending is what a stake earned and has not yet been settled, floored at zero.
func pending(strategy accrual.Strategy, st *Stake, now uint64) *big.Int {
	if !st.Active {
		return new(big.Int)
	}
	earned := strategy.Earned(st.StakedAt, now)
	earned.Sub(earned, st.Settled)
	if earned.Sign() < 0 {
		return new(big.Int)
	}
	return earned
}
