// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin/solidity"
	"github.com/nftstaker/nftstaker/builtin/staker/accrual"
	"github.com/nftstaker/nftstaker/thor"
)

var (
	slotOwner          = nameToSlot("owner")
	slotRegistry       = nameToSlot("registry")
	slotLockPeriod     = nameToSlot("lock-period")
	slotLockPolicy     = nameToSlot("lock-policy")
	slotStrategyName   = nameToSlot("reward-strategy")
	slotStrategyAmount = nameToSlot("reward-amount")
	slotRewards        = nameToSlot("rewards")
)

func nameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}

// storage groups the scalar configuration and the per staker reward balances.
type storage struct {
	owner          *solidity.Address
	registry       *solidity.Address
	lockPeriod     *solidity.Raw[uint64]
	lockPolicy     *solidity.Raw[string]
	strategyName   *solidity.Raw[string]
	strategyAmount *solidity.Uint256
	rewards        *solidity.Mapping[thor.Address, *big.Int]
}

func newStorage(sctx *solidity.Context) *storage {
	return &storage{
		owner:          solidity.NewAddress(sctx, slotOwner),
		registry:       solidity.NewAddress(sctx, slotRegistry),
		lockPeriod:     solidity.NewRaw[uint64](sctx, slotLockPeriod),
		lockPolicy:     solidity.NewRaw[string](sctx, slotLockPolicy),
		strategyName:   solidity.NewRaw[string](sctx, slotStrategyName),
		strategyAmount: solidity.NewUint256(sctx, slotStrategyAmount),
		rewards:        solidity.NewMapping[thor.Address, *big.Int](sctx, slotRewards),
	}
}

func (s *storage) getPolicy() (LockPolicy, error) {
	p, err := s.lockPolicy.Get()
	if err != nil {
		return "", errors.Wrap(err, "failed to get lock policy")
	}
	if p == "" {
		return LockPolicyLive, nil
	}
	return LockPolicy(p), nil
}

func (s *storage) getStrategy() (accrual.Strategy, error) {
	name, err := s.strategyName.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward strategy")
	}
	amount, err := s.strategyAmount.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward amount")
	}
	return accrual.New(name, amount)
}

func (s *storage) setStrategy(strategy accrual.Strategy) error {
	if err := s.strategyName.Upsert(strategy.Name()); err != nil {
		return errors.Wrap(err, "failed to set reward strategy")
	}
	s.strategyAmount.Set(strategy.Amount())
	return nil
}

func (s *storage) getReward(addr thor.Address) (*big.Int, error) {
	v, err := s.rewards.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward balance")
	}
	return v, nil
}

func (s *storage) setReward(addr thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		s.rewards.Delete(addr)
		return nil
	}
	return errors.Wrap(s.rewards.Set(addr, amount), "failed to set reward balance")
}
