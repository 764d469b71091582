// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

const (
	scenarioLockPeriod    = 60
	scenarioLongLock      = 1_662_574_802
	scenarioFastForward   = 1_762_574_802
	scenarioMintedTokens  = 2
	scenarioStakedTokenID = 0
)

// scenario drives the ledger through ABI encoded clauses, the way an external client would.
type scenario struct {
	rt     *runtime.Runtime
	clock  xenv.TimeTraveler
	admin  thor.Address
	holder thor.Address
	w      io.Writer
}

func clause(to thor.Address, name string, args ...any) (*runtime.Clause, error) {
	contract := builtin.Registry.ABI
	if to == builtin.Staker.Address {
		contract = builtin.Staker.ABI
	}
	method, ok := contract.MethodByName(name)
	if !ok {
		return nil, errors.Errorf("method %v not found", name)
	}
	data, err := method.EncodeInput(args...)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return &runtime.Clause{To: to, Data: data}, nil
}

func (s *scenario) exec(origin, to thor.Address, name string, args ...any) (*big.Int, error) {
	c, err := clause(to, name, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := s.rt.ExecuteClause(origin, c)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(receipt.Output), nil
}

func (s *scenario) inspect(to thor.Address, name string, args ...any) (*big.Int, error) {
	c, err := clause(to, name, args...)
	if err != nil {
		return nil, err
	}
	out, err := s.rt.InspectClause(s.holder, c)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(out), nil
}

func (s *scenario) balance(addr thor.Address) (*big.Int, error) {
	var balance *big.Int
	err := s.rt.View(addr, func(env *xenv.Environment) (err error) {
		balance, err = env.State().GetBalance(addr)
		return
	})
	return balance, err
}

func (s *scenario) printf(format string, args ...any) {
	fmt.Fprintf(s.w, format+"\n", args...)
}

// run replays the reference staking scenario and returns the rewards claimed by the holder.
func (s *scenario) run() (*big.Int, error) {
	supply, err := s.inspect(builtin.Registry.Address, "currentSupply")
	if err != nil {
		return nil, err
	}
	s.printf("supply before minting: %v", supply)

	for range scenarioMintedTokens {
		id, err := s.exec(s.holder, builtin.Registry.Address, "safeMint")
		if err != nil {
			return nil, errors.WithMessage(err, "mint")
		}
		if supply, err = s.inspect(builtin.Registry.Address, "currentSupply"); err != nil {
			return nil, err
		}
		s.printf("minted token %v, supply %v", id, supply)
	}

	if _, err := s.exec(s.admin, builtin.Staker.Address, "setLockTimePeriod", uint64(scenarioLockPeriod)); err != nil {
		return nil, errors.WithMessage(err, "set lock period")
	}
	tokenID := big.NewInt(scenarioStakedTokenID)
	if _, err := s.exec(s.holder, builtin.Registry.Address, "approve", common.Address(builtin.Staker.Address), tokenID); err != nil {
		return nil, errors.WithMessage(err, "approve")
	}
	if _, err := s.exec(s.holder, builtin.Staker.Address, "stake", tokenID); err != nil {
		return nil, errors.WithMessage(err, "stake")
	}
	s.printf("staked token %v with a lock period of %v s", tokenID, scenarioLockPeriod)

	_, err = s.exec(s.holder, builtin.Staker.Address, "unStake", tokenID)
	if !errors.Is(err, reverts.ErrStillLocked) {
		return nil, errors.Errorf("early unstake: want %q, got %v", reverts.ErrStillLocked, err)
	}
	s.printf("early unstake reverted: %v", err)

	if _, err := s.exec(s.admin, builtin.Staker.Address, "setLockTimePeriod", uint64(scenarioLongLock)); err != nil {
		return nil, errors.WithMessage(err, "set lock period")
	}
	now := s.clock.IncreaseTime(scenarioFastForward)
	s.printf("lock period %v s, clock advanced to %v", scenarioLongLock, now)

	if _, err := s.exec(s.holder, builtin.Staker.Address, "unStake", tokenID); err != nil {
		return nil, errors.WithMessage(err, "unstake")
	}
	s.printf("unstaked token %v", tokenID)

	before, err := s.balance(s.holder)
	if err != nil {
		return nil, err
	}
	if _, err := s.exec(s.holder, builtin.Staker.Address, "claimRewards"); err != nil {
		return nil, errors.WithMessage(err, "claim")
	}
	after, err := s.balance(s.holder)
	if err != nil {
		return nil, err
	}
	claimed := new(big.Int).Sub(after, before)
	s.printf("balance %v -> %v, claimed %v", before, after, claimed)
	return claimed, nil
}
