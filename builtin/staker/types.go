// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/staker/accrual"
	"github.com/nftstaker/nftstaker/builtin/staker/stakes"
	"github.com/nftstaker/nftstaker/thor"
)

// Stake is the custody record of one token.
type Stake = stakes.Stake

// LockPolicy selects which lock period governs a stake.
type LockPolicy string

const (
	// LockPolicyLive reads the lock period at call time, so a change applies to stakes in flight.
	LockPolicyLive LockPolicy = "live"
	// LockPolicySnapshot uses the lock period recorded when the token was staked.
	LockPolicySnapshot LockPolicy = "snapshot"
)

func (p LockPolicy) Valid() bool {
	return p == LockPolicyLive || p == LockPolicySnapshot
}

// TokenRegistry is the part of the registry the ledger drives.
type TokenRegistry interface {
	Address() thor.Address
	OwnerOf(id registry.TokenID) (thor.Address, error)
	TransferFrom(spender, from, to thor.Address, id registry.TokenID) error
}

// Treasury moves native currency.
type Treasury interface {
	GetBalance(addr thor.Address) (*big.Int, error)
	Transfer(from, to thor.Address, amount *big.Int) error
}

// Events receives the logs emitted by the ledger.
type Events interface {
	Staked(staker thor.Address, id registry.TokenID, stakedAt uint64)
	Unstaked(staker thor.Address, id registry.TokenID, reward *big.Int)
	RewardsClaimed(staker thor.Address, amount *big.Int)
	LockPeriodChanged(previous, current uint64)
	Funded(funder thor.Address, amount *big.Int)
	OwnershipTransferred(previous, current thor.Address)
}

// Params are the deployment arguments of the ledger.
type Params struct {
	Owner      thor.Address
	LockPeriod uint64
	LockPolicy LockPolicy
	Strategy   accrual.Strategy
}

type noopEvents struct{}

func (noopEvents) Staked(thor.Address, registry.TokenID, uint64)     {}
func (noopEvents) Unstaked(thor.Address, registry.TokenID, *big.Int) {}
func (noopEvents) RewardsClaimed(thor.Address, *big.Int)             {}
func (noopEvents) LockPeriodChanged(uint64, uint64)                  {}
func (noopEvents) Funded(thor.Address, *big.Int)                     {}
func (noopEvents) OwnershipTransferred(thor.Address, thor.Address)   {}
