// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/builtin/staker"
	"github.com/nftstaker/nftstaker/thor"
)

// Strategy is the reward accrual of the ledger.
type Strategy struct {
	Name   string                `json:"name"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Summary describes the ledger contract.
type Summary struct {
	Address      thor.Address          `json:"address"`
	Owner        thor.Address          `json:"owner"`
	Registry     thor.Address          `json:"registry"`
	LockPeriod   uint64                `json:"lockPeriod"`
	LockPolicy   staker.LockPolicy     `json:"lockPolicy"`
	Strategy     *Strategy             `json:"strategy"`
	Balance      *math.HexOrDecimal256 `json:"balance"`
	ActiveStakes uint64                `json:"activeStakes"`
}

// Stake is the custody record of a token.
type Stake struct {
	TokenID    uint64                `json:"tokenId"`
	Staker     thor.Address          `json:"staker"`
	StakedAt   uint64                `json:"stakedAt"`
	LockPeriod uint64                `json:"lockPeriod"`
	Settled    *math.HexOrDecimal256 `json:"settled"`
	Active     bool                  `json:"active"`
}

// Rewards is the claimable reward of an address.
type Rewards struct {
	Address thor.Address          `json:"address"`
	Rewards *math.HexOrDecimal256 `json:"rewards"`
}

// LockPeriodRequest replaces the lock period.
type LockPeriodRequest struct {
	Caller  thor.Address `json:"caller"`
	Seconds uint64       `json:"seconds"`
}

// TokenRequest stakes or unstakes a token.
type TokenRequest struct {
	Caller  thor.Address `json:"caller"`
	TokenID uint64       `json:"tokenId"`
}

// ClaimRequest claims the rewards of caller.
type ClaimRequest struct {
	Caller thor.Address `json:"caller"`
}

// ClaimResult carries the paid amount.
type ClaimResult struct {
	Amount  *math.HexOrDecimal256 `json:"amount"`
	Receipt *types.Receipt        `json:"receipt"`
}

// FundRequest moves native currency from caller into the ledger.
type FundRequest struct {
	Caller thor.Address          `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// OwnershipRequest hands the ledger to a new owner.
type OwnershipRequest struct {
	Caller   thor.Address `json:"caller"`
	NewOwner thor.Address `json:"newOwner"`
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func convertStake(id uint64, st *staker.Stake) *Stake {
	return &Stake{
		TokenID:    id,
		Staker:     st.Staker,
		StakedAt:   st.StakedAt,
		LockPeriod: st.LockPeriod,
		Settled:    amount(st.Settled),
		Active:     st.Active,
	}
}
