// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual computes how much reward a stake has earned.
package accrual

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const (
	NameFlat   = "flat"
	NameLinear = "linear"
)

// Strategy computes the total reward earned by one stake record between stakedAt and now.
// Earned must be monotonic in now and never negative.
type Strategy interface {
	Name() string
	// Amount is the parameter of the strategy, persisted alongside its name.
	Amount() *big.Int
	Earned(stakedAt, now uint64) *big.Int
}

// New builds a strategy from its persisted name and amount.
func New(name string, amount *big.Int) (Strategy, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, errors.New("accrual: invalid amount")
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, errors.New("accrual: amount overflows uint256")
	}
	switch name {
	case NameFlat, "":
		return &Flat{amount: v}, nil
	case NameLinear:
		return &LinearByDuration{rate: v}, nil
	}
	return nil, errors.Errorf("accrual: unknown strategy %q", name)
}

// Flat pays a fixed amount per stake record regardless of how long it was held.
type Flat struct {
	amount *uint256.Int
}

func NewFlat(amount *big.Int) *Flat {
	return &Flat{amount: uint256.MustFromBig(amount)}
}

func (f *Flat) Name() string     { return NameFlat }
func (f *Flat) Amount() *big.Int { return f.amount.ToBig() }

func (f *Flat) Earned(stakedAt, now uint64) *big.Int {
	if now < stakedAt {
		return new(big.Int)
	}
	return f.amount.ToBig()
}

// LinearByDuration pays rate per second held.
type LinearByDuration struct {
	rate *uint256.Int
}

func NewLinearByDuration(rate *big.Int) *LinearByDuration {
	return &LinearByDuration{rate: uint256.MustFromBig(rate)}
}

func (l *LinearByDuration) Name() string     { return NameLinear }
func (l *LinearByDuration) Amount() *big.Int { return l.rate.ToBig() }

// Earned saturates at the uint256 maximum.
func (l *LinearByDuration) Earned(stakedAt, now uint64) *big.Int {
	if now <= stakedAt {
		return new(big.Int)
	}
	elapsed := uint256.NewInt(now - stakedAt)
	earned, overflow := new(uint256.Int).MulOverflow(l.rate, elapsed)
	if overflow {
		return new(uint256.Int).SetAllOne().ToBig()
	}
	return earned.ToBig()
}
