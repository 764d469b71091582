// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakes stores stake records indexed by token id, plus the ids each staker holds.
package stakes

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/solidity"
	"github.com/nftstaker/nftstaker/thor"
)

var (
	slotStakes       = thor.BytesToBytes32([]byte("stakes"))
	slotStakerTokens = thor.BytesToBytes32([]byte("staker-tokens"))
	slotActiveCount  = thor.BytesToBytes32([]byte("active-stakes"))
)

// Stake is the custody record of one token.
type Stake struct {
	Staker     thor.Address
	StakedAt   uint64
	LockPeriod uint64   // lock period in force when staked
	Settled    *big.Int // reward already moved to the staker's balance
	Active     bool
}

// Unlocked reports whether the record may be withdrawn at now under lockPeriod.
func Unlocked(now, stakedAt, lockPeriod uint64) bool {
	unlockAt := stakedAt + lockPeriod
	if unlockAt < stakedAt {
		// saturate
		return false
	}
	return now >= unlockAt
}

type Service struct {
	stakes       *solidity.Mapping[registry.TokenID, *Stake]
	stakerTokens *solidity.Mapping[thor.Address, []uint64]
	activeCount  *solidity.Raw[uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		stakes:       solidity.NewMapping[registry.TokenID, *Stake](sctx, slotStakes),
		stakerTokens: solidity.NewMapping[thor.Address, []uint64](sctx, slotStakerTokens),
		activeCount:  solidity.NewRaw[uint64](sctx, slotActiveCount),
	}
}

// Get returns the record of id. A token never staked yields an inactive zero record.
func (s *Service) Get(id registry.TokenID) (*Stake, error) {
	st, err := s.stakes.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	if st.Settled == nil {
		st.Settled = new(big.Int)
	}
	return st, nil
}

// Add records a new active stake.
func (s *Service) Add(id registry.TokenID, staker thor.Address, stakedAt, lockPeriod uint64) (*Stake, error) {
	st := &Stake{
		Staker:     staker,
		StakedAt:   stakedAt,
		LockPeriod: lockPeriod,
		Settled:    new(big.Int),
		Active:     true,
	}
	if err := s.stakes.Set(id, st); err != nil {
		return nil, errors.Wrap(err, "failed to set stake")
	}

	ids, err := s.stakerTokens.Get(staker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staker tokens")
	}
	if err := s.stakerTokens.Set(staker, append(ids, uint64(id))); err != nil {
		return nil, errors.Wrap(err, "failed to set staker tokens")
	}
	return st, s.addActive(1)
}

// Update persists a changed record.
func (s *Service) Update(id registry.TokenID, st *Stake) error {
	return errors.Wrap(s.stakes.Set(id, st), "failed to update stake")
}

// Deactivate clears the active flag and drops id from the staker's index.
func (s *Service) Deactivate(id registry.TokenID, st *Stake) error {
	st.Active = false
	if err := s.Update(id, st); err != nil {
		return err
	}

	ids, err := s.stakerTokens.Get(st.Staker)
	if err != nil {
		return errors.Wrap(err, "failed to get staker tokens")
	}
	ids = slices.DeleteFunc(ids, func(v uint64) bool { return v == uint64(id) })
	if len(ids) == 0 {
		s.stakerTokens.Delete(st.Staker)
	} else if err := s.stakerTokens.Set(st.Staker, ids); err != nil {
		return errors.Wrap(err, "failed to set staker tokens")
	}
	return s.addActive(-1)
}

// TokensOf returns the ids currently staked by staker, in staking order.
func (s *Service) TokensOf(staker thor.Address) ([]registry.TokenID, error) {
	ids, err := s.stakerTokens.Get(staker)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get staker tokens")
	}
	out := make([]registry.TokenID, 0, len(ids))
	for _, id := range ids {
		out = append(out, registry.TokenID(id))
	}
	return out, nil
}

// ActiveCount returns the number of tokens currently in custody.
func (s *Service) ActiveCount() (uint64, error) {
	return s.activeCount.Get()
}

func (s *Service) addActive(delta int64) error {
	n, err := s.activeCount.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get active count")
	}
	if delta < 0 && n < uint64(-delta) {
		return errors.New("active count underflow")
	}
	return errors.Wrap(s.activeCount.Upsert(uint64(int64(n)+delta)), "failed to set active count")
}
