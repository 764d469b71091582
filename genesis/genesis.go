// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/staker"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
)

// Genesis to build the initial ledger state.
type Genesis struct {
	builder *Builder
	id      thor.Bytes32
	name    string
	config  *Config
}

// New prepares the genesis of cfg. The id is the hash of the canonical config.
func New(name string, cfg *Config) (*Genesis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	data, err := cfg.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "encode genesis config")
	}
	strategy, err := cfg.strategy()
	if err != nil {
		return nil, err
	}

	builder := new(Builder).
		State(func(st *state.State) error {
			if err := builtin.Registry.WithState(st).Initialize(cfg.Admin); err != nil {
				return errors.WithMessage(err, "registry")
			}
			return builtin.Staker.WithState(st).Initialize(staker.Params{
				Owner:      cfg.Admin,
				LockPeriod: cfg.lockPeriod(),
				LockPolicy: cfg.LockPolicy,
				Strategy:   strategy,
			})
		}).
		State(func(st *state.State) error {
			for _, acc := range cfg.Accounts {
				if err := st.AddBalance(acc.Address, acc.Balance.Int()); err != nil {
					return errors.WithMessagef(err, "account %v", acc.Address)
				}
			}
			return st.AddBalance(builtin.Staker.Address, cfg.Funding.Int())
		})

	return &Genesis{
		builder: builder,
		id:      thor.Blake2b(data),
		name:    name,
		config:  cfg,
	}, nil
}

// Build deploys both contracts into st and commits it.
func (g *Genesis) Build(st *state.State) error {
	return g.builder.Build(st)
}

// ID returns genesis id.
func (g *Genesis) ID() thor.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

// Config returns the config the genesis was built from.
func (g *Genesis) Config() *Config {
	return g.config
}
