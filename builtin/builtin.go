// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/staker"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/xenv"
)

// Builtin contracts binding.
var (
	Registry = &registryContract{mustLoadContract("Registry")}
	Staker   = &stakerContract{mustLoadContract("NFTStaker")}
)

type (
	registryContract struct{ *contract }
	stakerContract   struct{ *contract }
)

// WithState binds the registry to st without emitting events.
func (r *registryContract) WithState(st *state.State) *registry.Registry {
	return registry.New(r.Address, st, nil)
}

// WithEnv binds the registry to the state of env, logging its events into env.
func (r *registryContract) WithEnv(env *xenv.Environment) *registry.Registry {
	return registry.New(r.Address, env.State(), &registryEvents{env})
}

// WithState binds the ledger to st without emitting events.
func (s *stakerContract) WithState(st *state.State) *staker.Staker {
	return staker.New(s.Address, st, Registry.WithState(st), nil)
}

// WithEnv binds the ledger and the registry it drives to env, logging the events of both into env.
func (s *stakerContract) WithEnv(env *xenv.Environment) *staker.Staker {
	return staker.New(s.Address, env.State(), Registry.WithEnv(env), &stakerEvents{env})
}
