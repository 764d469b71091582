// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/abi"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID     thor.Bytes32
	Origin thor.Address
	Value  *big.Int
}

// Environment an env to execute native method.
type Environment struct {
	method   *abi.Method
	input    []byte
	to       thor.Address
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
	events   tx.Events
}

// New create a new env.
func New(
	state *state.State,
	blockCtx *BlockContext,
	txCtx *TransactionContext,
) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		txCtx:    txCtx,
	}
}

// WithCall binds the env to a call of method on contract to with ABI input.
func (env *Environment) WithCall(to thor.Address, method *abi.Method, input []byte) *Environment {
	env.to = to
	env.method = method
	env.input = input
	return env
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) Caller() thor.Address                    { return env.txCtx.Origin }
func (env *Environment) To() thor.Address                        { return env.to }
func (env *Environment) Now() uint64                             { return env.blockCtx.Time }
func (env *Environment) Events() tx.Events                       { return env.events }

// Value returns the native currency attached to the call.
func (env *Environment) Value() *big.Int {
	if env.txCtx.Value == nil {
		return new(big.Int)
	}
	return env.txCtx.Value
}

// ParseArgs decodes the call input into val.
func (env *Environment) ParseArgs(val any) error {
	if env.method == nil {
		return errors.New("no method bound")
	}
	if err := env.method.DecodeInput(env.input, val); err != nil {
		return reverts.ErrInvalidArgument.Withf("decode native input: %v", err)
	}
	return nil
}

// Log appends an event emitted by the contract at address. The event id is prepended to topics.
func (env *Environment) Log(ev *abi.Event, address thor.Address, topics []thor.Bytes32, args ...any) {
	data, err := ev.Encode(args...)
	if err != nil {
		panic(errors.WithMessage(err, "encode native event"))
	}

	all := make([]thor.Bytes32, 0, len(topics)+1)
	all = append(all, ev.ID())
	all = append(all, topics...)
	env.events = append(env.events, &tx.Event{
		Address: address,
		Topics:  all,
		Data:    data,
	})
}
