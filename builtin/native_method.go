// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"fmt"

	"github.com/nftstaker/nftstaker/abi"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/xenv"
)

// nativeMethod describes a native call.
type nativeMethod struct {
	contract *contract
	method   *abi.Method
	run      func(env *xenv.Environment) ([]any, error)
}

// Name returns the ABI name of the method.
func (n *nativeMethod) Name() string {
	return n.method.Name()
}

// Const reports whether the method only reads state.
func (n *nativeMethod) Const() bool {
	return n.method.Const()
}

// Call runs the method against env and returns the ABI encoded output.
func (n *nativeMethod) Call(env *xenv.Environment, input []byte) (output []byte, err error) {
	if !n.method.Payable() && env.Value().Sign() != 0 {
		return nil, reverts.ErrInvalidArgument.Withf("method %v is not payable", n.method.Name())
	}

	defer func() {
		// event encoding panics on a programming error
		if e := recover(); e != nil {
			err = fmt.Errorf("native: %v", e)
		}
	}()

	out, err := n.run(env.WithCall(n.contract.Address, n.method, input))
	if err != nil {
		return nil, err
	}
	return n.method.EncodeOutput(out...)
}
