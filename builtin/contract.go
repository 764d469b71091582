// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"embed"
	"fmt"

	"github.com/nftstaker/nftstaker/abi"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

//go:embed compiled/*.abi
var compiled embed.FS

type contract struct {
	name    string
	Address thor.Address
	ABI     *abi.ABI
}

func mustLoadContract(name string) *contract {
	data, err := compiled.ReadFile("compiled/" + name + ".abi")
	if err != nil {
		panic(fmt.Errorf("load ABI for '%s': %w", name, err))
	}
	abi, err := abi.New(data)
	if err != nil {
		panic(fmt.Errorf("load ABI for '%s': %w", name, err))
	}

	return &contract{
		name,
		thor.BytesToAddress([]byte(name)),
		abi,
	}
}

func (c *contract) Name() string {
	return c.name
}

func (c *contract) mustEvent(name string) *abi.Event {
	ev, found := c.ABI.EventByName(name)
	if !found {
		panic(fmt.Errorf("event '%s' not found in '%s'", name, c.name))
	}
	return ev
}

func (c *contract) impl(name string, run func(env *xenv.Environment) ([]any, error)) *nativeMethod {
	method, found := c.ABI.MethodByName(name)
	if !found {
		panic(fmt.Errorf("method '%s' not found in '%s'", name, c.name))
	}
	return &nativeMethod{
		contract: c,
		method:   method,
		run:      run,
	}
}
