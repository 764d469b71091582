// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	"bytes"
	"errors"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/nftstaker/nftstaker/thor"
)

// ABI holds information about methods and events of contract.
type ABI struct {
	nameToMethod map[string]*Method
	nameToEvent  map[string]*Event
	methods      map[MethodID]*Method
	events       map[thor.Bytes32]*Event
}

// New create an ABI instance.
func New(data []byte) (*ABI, error) {
	parsed, err := ethabi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	abi := &ABI{
		nameToMethod: make(map[string]*Method),
		nameToEvent:  make(map[string]*Event),
		methods:      make(map[MethodID]*Method),
		events:       make(map[thor.Bytes32]*Event),
	}

	for name, m := range parsed.Methods {
		method := newMethod(m)
		abi.methods[method.id] = method
		abi.nameToMethod[name] = method
	}
	for name, e := range parsed.Events {
		event := newEvent(e)
		abi.events[event.id] = event
		abi.nameToEvent[name] = event
	}
	return abi, nil
}

// MethodByInput find the method for given input.
// If the input shorter than MethodID, or method not found, an error returned.
func (a *ABI) MethodByInput(input []byte) (*Method, error) {
	id, err := ExtractMethodID(input)
	if err != nil {
		return nil, err
	}
	m, found := a.methods[id]
	if !found {
		return nil, errors.New("method not found")
	}
	return m, nil
}

// MethodByName find method for the given method name.
func (a *ABI) MethodByName(name string) (*Method, bool) {
	m, found := a.nameToMethod[name]
	return m, found
}

// MethodByID returns method for given method id.
func (a *ABI) MethodByID(id MethodID) (*Method, bool) {
	m, found := a.methods[id]
	return m, found
}

// EventByName find event for the given event name.
func (a *ABI) EventByName(name string) (*Event, bool) {
	e, found := a.nameToEvent[name]
	return e, found
}

// EventByID returns the event for the given event id.
func (a *ABI) EventByID(id thor.Bytes32) (*Event, bool) {
	e, found := a.events[id]
	return e, found
}

// UnpackRevert resolves the reason string of Error(string) revert data.
func UnpackRevert(data []byte) (string, error) {
	return ethabi.UnpackRevert(data)
}
