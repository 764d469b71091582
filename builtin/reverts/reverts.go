// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrRevert is a business rule violation raised by a built-in contract.
// State changes of the failing call are rolled back and the message reaches the caller.
type ErrRevert struct {
	kind    string
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		kind:    message,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Kind returns the reason shared by every revert derived from the same sentinel.
func (e *ErrRevert) Kind() string {
	return e.kind
}

// Is matches reverts of the same kind, so errors.Is works against the sentinels below.
func (e *ErrRevert) Is(target error) bool {
	var t *ErrRevert
	if !errors.As(target, &t) {
		return false
	}
	return t.kind == e.kind
}

// Withf returns a revert of the same kind carrying extra detail.
func (e *ErrRevert) Withf(format string, args ...any) *ErrRevert {
	return &ErrRevert{
		kind:    e.kind,
		message: e.kind + ": " + fmt.Sprintf(format, args...),
	}
}

// Bytes encodes the revert as Error(string) return data.
func (e *ErrRevert) Bytes() []byte {
	if e == nil {
		return nil
	}

	msg := []byte(e.message)
	padded := (len(msg) + 31) / 32 * 32

	// selector + offset + length + data
	encoded := make([]byte, 4+32+32+padded)
	copy(encoded, []byte{0x08, 0xc3, 0x79, 0xa0})
	binary.BigEndian.PutUint64(encoded[4+24:], 32)
	binary.BigEndian.PutUint64(encoded[4+32+24:], uint64(len(msg)))
	copy(encoded[4+64:], msg)
	return encoded
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrUnauthorized              = New("Unauthorized")
	ErrNotOwner                  = New("Not the owner of the token")
	ErrAlreadyStaked             = New("Token is already staked")
	ErrNotStaked                 = New("Token is not staked")
	ErrStillLocked               = New("Stake is still in lock period")
	ErrInsufficientContractFunds = New("Insufficient contract balance")
	ErrNotFound                  = New("Token does not exist")
	ErrInsufficientFunds         = New("Insufficient funds")
	ErrInvalidArgument           = New("Invalid argument")
)
