// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"encoding/binary"
	"strconv"

	"github.com/nftstaker/nftstaker/thor"
)

// TokenID identifies a minted token. Ids are assigned sequentially from zero.
type TokenID uint64

// Bytes returns the 8 byte big endian form, used as mapping key.
func (id TokenID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

type operatorKey struct {
	owner    thor.Address
	operator thor.Address
}

func (k operatorKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.operator.Bytes()...)
}

// Events receives the logs emitted by the registry.
type Events interface {
	Transfer(from, to thor.Address, id TokenID)
	Approval(owner, approved thor.Address, id TokenID)
	ApprovalForAll(owner, operator thor.Address, approved bool)
}

type noopEvents struct{}

func (noopEvents) Transfer(thor.Address, thor.Address, TokenID)    {}
func (noopEvents) Approval(thor.Address, thor.Address, TokenID)    {}
func (noopEvents) ApprovalForAll(thor.Address, thor.Address, bool) {}
