// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/thor"
)

// Summary describes the registry contract.
type Summary struct {
	Address       thor.Address `json:"address"`
	Owner         thor.Address `json:"owner"`
	CurrentSupply uint64       `json:"currentSupply"`
}

// Token is a minted token.
type Token struct {
	ID       uint64        `json:"id"`
	Owner    thor.Address  `json:"owner"`
	Approved *thor.Address `json:"approved"`
}

// Holder is the registry view of an address.
type Holder struct {
	Address        thor.Address `json:"address"`
	Balance        uint64       `json:"balance"`
	ApprovedForAll *bool        `json:"approvedForAll,omitempty"`
}

// MintRequest mints the next token to caller.
type MintRequest struct {
	Caller thor.Address `json:"caller"`
}

// MintResult carries the minted token id.
type MintResult struct {
	TokenID uint64         `json:"tokenId"`
	Receipt *types.Receipt `json:"receipt"`
}

// ApproveRequest approves one operator for a token.
type ApproveRequest struct {
	Caller  thor.Address `json:"caller"`
	To      thor.Address `json:"to"`
	TokenID uint64       `json:"tokenId"`
}

// ApproveAllRequest approves or revokes an operator for all tokens of caller.
type ApproveAllRequest struct {
	Caller   thor.Address `json:"caller"`
	Operator thor.Address `json:"operator"`
	Approved bool         `json:"approved"`
}

// TransferRequest moves a token on behalf of caller.
type TransferRequest struct {
	Caller  thor.Address `json:"caller"`
	From    thor.Address `json:"from"`
	To      thor.Address `json:"to"`
	TokenID uint64       `json:"tokenId"`
}
