// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Account is the persisted form of an address in the ledger.
type Account struct {
	Balance *big.Int
}

// IsEmpty returns if an account is empty.
// An empty account has zero balance.
func (a *Account) IsEmpty() bool {
	return a.Balance.Sign() == 0
}

func emptyAccount() *Account {
	return &Account{Balance: &big.Int{}}
}

func decodeAccount(raw []byte) (*Account, error) {
	if len(raw) == 0 {
		return emptyAccount(), nil
	}
	var a Account
	if err := rlp.DecodeBytes(raw, &a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = &big.Int{}
	}
	return &a, nil
}

func encodeAccount(a *Account) ([]byte, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(a)
}
