// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/thor"
)

// Clause for json marshal
type Clause struct {
	To    *thor.Address         `json:"to"`
	Value *math.HexOrDecimal256 `json:"value,omitempty"`
	Data  string                `json:"data"`
}

// Convert converts a json clause into a runtime clause.
func (c *Clause) Convert() (*runtime.Clause, error) {
	if c.To == nil {
		return nil, errors.New("to: required")
	}
	var data []byte
	if c.Data != "" {
		var err error
		if data, err = hexutil.Decode(c.Data); err != nil {
			return nil, errors.WithMessage(err, "data")
		}
	}
	value := new(big.Int)
	if c.Value != nil {
		value = (*big.Int)(c.Value)
	}
	if value.Sign() < 0 {
		return nil, errors.New("value: negative")
	}
	return &runtime.Clause{
		To:    *c.To,
		Value: value,
		Data:  data,
	}, nil
}

func (c *Clause) String() string {
	return fmt.Sprintf(`Clause(
		To    %v
		Value %v
		Data  %v
		)`, c.To,
		c.Value,
		c.Data)
}
