// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nftstaker/nftstaker/thor"
)

// DevAccount account for development.
type DevAccount struct {
	Address    thor.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for the dev ledger.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{thor.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// DevConfig is the genesis of the dev ledger. The first dev account administers both contracts,
// every dev account holds 10000 ether and the ledger starts with 1000 ether to pay rewards.
func DevConfig() *Config {
	accs := DevAccounts()
	balance := new(big.Int).Mul(big.NewInt(10000), thor.Ether)

	cfg := &Config{
		Admin:   accs[0].Address,
		Funding: NewHexOrDecimal256(new(big.Int).Mul(big.NewInt(1000), thor.Ether)),
	}
	for _, acc := range accs {
		cfg.Accounts = append(cfg.Accounts, Account{
			Address: acc.Address,
			Balance: NewHexOrDecimal256(balance),
		})
	}
	return cfg
}

// NewDevnet create genesis for the dev ledger.
func NewDevnet() *Genesis {
	g, err := New("devnet", DevConfig())
	if err != nil {
		panic(err)
	}
	return g
}
