// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nftstaker/nftstaker/builtin/staker"
	"github.com/nftstaker/nftstaker/builtin/staker/accrual"
	"github.com/nftstaker/nftstaker/thor"
)

// Config is the user supplied genesis of a ledger.
type Config struct {
	Admin      thor.Address      `yaml:"admin"`
	Accounts   []Account         `yaml:"accounts"`
	Funding    *HexOrDecimal256  `yaml:"funding,omitempty"`
	LockPeriod *uint64           `yaml:"lockPeriod,omitempty"`
	LockPolicy staker.LockPolicy `yaml:"lockPolicy,omitempty"`
	Strategy   *Strategy         `yaml:"strategy,omitempty"`
}

// Account is an account prefunded at genesis.
type Account struct {
	Address thor.Address     `yaml:"address"`
	Balance *HexOrDecimal256 `yaml:"balance"`
}

// Strategy selects the reward accrual of the ledger.
type Strategy struct {
	Name   string           `yaml:"name"`
	Amount *HexOrDecimal256 `yaml:"amount"`
}

// HexOrDecimal256 marshals big.Int as hex or decimal.
type HexOrDecimal256 math.HexOrDecimal256

// NewHexOrDecimal256 wraps a copy of v.
func NewHexOrDecimal256(v *big.Int) *HexOrDecimal256 {
	return (*HexOrDecimal256)(new(big.Int).Set(v))
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", value.Line)
	}
	bigint, ok := math.ParseBig256(value.Value)
	if !ok {
		return fmt.Errorf("line %d: invalid amount %q", value.Line, value.Value)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (i *HexOrDecimal256) MarshalYAML() (any, error) {
	return (*big.Int)(i).String(), nil
}

// Int returns the amount as a big.Int, nil yields zero.
func (i *HexOrDecimal256) Int() *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(i))
}

// Load reads a yaml genesis file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(data)
}

// Parse decodes and validates a yaml genesis document.
func Parse(data []byte) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config can be deployed.
func (c *Config) Validate() error {
	if c.Admin.IsZero() {
		return errors.New("admin: required")
	}
	if c.LockPeriod != nil && *c.LockPeriod == 0 {
		return errors.New("lockPeriod: must be positive")
	}
	if c.LockPolicy != "" && !c.LockPolicy.Valid() {
		return errors.Errorf("lockPolicy: unknown policy %q", c.LockPolicy)
	}
	for i, acc := range c.Accounts {
		if acc.Address.IsZero() {
			return errors.Errorf("accounts[%d]: address required", i)
		}
	}
	if _, err := c.strategy(); err != nil {
		return errors.WithMessage(err, "strategy")
	}
	return nil
}

func (c *Config) lockPeriod() uint64 {
	if c.LockPeriod == nil {
		return thor.LockPeriod()
	}
	return *c.LockPeriod
}

func (c *Config) strategy() (accrual.Strategy, error) {
	if c.Strategy == nil {
		return accrual.NewFlat(thor.FlatReward()), nil
	}
	amount := c.Strategy.Amount.Int()
	if c.Strategy.Amount == nil {
		amount = thor.FlatReward()
		if c.Strategy.Name == accrual.NameLinear {
			amount = thor.RewardRate()
		}
	}
	return accrual.New(c.Strategy.Name, amount)
}

// Encode returns the canonical yaml form of the config.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
