// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import "math/big"

// Config is the configurable parameters of the ledger. Every parameter has a default value, genesis files
// override them before the config gets locked.

// Ether is 10^18 units of the native currency.
var Ether = big.NewInt(1e18)

var (
	lockPeriod uint64 = 7 * 24 * 3600 // 7 days
	flatReward        = big.NewInt(1e15)
	rewardRate        = big.NewInt(1e10) // per second per staked token

	locked bool
)

type Config struct {
	LockPeriod uint64   `json:"lockPeriod"` // seconds a stake must be held before it can be withdrawn.
	FlatReward *big.Int `json:"flatReward"` // reward paid once per stake by the flat strategy.
	RewardRate *big.Int `json:"rewardRate"` // reward per second per token paid by the linear strategy.
}

// SetConfig sets the config.
// Zero values keep the defaults. It panics if the config is locked.
func SetConfig(cfg Config) {
	if locked {
		panic("config is locked, cannot be set")
	}

	if cfg.LockPeriod != 0 {
		lockPeriod = cfg.LockPeriod
	}
	if cfg.FlatReward != nil && cfg.FlatReward.Sign() > 0 {
		flatReward = new(big.Int).Set(cfg.FlatReward)
	}
	if cfg.RewardRate != nil && cfg.RewardRate.Sign() > 0 {
		rewardRate = new(big.Int).Set(cfg.RewardRate)
	}
}

// LockConfig prevents any further SetConfig call.
func LockConfig() {
	locked = true
}

func GetConfig() Config {
	return Config{
		LockPeriod: lockPeriod,
		FlatReward: FlatReward(),
		RewardRate: RewardRate(),
	}
}

func LockPeriod() uint64 { return lockPeriod }

func FlatReward() *big.Int { return new(big.Int).Set(flatReward) }

func RewardRate() *big.Int { return new(big.Int).Set(rewardRate) }
