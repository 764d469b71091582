// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/genesis"
	"github.com/nftstaker/nftstaker/logdb"
	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

// DefaultLaunchTime is the clock reading of a new chain.
const DefaultLaunchTime = 1_700_000_000

// Chain is an in-memory ledger with a manual clock, for tests.
type Chain struct {
	db      *lvldb.LevelDB
	genesis *genesis.Genesis
	state   *state.State
	rt      *runtime.Runtime
	clock   *xenv.ManualClock
	logDB   *logdb.LogDB
}

// NewDefault creates a chain from the dev genesis.
func NewDefault() (*Chain, error) {
	return NewWithGenesis(genesis.NewDevnet())
}

// NewWithGenesis creates a chain from gene. Receipts are indexed into an in-memory log db.
func NewWithGenesis(gene *genesis.Genesis) (*Chain, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	st := state.New(db)
	if err := gene.Build(st); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "build genesis")
	}

	clock := xenv.NewManualClock(DefaultLaunchTime)
	rt, err := runtime.New(st, db, clock)
	if err != nil {
		db.Close()
		return nil, err
	}
	logDB, err := logdb.NewMem()
	if err != nil {
		db.Close()
		return nil, err
	}
	rt.AddReceiptWriter(logDB)

	return &Chain{
		db:      db,
		genesis: gene,
		state:   st,
		rt:      rt,
		clock:   clock,
		logDB:   logDB,
	}, nil
}

func (c *Chain) Genesis() *genesis.Genesis      { return c.genesis }
func (c *Chain) State() *state.State            { return c.state }
func (c *Chain) Runtime() *runtime.Runtime      { return c.rt }
func (c *Chain) Clock() *xenv.ManualClock       { return c.clock }
func (c *Chain) LogDB() *logdb.LogDB            { return c.logDB }
func (c *Chain) Accounts() []genesis.DevAccount { return genesis.DevAccounts() }

// Admin is the administrator of both contracts.
func (c *Chain) Admin() thor.Address {
	return c.genesis.Config().Admin
}

// Close releases the databases.
func (c *Chain) Close() error {
	if err := c.logDB.Close(); err != nil {
		return err
	}
	return c.db.Close()
}

// Mint mints a token to owner.
func (c *Chain) Mint(owner thor.Address) (id registry.TokenID, err error) {
	_, err = c.rt.Exec(owner, builtin.Registry.Address, "safeMint", func(env *xenv.Environment) (err error) {
		id, err = builtin.Registry.WithEnv(env).SafeMint(env.Caller())
		return
	})
	return
}

// MintAndStake mints a token to owner, approves the ledger and stakes it.
func (c *Chain) MintAndStake(owner thor.Address) (registry.TokenID, error) {
	id, err := c.Mint(owner)
	if err != nil {
		return 0, err
	}
	if _, err := c.rt.Exec(owner, builtin.Registry.Address, "approve", func(env *xenv.Environment) error {
		return builtin.Registry.WithEnv(env).Approve(env.Caller(), builtin.Staker.Address, id)
	}); err != nil {
		return 0, err
	}
	_, err = c.rt.Exec(owner, builtin.Staker.Address, "stake", func(env *xenv.Environment) error {
		return builtin.Staker.WithEnv(env).Stake(env.Caller(), id, env.Now())
	})
	return id, err
}
