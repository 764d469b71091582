// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/staker"
	"github.com/nftstaker/nftstaker/builtin/staker/accrual"
	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
)

const customYAML = `
admin: "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"
accounts:
  - address: "0xd3ae78222beadb038203be21ed5ce7c9b1bff602"
    balance: "0x3635c9adc5dea00000"
funding: "1000000000000000000"
lockPeriod: 60
lockPolicy: snapshot
strategy:
  name: linear
  amount: "5"
`

func newState(t *testing.T) *state.State {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.New(db)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(customYAML))
	require.NoError(t, err)

	assert.Equal(t, thor.MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"), cfg.Admin)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "1000000000000000000000", cfg.Accounts[0].Balance.Int().String())
	assert.Equal(t, thor.Ether, cfg.Funding.Int())
	assert.Equal(t, uint64(60), *cfg.LockPeriod)
	assert.Equal(t, staker.LockPolicySnapshot, cfg.LockPolicy)

	strategy, err := cfg.strategy()
	require.NoError(t, err)
	assert.Equal(t, accrual.NameLinear, strategy.Name())
	assert.Equal(t, big.NewInt(5), strategy.Amount())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing admin", `lockPeriod: 1`},
		{"unknown field", "admin: \"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed\"\ncolor: red"},
		{"zero lock period", "admin: \"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed\"\nlockPeriod: 0"},
		{"bad policy", "admin: \"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed\"\nlockPolicy: forever"},
		{"bad amount", "admin: \"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed\"\nfunding: lots"},
		{"bad strategy", "admin: \"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed\"\nstrategy:\n  name: quadratic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), *cfg.LockPeriod)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cfg, err := Parse([]byte(customYAML))
	require.NoError(t, err)
	g, err := New("custom", cfg)
	require.NoError(t, err)
	assert.Equal(t, "custom", g.Name())
	assert.Same(t, cfg, g.Config())

	st := newState(t)
	require.NoError(t, g.Build(st))

	owner, err := builtin.Registry.WithState(st).Owner()
	require.NoError(t, err)
	assert.Equal(t, cfg.Admin, owner)

	ledger := builtin.Staker.WithState(st)
	period, err := ledger.LockPeriod()
	require.NoError(t, err)
	assert.Equal(t, uint64(60), period)
	policy, err := ledger.LockPolicy()
	require.NoError(t, err)
	assert.Equal(t, staker.LockPolicySnapshot, policy)

	funds, err := ledger.Balance()
	require.NoError(t, err)
	assert.Equal(t, thor.Ether, funds)

	bal, err := st.GetBalance(cfg.Accounts[0].Address)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", bal.String())
}

func TestGenesisID(t *testing.T) {
	a, err := New("a", DevConfig())
	require.NoError(t, err)
	b, err := New("b", DevConfig())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), b.ID())

	cfg := DevConfig()
	period := uint64(1)
	cfg.LockPeriod = &period
	c, err := New("c", cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestDevnet(t *testing.T) {
	accs := DevAccounts()
	require.Len(t, accs, 5)
	assert.Equal(t, thor.MustParseAddress("0xf077b491b355E64048cE21E3A6Fc4751eEeA77fa"), accs[0].Address)

	g := NewDevnet()
	require.NoError(t, g.builder.Verify())

	st := newState(t)
	require.NoError(t, g.Build(st))
	period, err := builtin.Staker.WithState(st).LockPeriod()
	require.NoError(t, err)
	assert.Equal(t, thor.LockPeriod(), period)
}
