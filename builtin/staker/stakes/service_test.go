// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/solidity"
	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
)

func newService(t *testing.T) (*Service, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	return New(solidity.NewContext(thor.BytesToAddress([]byte("NFTStaker")), st)), st
}

func TestUnlocked(t *testing.T) {
	tests := []struct {
		now, stakedAt, lockPeriod uint64
		want                      bool
	}{
		{100, 100, 0, true},
		{159, 100, 60, false},
		{160, 100, 60, true},
		{^uint64(0), 100, ^uint64(0), false},
		{^uint64(0), 0, ^uint64(0), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Unlocked(tt.now, tt.stakedAt, tt.lockPeriod), "%+v", tt)
	}
}

func TestService(t *testing.T) {
	svc, st := newService(t)
	alice := thor.BytesToAddress([]byte("alice"))

	rec, err := svc.Get(3)
	require.NoError(t, err)
	assert.False(t, rec.Active)
	assert.Equal(t, 0, rec.Settled.Sign())

	_, err = svc.Add(3, alice, 10, 60)
	require.NoError(t, err)
	_, err = svc.Add(5, alice, 11, 60)
	require.NoError(t, err)

	ids, err := svc.TokensOf(alice)
	require.NoError(t, err)
	assert.Equal(t, []registry.TokenID{3, 5}, ids)

	n, err := svc.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	rec, err = svc.Get(3)
	require.NoError(t, err)
	rec.Settled = big.NewInt(42)
	require.NoError(t, svc.Update(3, rec))

	// survives a commit
	require.NoError(t, st.Commit())
	rec, err = svc.Get(3)
	require.NoError(t, err)
	assert.Equal(t, &Stake{Staker: alice, StakedAt: 10, LockPeriod: 60, Settled: big.NewInt(42), Active: true}, rec)

	require.NoError(t, svc.Deactivate(3, rec))
	ids, err = svc.TokensOf(alice)
	require.NoError(t, err)
	assert.Equal(t, []registry.TokenID{5}, ids)

	rec, err = svc.Get(5)
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(5, rec))
	ids, err = svc.TokensOf(alice)
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err = svc.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}
