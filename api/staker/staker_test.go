// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/api/staker"
	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/test/testchain"
	"github.com/nftstaker/nftstaker/thor"
)

func newServer(t *testing.T) (*httptest.Server, *testchain.Chain) {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { chain.Close() })

	router := mux.NewRouter()
	staker.New(chain.Runtime()).Mount(router, "/staker")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, chain
}

func TestSummary(t *testing.T) {
	ts, chain := newServer(t)

	var summary staker.Summary
	get(t, ts.URL+"/staker", http.StatusOK, &summary)
	assert.Equal(t, builtin.Staker.Address, summary.Address)
	assert.Equal(t, chain.Admin(), summary.Owner)
	assert.Equal(t, builtin.Registry.Address, summary.Registry)
	assert.Equal(t, thor.LockPeriod(), summary.LockPeriod)
	assert.Equal(t, "live", string(summary.LockPolicy))
	require.NotNil(t, summary.Strategy)
	assert.Equal(t, "flat", summary.Strategy.Name)
	assert.Equal(t, thor.FlatReward(), (*big.Int)(summary.Strategy.Amount))
	assert.Equal(t, new(big.Int).Mul(big.NewInt(1000), thor.Ether), (*big.Int)(summary.Balance))
	assert.Equal(t, uint64(0), summary.ActiveStakes)
}

func TestReferenceScenario(t *testing.T) {
	ts, chain := newServer(t)
	admin := chain.Admin()
	holder := chain.Accounts()[1].Address

	var receipt types.Receipt
	post(t, ts.URL+"/staker/lock-period", &staker.LockPeriodRequest{Caller: admin, Seconds: 60}, http.StatusOK, &receipt)
	assert.Equal(t, "setLockTimePeriod", receipt.Method)

	id, err := chain.MintAndStake(holder)
	require.NoError(t, err)

	var stake staker.Stake
	get(t, ts.URL+"/staker/stakes/0", http.StatusOK, &stake)
	assert.True(t, stake.Active)
	assert.Equal(t, holder, stake.Staker)
	assert.Equal(t, uint64(testchain.DefaultLaunchTime), stake.StakedAt)
	assert.Equal(t, uint64(60), stake.LockPeriod)

	var tokens []uint64
	get(t, ts.URL+"/staker/stakers/"+holder.String()+"/tokens", http.StatusOK, &tokens)
	assert.Equal(t, []uint64{uint64(id)}, tokens)

	res := post(t, ts.URL+"/staker/unstake", &staker.TokenRequest{Caller: holder, TokenID: uint64(id)}, http.StatusBadRequest, nil)
	assert.Equal(t, "Stake is still in lock period", strings.TrimSpace(string(res)))

	post(t, ts.URL+"/staker/lock-period", &staker.LockPeriodRequest{Caller: admin, Seconds: 1_662_574_802}, http.StatusOK, nil)
	chain.Clock().IncreaseTime(1_762_574_802)

	var rewards staker.Rewards
	get(t, ts.URL+"/staker/rewards/"+holder.String(), http.StatusOK, &rewards)
	assert.Equal(t, thor.FlatReward(), (*big.Int)(rewards.Rewards))

	post(t, ts.URL+"/staker/unstake", &staker.TokenRequest{Caller: holder, TokenID: uint64(id)}, http.StatusOK, &receipt)
	assert.False(t, receipt.Reverted)

	get(t, ts.URL+"/staker/stakers/"+holder.String()+"/tokens", http.StatusOK, &tokens)
	assert.Empty(t, tokens)

	before, err := chain.State().GetBalance(holder)
	require.NoError(t, err)
	var claim staker.ClaimResult
	post(t, ts.URL+"/staker/claim", &staker.ClaimRequest{Caller: holder}, http.StatusOK, &claim)
	assert.Equal(t, big.NewInt(1e15), (*big.Int)(claim.Amount))
	after, err := chain.State().GetBalance(holder)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), new(big.Int).Sub(after, before))

	post(t, ts.URL+"/staker/claim", &staker.ClaimRequest{Caller: holder}, http.StatusOK, &claim)
	assert.Equal(t, 0, (*big.Int)(claim.Amount).Sign())
	assert.Empty(t, claim.Receipt.Events)
}

func TestFundAndOwnership(t *testing.T) {
	ts, chain := newServer(t)
	admin := chain.Admin()
	other := chain.Accounts()[3].Address

	value := math.HexOrDecimal256(*thor.Ether)
	var receipt types.Receipt
	post(t, ts.URL+"/staker/fund", &staker.FundRequest{Caller: other, Amount: &value}, http.StatusOK, &receipt)
	require.Len(t, receipt.Events, 1)

	var summary staker.Summary
	get(t, ts.URL+"/staker", http.StatusOK, &summary)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(1001), thor.Ether), (*big.Int)(summary.Balance))

	post(t, ts.URL+"/staker/lock-period", &staker.LockPeriodRequest{Caller: other, Seconds: 1}, http.StatusBadRequest, nil)
	post(t, ts.URL+"/staker/ownership", &staker.OwnershipRequest{Caller: admin, NewOwner: other}, http.StatusOK, nil)
	post(t, ts.URL+"/staker/lock-period", &staker.LockPeriodRequest{Caller: other, Seconds: 1}, http.StatusOK, nil)
	post(t, ts.URL+"/staker/lock-period", &staker.LockPeriodRequest{Caller: admin, Seconds: 2}, http.StatusBadRequest, nil)

	get(t, ts.URL+"/staker", http.StatusOK, &summary)
	assert.Equal(t, other, summary.Owner)
	assert.Equal(t, uint64(1), summary.LockPeriod)
}

func TestBadRequests(t *testing.T) {
	ts, chain := newServer(t)
	holder := chain.Accounts()[1].Address

	tests := []struct {
		name string
		url  string
		body any
	}{
		{"missing caller", "/staker/stake", &staker.TokenRequest{TokenID: 1}},
		{"stake unknown token", "/staker/stake", &staker.TokenRequest{Caller: holder, TokenID: 5}},
		{"unstake not staked", "/staker/unstake", &staker.TokenRequest{Caller: holder, TokenID: 5}},
		{"fund without amount", "/staker/fund", &staker.FundRequest{Caller: holder}},
		{"unknown field", "/staker/claim", map[string]any{"caller": holder.String(), "all": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post(t, ts.URL+tt.url, tt.body, http.StatusBadRequest, nil)
		})
	}

	get(t, ts.URL+"/staker/stakes/x", http.StatusBadRequest, nil)
	get(t, ts.URL+"/staker/rewards/0x1", http.StatusBadRequest, nil)

	var stake staker.Stake
	get(t, ts.URL+"/staker/stakes/3", http.StatusOK, &stake)
	assert.False(t, stake.Active)
	assert.Equal(t, 0, (*big.Int)(stake.Settled).Sign())
}

func get(t *testing.T, url string, status int, v any) []byte {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, status, res.StatusCode, string(body))
	if v != nil {
		require.NoError(t, json.Unmarshal(body, v))
	}
	return body
}

func post(t *testing.T, url string, in any, status int, v any) []byte {
	data, err := json.Marshal(in)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, status, res.StatusCode, string(body))
	if v != nil {
		require.NoError(t, json.Unmarshal(body, v))
	}
	return body
}
