// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/api/accounts"
	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/test/datagen"
	"github.com/nftstaker/nftstaker/test/testchain"
	"github.com/nftstaker/nftstaker/thor"
)

var (
	ts    *httptest.Server
	chain *testchain.Chain
)

func TestAccounts(t *testing.T) {
	initAccountServer(t)
	defer ts.Close()
	defer chain.Close()

	for name, tt := range map[string]func(*testing.T){
		"getAccount":                getAccount,
		"getAccountWithBadAddress":  getAccountWithBadAddress,
		"callContract":              callContract,
		"callContractReverted":      callContractReverted,
		"callContractWithBadBody":   callContractWithBadBody,
		"callContractDoesNotCommit": callContractDoesNotCommit,
	} {
		t.Run(name, tt)
	}
}

func initAccountServer(t *testing.T) {
	var err error
	chain, err = testchain.NewDefault()
	require.NoError(t, err)

	router := mux.NewRouter()
	accounts.New(chain.Runtime()).Mount(router, "/accounts")
	ts = httptest.NewServer(router)
}

func getAccount(t *testing.T) {
	res, status := httpGet(t, ts.URL+"/accounts/"+chain.Admin().String())
	require.Equal(t, http.StatusOK, status)

	var acc accounts.Account
	require.NoError(t, json.Unmarshal(res, &acc))
	assert.Equal(t, new(big.Int).Mul(big.NewInt(10000), thor.Ether), (*big.Int)(&acc.Balance))
	assert.False(t, acc.IsBuiltin)

	res, status = httpGet(t, ts.URL+"/accounts/"+builtin.Staker.Address.String())
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(res, &acc))
	assert.True(t, acc.IsBuiltin)

	res, status = httpGet(t, ts.URL+"/accounts/"+datagen.RandAddress().String())
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(res, &acc))
	assert.Equal(t, 0, (*big.Int)(&acc.Balance).Sign())
}

func getAccountWithBadAddress(t *testing.T) {
	_, status := httpGet(t, ts.URL+"/accounts/0xbad")
	assert.Equal(t, http.StatusBadRequest, status)
}

func callContract(t *testing.T) {
	method, _ := builtin.Registry.ABI.MethodByName("owner")
	input, err := method.EncodeInput()
	require.NoError(t, err)

	body, _ := json.Marshal(&accounts.CallData{Data: hexutil.Encode(input)})
	res, status := httpPost(t, ts.URL+"/accounts/"+builtin.Registry.Address.String(), body)
	require.Equal(t, http.StatusOK, status)

	var result accounts.CallResult
	require.NoError(t, json.Unmarshal(res, &result))
	assert.False(t, result.Reverted)
	output, err := hexutil.Decode(result.Data)
	require.NoError(t, err)
	assert.Equal(t, chain.Admin(), thor.BytesToAddress(output))
}

func callContractReverted(t *testing.T) {
	method, _ := builtin.Registry.ABI.MethodByName("ownerOf")
	input, err := method.EncodeInput(big.NewInt(42))
	require.NoError(t, err)

	body, _ := json.Marshal(&accounts.CallData{Data: hexutil.Encode(input)})
	res, status := httpPost(t, ts.URL+"/accounts/"+builtin.Registry.Address.String(), body)
	require.Equal(t, http.StatusOK, status)

	var result accounts.CallResult
	require.NoError(t, json.Unmarshal(res, &result))
	assert.True(t, result.Reverted)
	assert.Equal(t, "Token does not exist: token 42", result.RevertReason)
}

func callContractWithBadBody(t *testing.T) {
	_, status := httpPost(t, ts.URL+"/accounts/"+builtin.Registry.Address.String(), []byte(`{"gas":1}`))
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = httpPost(t, ts.URL+"/accounts/"+builtin.Registry.Address.String(), []byte(`{"data":"zz"}`))
	assert.Equal(t, http.StatusBadRequest, status)
}

func callContractDoesNotCommit(t *testing.T) {
	caller := chain.Accounts()[1].Address
	method, _ := builtin.Registry.ABI.MethodByName("safeMint")
	input, err := method.EncodeInput()
	require.NoError(t, err)

	body, _ := json.Marshal(&accounts.CallData{Data: hexutil.Encode(input), Caller: &caller})
	_, status := httpPost(t, ts.URL+"/accounts/"+builtin.Registry.Address.String(), body)
	require.Equal(t, http.StatusOK, status)

	supply, err := builtin.Registry.WithState(chain.State()).CurrentSupply()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), supply)
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return r, res.StatusCode
}

func httpPost(t *testing.T, url string, body []byte) ([]byte, int) {
	res, err := http.Post(url, "application/json", bytes.NewReader(body)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return r, res.StatusCode
}
