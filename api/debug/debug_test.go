// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package debug

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftstaker/nftstaker/xenv"
)

type fixedClock uint64

func (c fixedClock) Now() uint64 { return uint64(c) }

func serve(clock xenv.Clock, method, path, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	New(clock).Mount(router, "/debug")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func TestIncreaseTime(t *testing.T) {
	clock := xenv.NewManualClock(1000)

	rr := serve(clock, http.MethodPost, "/debug/increase-time", `{"seconds":60}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res TimeResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, uint64(1060), res.Now)
	assert.Equal(t, uint64(1060), clock.Now())

	rr = serve(clock, http.MethodGet, "/debug/time", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, uint64(1060), res.Now)
}

func TestIncreaseTimeSaturates(t *testing.T) {
	clock := xenv.NewManualClock(math.MaxUint64 - 1)

	rr := serve(clock, http.MethodPost, "/debug/increase-time", `{"seconds":10}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint64(math.MaxUint64), clock.Now())
}

func TestIncreaseTimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		clock xenv.Clock
		body  string
		code  int
	}{
		{"fixed clock", fixedClock(5), `{"seconds":1}`, http.StatusForbidden},
		{"bad body", xenv.NewManualClock(5), `{"seconds":"x"}`, http.StatusBadRequest},
		{"unknown field", xenv.NewManualClock(5), `{"days":1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(tt.clock, http.MethodPost, "/debug/increase-time", tt.body)
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
		})
	}
}
