// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package debug

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/xenv"
)

var logger = log.WithContext("pkg", "debug")

// Debug exposes the development only controls of the ledger.
type Debug struct {
	clock xenv.Clock
}

func New(clock xenv.Clock) *Debug {
	return &Debug{
		clock,
	}
}

func (d *Debug) handleGetTime(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &TimeResult{Now: d.clock.Now()})
}

// handleIncreaseTime fast-forwards the ledger clock so lock periods can elapse without waiting.
func (d *Debug) handleIncreaseTime(w http.ResponseWriter, req *http.Request) error {
	traveler, ok := d.clock.(xenv.TimeTraveler)
	if !ok {
		return restutil.Forbidden(errors.New("clock does not support time travel"))
	}

	var body IncreaseTimeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	now := traveler.IncreaseTime(body.Seconds)
	logger.Info("time increased", "seconds", body.Seconds, "now", now)
	return restutil.WriteJSON(w, &TimeResult{Now: now})
}

func (d *Debug) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/time").
		Methods(http.MethodGet).
		Name("GET /debug/time").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleGetTime))
	sub.Path("/increase-time").
		Methods(http.MethodPost).
		Name("POST /debug/increase-time").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleIncreaseTime))
}
