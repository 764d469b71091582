// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

type Accounts struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Accounts {
	return &Accounts{
		rt,
	}
}

func (a *Accounts) getAccount(addr thor.Address) (*Account, error) {
	var balance *big.Int
	if err := a.rt.View(addr, func(env *xenv.Environment) (err error) {
		balance, err = env.State().GetBalance(addr)
		return
	}); err != nil {
		return nil, err
	}
	return &Account{
		Balance:   math.HexOrDecimal256(*balance),
		IsBuiltin: builtin.IsBuiltin(addr),
	}, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	acc, err := a.getAccount(addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, acc)
}

func (a *Accounts) handleCallContract(w http.ResponseWriter, req *http.Request) error {
	callData := &CallData{}
	if err := restutil.ParseJSON(req.Body, &callData); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	clause, err := (&types.Clause{To: &addr, Value: callData.Value, Data: callData.Data}).Convert()
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	var caller thor.Address
	if callData.Caller != nil {
		caller = *callData.Caller
	}

	output, err := a.rt.InspectClause(caller, clause)
	if err != nil {
		if !reverts.IsRevertErr(err) {
			return err
		}
		return restutil.WriteJSON(w, &CallResult{
			Data:         hexutil.Encode(nil),
			Reverted:     true,
			RevertReason: err.Error(),
		})
	}
	return restutil.WriteJSON(w, &CallResult{
		Data: hexutil.Encode(output),
	})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleCallContract))
}
