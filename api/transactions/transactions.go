// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/thor"
)

type Transactions struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Transactions {
	return &Transactions{
		rt,
	}
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var tx Transaction
	if err := restutil.ParseJSON(req.Body, &tx); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if tx.Origin.IsZero() {
		return restutil.BadRequest(errors.New("origin: required"))
	}
	clause, err := tx.Clause.Convert()
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "clause"))
	}

	receipt, err := t.rt.ExecuteClause(tx.Origin, clause)
	if err != nil {
		return err
	}
	metricTxCounter().AddWithLabel(1, map[string]string{"method": receipt.Method})
	return restutil.WriteJSON(w, &SendTxResult{ID: receipt.TxID})
}

func (t *Transactions) handleGetTransactionReceiptByID(w http.ResponseWriter, req *http.Request) error {
	id, err := thor.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	receipt, err := t.rt.GetReceipt(id)
	if err != nil {
		if t.rt.IsNotFound(err) {
			return restutil.WriteJSON(w, nil)
		}
		return err
	}
	return restutil.WriteJSON(w, types.ConvertReceipt(receipt))
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/{id}/receipt").
		Methods(http.MethodGet).
		Name("GET /transactions/{id}/receipt").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGetTransactionReceiptByID))
}
