// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

type Registry struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Registry {
	return &Registry{
		rt,
	}
}

func parseTokenID(s string) (registry.TokenID, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	return registry.TokenID(id), nil
}

func requireCaller(caller thor.Address) error {
	if caller.IsZero() {
		return restutil.BadRequest(errors.New("caller: required"))
	}
	return nil
}

// view runs fn against the registry without committing anything.
func (r *Registry) view(fn func(reg *registry.Registry) error) error {
	return r.rt.View(thor.Address{}, func(env *xenv.Environment) error {
		return fn(builtin.Registry.WithState(env.State()))
	})
}

// exec runs fn as a call by caller and writes its receipt.
func (r *Registry) exec(w http.ResponseWriter, caller thor.Address, method string, fn func(env *xenv.Environment) error) error {
	receipt, err := r.rt.Exec(caller, builtin.Registry.Address, method, fn)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, types.ConvertReceipt(receipt))
}

func (r *Registry) handleGetSummary(w http.ResponseWriter, _ *http.Request) error {
	summary := &Summary{Address: builtin.Registry.Address}
	if err := r.view(func(reg *registry.Registry) (err error) {
		if summary.Owner, err = reg.Owner(); err != nil {
			return
		}
		summary.CurrentSupply, err = reg.CurrentSupply()
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, summary)
}

func (r *Registry) handleGetToken(w http.ResponseWriter, req *http.Request) error {
	id, err := parseTokenID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	token := &Token{ID: uint64(id)}
	if err := r.view(func(reg *registry.Registry) (err error) {
		if token.Owner, err = reg.OwnerOf(id); err != nil {
			return
		}
		approved, err := reg.GetApproved(id)
		if err != nil {
			return
		}
		if !approved.IsZero() {
			token.Approved = &approved
		}
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, token)
}

func (r *Registry) handleGetHolder(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	var operator *thor.Address
	if s := req.URL.Query().Get("operator"); s != "" {
		op, err := thor.ParseAddress(s)
		if err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "operator"))
		}
		operator = &op
	}

	holder := &Holder{Address: addr}
	if err := r.view(func(reg *registry.Registry) (err error) {
		if holder.Balance, err = reg.BalanceOf(addr); err != nil {
			return
		}
		if operator != nil {
			approved, err := reg.IsApprovedForAll(addr, *operator)
			if err != nil {
				return err
			}
			holder.ApprovedForAll = &approved
		}
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, holder)
}

func (r *Registry) handleMint(w http.ResponseWriter, req *http.Request) error {
	var body MintRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}

	var id registry.TokenID
	receipt, err := r.rt.Exec(body.Caller, builtin.Registry.Address, "safeMint", func(env *xenv.Environment) (err error) {
		id, err = builtin.Registry.WithEnv(env).SafeMint(env.Caller())
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &MintResult{
		TokenID: uint64(id),
		Receipt: types.ConvertReceipt(receipt),
	})
}

func (r *Registry) handleApprove(w http.ResponseWriter, req *http.Request) error {
	var body ApproveRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	return r.exec(w, body.Caller, "approve", func(env *xenv.Environment) error {
		return builtin.Registry.WithEnv(env).Approve(env.Caller(), body.To, registry.TokenID(body.TokenID))
	})
}

func (r *Registry) handleApproveAll(w http.ResponseWriter, req *http.Request) error {
	var body ApproveAllRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	return r.exec(w, body.Caller, "setApprovalForAll", func(env *xenv.Environment) error {
		return builtin.Registry.WithEnv(env).SetApprovalForAll(env.Caller(), body.Operator, body.Approved)
	})
}

func (r *Registry) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	var body TransferRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	return r.exec(w, body.Caller, "transferFrom", func(env *xenv.Environment) error {
		return builtin.Registry.WithEnv(env).TransferFrom(env.Caller(), body.From, body.To, registry.TokenID(body.TokenID))
	})
}

func (r *Registry) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /registry").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGetSummary))
	sub.Path("/tokens/{id}").
		Methods(http.MethodGet).
		Name("GET /registry/tokens/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGetToken))
	sub.Path("/owners/{address}").
		Methods(http.MethodGet).
		Name("GET /registry/owners/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGetHolder))
	sub.Path("/mint").
		Methods(http.MethodPost).
		Name("POST /registry/mint").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleMint))
	sub.Path("/approve").
		Methods(http.MethodPost).
		Name("POST /registry/approve").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleApprove))
	sub.Path("/approve-all").
		Methods(http.MethodPost).
		Name("POST /registry/approve-all").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleApproveAll))
	sub.Path("/transfer").
		Methods(http.MethodPost).
		Name("POST /registry/transfer").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleTransfer))
}
