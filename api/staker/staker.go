// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/api/restutil"
	"github.com/nftstaker/nftstaker/api/types"
	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/staker"
	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

type Staker struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Staker {
	return &Staker{
		rt,
	}
}

func requireCaller(caller thor.Address) error {
	if caller.IsZero() {
		return restutil.BadRequest(errors.New("caller: required"))
	}
	return nil
}

func parseAddress(req *http.Request) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return thor.Address{}, restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

// view runs fn against the ledger at the current time without committing anything.
func (s *Staker) view(fn func(ledger *staker.Staker, now uint64) error) error {
	return s.rt.View(thor.Address{}, func(env *xenv.Environment) error {
		return fn(builtin.Staker.WithState(env.State()), env.Now())
	})
}

// exec runs fn as a call by caller and writes its receipt.
func (s *Staker) exec(w http.ResponseWriter, caller thor.Address, method string, fn func(ledger *staker.Staker, env *xenv.Environment) error) error {
	receipt, err := s.rt.Exec(caller, builtin.Staker.Address, method, func(env *xenv.Environment) error {
		return fn(builtin.Staker.WithEnv(env), env)
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, types.ConvertReceipt(receipt))
}

func (s *Staker) handleGetSummary(w http.ResponseWriter, _ *http.Request) error {
	summary := &Summary{Address: builtin.Staker.Address}
	if err := s.view(func(ledger *staker.Staker, _ uint64) (err error) {
		if summary.Owner, err = ledger.Owner(); err != nil {
			return
		}
		if summary.Registry, err = ledger.Registry(); err != nil {
			return
		}
		if summary.LockPeriod, err = ledger.LockPeriod(); err != nil {
			return
		}
		if summary.LockPolicy, err = ledger.LockPolicy(); err != nil {
			return
		}
		strategy, err := ledger.Strategy()
		if err != nil {
			return
		}
		summary.Strategy = &Strategy{Name: strategy.Name(), Amount: amount(strategy.Amount())}
		balance, err := ledger.Balance()
		if err != nil {
			return
		}
		summary.Balance = amount(balance)
		summary.ActiveStakes, err = ledger.ActiveStakes()
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, summary)
}

func (s *Staker) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 0, 64)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	var stake *Stake
	if err := s.view(func(ledger *staker.Staker, _ uint64) error {
		st, err := ledger.GetStake(registry.TokenID(id))
		if err != nil {
			return err
		}
		stake = convertStake(id, st)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, stake)
}

func (s *Staker) handleGetRewards(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	var rewards *big.Int
	if err := s.view(func(ledger *staker.Staker, now uint64) (err error) {
		rewards, err = ledger.ViewRewards(addr, now)
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Rewards{Address: addr, Rewards: amount(rewards)})
}

func (s *Staker) handleGetStakedTokens(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	ids := make([]uint64, 0)
	if err := s.view(func(ledger *staker.Staker, _ uint64) error {
		tokens, err := ledger.StakedTokens(addr)
		if err != nil {
			return err
		}
		for _, id := range tokens {
			ids = append(ids, uint64(id))
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, ids)
}

func (s *Staker) handleSetLockPeriod(w http.ResponseWriter, req *http.Request) error {
	var body LockPeriodRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	return s.exec(w, body.Caller, "setLockTimePeriod", func(ledger *staker.Staker, env *xenv.Environment) error {
		return ledger.SetLockTimePeriod(env.Caller(), body.Seconds)
	})
}

func (s *Staker) handleStake(w http.ResponseWriter, req *http.Request) error {
	var body TokenRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	return s.exec(w, body.Caller, "stake", func(ledger *staker.Staker, env *xenv.Environment) error {
		return ledger.Stake(env.Caller(), registry.TokenID(body.TokenID), env.Now())
	})
}

func (s *Staker) handleUnStake(w http.ResponseWriter, req *http.Request) error {
	var body TokenRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	return s.exec(w, body.Caller, "unStake", func(ledger *staker.Staker, env *xenv.Environment) error {
		return ledger.UnStake(env.Caller(), registry.TokenID(body.TokenID), env.Now())
	})
}

func (s *Staker) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var body ClaimRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}

	var paid *big.Int
	receipt, err := s.rt.Exec(body.Caller, builtin.Staker.Address, "claimRewards", func(env *xenv.Environment) (err error) {
		paid, err = builtin.Staker.WithEnv(env).ClaimRewards(env.Caller(), env.Now())
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &ClaimResult{
		Amount:  amount(paid),
		Receipt: types.ConvertReceipt(receipt),
	})
}

func (s *Staker) handleFund(w http.ResponseWriter, req *http.Request) error {
	var body FundRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	if body.Amount == nil {
		return restutil.BadRequest(errors.New("amount: required"))
	}
	return s.exec(w, body.Caller, "fund", func(ledger *staker.Staker, env *xenv.Environment) error {
		return ledger.Fund(env.Caller(), (*big.Int)(body.Amount))
	})
}

func (s *Staker) handleTransferOwnership(w http.ResponseWriter, req *http.Request) error {
	var body OwnershipRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if err := requireCaller(body.Caller); err != nil {
		return err
	}
	return s.exec(w, body.Caller, "transferOwnership", func(ledger *staker.Staker, env *xenv.Environment) error {
		return ledger.TransferOwnership(env.Caller(), body.NewOwner)
	})
}

func (s *Staker) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /staker").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetSummary))
	sub.Path("/stakes/{id}").
		Methods(http.MethodGet).
		Name("GET /staker/stakes/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/rewards/{address}").
		Methods(http.MethodGet).
		Name("GET /staker/rewards/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetRewards))
	sub.Path("/stakers/{address}/tokens").
		Methods(http.MethodGet).
		Name("GET /staker/stakers/{address}/tokens").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetStakedTokens))
	sub.Path("/lock-period").
		Methods(http.MethodPost).
		Name("POST /staker/lock-period").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSetLockPeriod))
	sub.Path("/stake").
		Methods(http.MethodPost).
		Name("POST /staker/stake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleStake))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("POST /staker/unstake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleUnStake))
	sub.Path("/claim").
		Methods(http.MethodPost).
		Name("POST /staker/claim").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleClaim))
	sub.Path("/fund").
		Methods(http.MethodPost).
		Name("POST /staker/fund").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleFund))
	sub.Path("/ownership").
		Methods(http.MethodPost).
		Name("POST /staker/ownership").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleTransferOwnership))
}
