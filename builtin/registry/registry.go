// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/builtin/solidity"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
)

var (
	slotOwner     = nameToSlot("owner")
	slotSupply    = nameToSlot("supply")
	slotOwners    = nameToSlot("owners")
	slotApprovals = nameToSlot("approvals")
	slotBalances  = nameToSlot("balances")
	slotOperators = nameToSlot("operators")

	logger = log.WithContext("pkg", "registry")
)

func nameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}

// Registry tracks token ownership and approvals.
type Registry struct {
	addr      thor.Address
	owner     *solidity.Address
	supply    *solidity.Raw[uint64]
	owners    *solidity.Mapping[TokenID, thor.Address]
	approvals *solidity.Mapping[TokenID, thor.Address]
	balances  *solidity.Mapping[thor.Address, uint64]
	operators *solidity.Mapping[operatorKey, bool]
	events    Events
}

// New create a new instance. A nil events receiver discards logs.
func New(addr thor.Address, st *state.State, events Events) *Registry {
	if events == nil {
		events = noopEvents{}
	}
	sctx := solidity.NewContext(addr, st)
	return &Registry{
		addr:      addr,
		owner:     solidity.NewAddress(sctx, slotOwner),
		supply:    solidity.NewRaw[uint64](sctx, slotSupply),
		owners:    solidity.NewMapping[TokenID, thor.Address](sctx, slotOwners),
		approvals: solidity.NewMapping[TokenID, thor.Address](sctx, slotApprovals),
		balances:  solidity.NewMapping[thor.Address, uint64](sctx, slotBalances),
		operators: solidity.NewMapping[operatorKey, bool](sctx, slotOperators),
		events:    events,
	}
}

// Initialize records the administrator. It runs once at deployment.
func (r *Registry) Initialize(owner thor.Address) error {
	if owner.IsZero() {
		return reverts.ErrInvalidArgument.Withf("zero owner")
	}
	r.owner.Set(owner)
	return nil
}

func (r *Registry) Address() thor.Address {
	return r.addr
}

func (r *Registry) Owner() (thor.Address, error) {
	return r.owner.Get()
}

func (r *Registry) CurrentSupply() (uint64, error) {
	return r.supply.Get()
}

// SafeMint creates the next token and gives it to caller.
func (r *Registry) SafeMint(caller thor.Address) (TokenID, error) {
	if caller.IsZero() {
		return 0, reverts.ErrInvalidArgument.Withf("mint to zero address")
	}
	supply, err := r.supply.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get supply")
	}
	id := TokenID(supply)

	if err := r.owners.Set(id, caller); err != nil {
		return 0, errors.Wrap(err, "failed to set owner")
	}
	if err := r.addBalance(caller, 1); err != nil {
		return 0, err
	}
	if err := r.supply.Upsert(supply + 1); err != nil {
		return 0, errors.Wrap(err, "failed to set supply")
	}

	r.events.Transfer(thor.Address{}, caller, id)
	logger.Debug("minted", "tokenID", id, "owner", caller)
	return id, nil
}

// OwnerOf returns the owner of a minted token.
func (r *Registry) OwnerOf(id TokenID) (thor.Address, error) {
	supply, err := r.supply.Get()
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to get supply")
	}
	if uint64(id) >= supply {
		return thor.Address{}, reverts.ErrNotFound.Withf("token %d", id)
	}
	owner, err := r.owners.Get(id)
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to get owner")
	}
	return owner, nil
}

func (r *Registry) BalanceOf(owner thor.Address) (uint64, error) {
	return r.balances.Get(owner)
}

// Approve sets the single approved operator of a token.
// The caller must be the owner or an operator approved for all of the owner's tokens.
func (r *Registry) Approve(caller, operator thor.Address, id TokenID) error {
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if operator == owner {
		return reverts.ErrUnauthorized.Withf("approval to current owner")
	}
	if caller != owner {
		all, err := r.IsApprovedForAll(owner, caller)
		if err != nil {
			return err
		}
		if !all {
			return reverts.ErrUnauthorized.Withf("caller is not token owner or approved for all")
		}
	}
	if err := r.approvals.Set(id, operator); err != nil {
		return errors.Wrap(err, "failed to set approval")
	}
	r.events.Approval(owner, operator, id)
	return nil
}

// GetApproved returns the approved operator of a token, zero if none.
func (r *Registry) GetApproved(id TokenID) (thor.Address, error) {
	if _, err := r.OwnerOf(id); err != nil {
		return thor.Address{}, err
	}
	return r.approvals.Get(id)
}

func (r *Registry) SetApprovalForAll(caller, operator thor.Address, approved bool) error {
	if caller == operator {
		return reverts.ErrUnauthorized.Withf("approve to caller")
	}
	key := operatorKey{caller, operator}
	if approved {
		if err := r.operators.Set(key, true); err != nil {
			return errors.Wrap(err, "failed to set operator")
		}
	} else {
		r.operators.Delete(key)
	}
	r.events.ApprovalForAll(caller, operator, approved)
	return nil
}

func (r *Registry) IsApprovedForAll(owner, operator thor.Address) (bool, error) {
	return r.operators.Get(operatorKey{owner, operator})
}

// TransferFrom moves a token from its owner to another address on behalf of spender.
func (r *Registry) TransferFrom(spender, from, to thor.Address, id TokenID) error {
	owner, err := r.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return reverts.ErrNotOwner.Withf("token %d is not owned by %v", id, from)
	}
	if to.IsZero() {
		return reverts.ErrUnauthorized.Withf("transfer to zero address")
	}

	ok, err := r.isApprovedOrOwner(spender, owner, id)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrUnauthorized.Withf("caller is not token owner or approved")
	}

	r.approvals.Delete(id)
	if err := r.subBalance(from, 1); err != nil {
		return err
	}
	if err := r.addBalance(to, 1); err != nil {
		return err
	}
	if err := r.owners.Set(id, to); err != nil {
		return errors.Wrap(err, "failed to set owner")
	}

	r.events.Transfer(from, to, id)
	logger.Debug("transferred", "tokenID", id, "from", from, "to", to)
	return nil
}

func (r *Registry) isApprovedOrOwner(spender, owner thor.Address, id TokenID) (bool, error) {
	if spender == owner {
		return true, nil
	}
	approved, err := r.approvals.Get(id)
	if err != nil {
		return false, errors.Wrap(err, "failed to get approval")
	}
	if !approved.IsZero() && approved == spender {
		return true, nil
	}
	return r.IsApprovedForAll(owner, spender)
}

func (r *Registry) addBalance(addr thor.Address, n uint64) error {
	bal, err := r.balances.Get(addr)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	return errors.Wrap(r.balances.Set(addr, bal+n), "failed to set balance")
}

func (r *Registry) subBalance(addr thor.Address, n uint64) error {
	bal, err := r.balances.Get(addr)
	if err != nil {
		return errors.Wrap(err, "failed to get balance")
	}
	if bal < n {
		return errors.New("balance underflow")
	}
	if bal == n {
		r.balances.Delete(addr)
		return nil
	}
	return errors.Wrap(r.balances.Set(addr, bal-n), "failed to set balance")
}
