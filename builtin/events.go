// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"

	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

var (
	eventTransfer       = Registry.mustEvent("Transfer")
	eventApproval       = Registry.mustEvent("Approval")
	eventApprovalForAll = Registry.mustEvent("ApprovalForAll")

	eventStaked               = Staker.mustEvent("Staked")
	eventUnstaked             = Staker.mustEvent("Unstaked")
	eventRewardsClaimed       = Staker.mustEvent("RewardsClaimed")
	eventLockPeriodChanged    = Staker.mustEvent("LockPeriodChanged")
	eventFunded               = Staker.mustEvent("Funded")
	eventOwnershipTransferred = Staker.mustEvent("OwnershipTransferred")
)

func addressTopic(addr thor.Address) thor.Bytes32 {
	return thor.BytesToBytes32(addr.Bytes())
}

func tokenTopic(id registry.TokenID) thor.Bytes32 {
	return thor.Uint64ToBytes32(uint64(id))
}

// registryEvents logs the registry events into the call env.
type registryEvents struct {
	env *xenv.Environment
}

func (e *registryEvents) Transfer(from, to thor.Address, id registry.TokenID) {
	e.env.Log(eventTransfer, Registry.Address, []thor.Bytes32{addressTopic(from), addressTopic(to), tokenTopic(id)})
}

func (e *registryEvents) Approval(owner, approved thor.Address, id registry.TokenID) {
	e.env.Log(eventApproval, Registry.Address, []thor.Bytes32{addressTopic(owner), addressTopic(approved), tokenTopic(id)})
}

func (e *registryEvents) ApprovalForAll(owner, operator thor.Address, approved bool) {
	e.env.Log(eventApprovalForAll, Registry.Address, []thor.Bytes32{addressTopic(owner), addressTopic(operator)}, approved)
}

// stakerEvents logs the ledger events into the call env.
type stakerEvents struct {
	env *xenv.Environment
}

func (e *stakerEvents) Staked(staker thor.Address, id registry.TokenID, stakedAt uint64) {
	e.env.Log(eventStaked, Staker.Address, []thor.Bytes32{addressTopic(staker), tokenTopic(id)}, stakedAt)
}

func (e *stakerEvents) Unstaked(staker thor.Address, id registry.TokenID, reward *big.Int) {
	e.env.Log(eventUnstaked, Staker.Address, []thor.Bytes32{addressTopic(staker), tokenTopic(id)}, reward)
}

func (e *stakerEvents) RewardsClaimed(staker thor.Address, amount *big.Int) {
	e.env.Log(eventRewardsClaimed, Staker.Address, []thor.Bytes32{addressTopic(staker)}, amount)
}

func (e *stakerEvents) LockPeriodChanged(previous, current uint64) {
	e.env.Log(eventLockPeriodChanged, Staker.Address, nil, previous, current)
}

func (e *stakerEvents) Funded(funder thor.Address, amount *big.Int) {
	e.env.Log(eventFunded, Staker.Address, []thor.Bytes32{addressTopic(funder)}, amount)
}

func (e *stakerEvents) OwnershipTransferred(previous, current thor.Address) {
	e.env.Log(eventOwnershipTransferred, Staker.Address, []thor.Bytes32{addressTopic(previous), addressTopic(current)})
}
