// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftstaker/nftstaker/abi"
	"github.com/nftstaker/nftstaker/builtin/registry"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/xenv"
)

type addressAndMethodID struct {
	thor.Address
	abi.MethodID
}

var nativeMethods = make(map[addressAndMethodID]*nativeMethod)

// FindNativeMethod returns the method of the builtin contract at to selected by input.
func FindNativeMethod(to thor.Address, input []byte) (*nativeMethod, bool) {
	id, err := abi.ExtractMethodID(input)
	if err != nil {
		return nil, false
	}
	m, found := nativeMethods[addressAndMethodID{to, id}]
	return m, found
}

// IsBuiltin reports whether addr hosts a builtin contract.
func IsBuiltin(addr thor.Address) bool {
	return addr == Registry.Address || addr == Staker.Address
}

func toTokenID(v *big.Int) (registry.TokenID, error) {
	if v == nil || !v.IsUint64() {
		return 0, reverts.ErrNotFound.Withf("token %v", v)
	}
	return registry.TokenID(v.Uint64()), nil
}

func init() {
	defines := []*nativeMethod{
		Registry.impl("owner", func(env *xenv.Environment) ([]any, error) {
			owner, err := Registry.WithEnv(env).Owner()
			return []any{common.Address(owner)}, err
		}),
		Registry.impl("currentSupply", func(env *xenv.Environment) ([]any, error) {
			supply, err := Registry.WithEnv(env).CurrentSupply()
			return []any{new(big.Int).SetUint64(supply)}, err
		}),
		Registry.impl("safeMint", func(env *xenv.Environment) ([]any, error) {
			id, err := Registry.WithEnv(env).SafeMint(env.Caller())
			return []any{new(big.Int).SetUint64(uint64(id))}, err
		}),
		Registry.impl("ownerOf", func(env *xenv.Environment) ([]any, error) {
			var arg *big.Int
			if err := env.ParseArgs(&arg); err != nil {
				return nil, err
			}
			id, err := toTokenID(arg)
			if err != nil {
				return nil, err
			}
			owner, err := Registry.WithEnv(env).OwnerOf(id)
			return []any{common.Address(owner)}, err
		}),
		Registry.impl("balanceOf", func(env *xenv.Environment) ([]any, error) {
			var owner common.Address
			if err := env.ParseArgs(&owner); err != nil {
				return nil, err
			}
			n, err := Registry.WithEnv(env).BalanceOf(thor.Address(owner))
			return []any{new(big.Int).SetUint64(n)}, err
		}),
		Registry.impl("approve", func(env *xenv.Environment) ([]any, error) {
			var args struct {
				To      common.Address
				TokenId *big.Int
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			id, err := toTokenID(args.TokenId)
			if err != nil {
				return nil, err
			}
			return nil, Registry.WithEnv(env).Approve(env.Caller(), thor.Address(args.To), id)
		}),
		Registry.impl("getApproved", func(env *xenv.Environment) ([]any, error) {
			var arg *big.Int
			if err := env.ParseArgs(&arg); err != nil {
				return nil, err
			}
			id, err := toTokenID(arg)
			if err != nil {
				return nil, err
			}
			approved, err := Registry.WithEnv(env).GetApproved(id)
			return []any{common.Address(approved)}, err
		}),
		Registry.impl("setApprovalForAll", func(env *xenv.Environment) ([]any, error) {
			var args struct {
				Operator common.Address
				Approved bool
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			return nil, Registry.WithEnv(env).SetApprovalForAll(env.Caller(), thor.Address(args.Operator), args.Approved)
		}),
		Registry.impl("isApprovedForAll", func(env *xenv.Environment) ([]any, error) {
			var args struct {
				Owner    common.Address
				Operator common.Address
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			ok, err := Registry.WithEnv(env).IsApprovedForAll(thor.Address(args.Owner), thor.Address(args.Operator))
			return []any{ok}, err
		}),
		Registry.impl("transferFrom", func(env *xenv.Environment) ([]any, error) {
			var args struct {
				From    common.Address
				To      common.Address
				TokenId *big.Int
			}
			if err := env.ParseArgs(&args); err != nil {
				return nil, err
			}
			id, err := toTokenID(args.TokenId)
			if err != nil {
				return nil, err
			}
			return nil, Registry.WithEnv(env).TransferFrom(env.Caller(), thor.Address(args.From), thor.Address(args.To), id)
		}),

		Staker.impl("owner", func(env *xenv.Environment) ([]any, error) {
			owner, err := Staker.WithEnv(env).Owner()
			return []any{common.Address(owner)}, err
		}),
		Staker.impl("registry", func(env *xenv.Environment) ([]any, error) {
			addr, err := Staker.WithEnv(env).Registry()
			return []any{common.Address(addr)}, err
		}),
		Staker.impl("lockPeriod", func(env *xenv.Environment) ([]any, error) {
			period, err := Staker.WithEnv(env).LockPeriod()
			return []any{period}, err
		}),
		Staker.impl("setLockTimePeriod", func(env *xenv.Environment) ([]any, error) {
			var seconds uint64
			if err := env.ParseArgs(&seconds); err != nil {
				return nil, err
			}
			return nil, Staker.WithEnv(env).SetLockTimePeriod(env.Caller(), seconds)
		}),
		Staker.impl("stake", func(env *xenv.Environment) ([]any, error) {
			var arg *big.Int
			if err := env.ParseArgs(&arg); err != nil {
				return nil, err
			}
			id, err := toTokenID(arg)
			if err != nil {
				return nil, err
			}
			return nil, Staker.WithEnv(env).Stake(env.Caller(), id, env.Now())
		}),
		Staker.impl("unStake", func(env *xenv.Environment) ([]any, error) {
			var arg *big.Int
			if err := env.ParseArgs(&arg); err != nil {
				return nil, err
			}
			id, err := toTokenID(arg)
			if err != nil {
				return nil, reverts.ErrNotStaked.Withf("token %v", arg)
			}
			return nil, Staker.WithEnv(env).UnStake(env.Caller(), id, env.Now())
		}),
		Staker.impl("viewRewards", func(env *xenv.Environment) ([]any, error) {
			var addr common.Address
			if err := env.ParseArgs(&addr); err != nil {
				return nil, err
			}
			rewards, err := Staker.WithEnv(env).ViewRewards(thor.Address(addr), env.Now())
			return []any{rewards}, err
		}),
		Staker.impl("claimRewards", func(env *xenv.Environment) ([]any, error) {
			paid, err := Staker.WithEnv(env).ClaimRewards(env.Caller(), env.Now())
			return []any{paid}, err
		}),
		Staker.impl("getStake", func(env *xenv.Environment) ([]any, error) {
			var arg *big.Int
			if err := env.ParseArgs(&arg); err != nil {
				return nil, err
			}
			id, err := toTokenID(arg)
			if err != nil {
				return nil, err
			}
			st, err := Staker.WithEnv(env).GetStake(id)
			if err != nil {
				return nil, err
			}
			return []any{common.Address(st.Staker), st.StakedAt, st.LockPeriod, st.Settled, st.Active}, nil
		}),
		Staker.impl("stakedTokens", func(env *xenv.Environment) ([]any, error) {
			var addr common.Address
			if err := env.ParseArgs(&addr); err != nil {
				return nil, err
			}
			ids, err := Staker.WithEnv(env).StakedTokens(thor.Address(addr))
			if err != nil {
				return nil, err
			}
			out := make([]*big.Int, 0, len(ids))
			for _, id := range ids {
				out = append(out, new(big.Int).SetUint64(uint64(id)))
			}
			return []any{out}, nil
		}),
		Staker.impl("balance", func(env *xenv.Environment) ([]any, error) {
			bal, err := Staker.WithEnv(env).Balance()
			return []any{bal}, err
		}),
		Staker.impl("fund", func(env *xenv.Environment) ([]any, error) {
			return nil, Staker.WithEnv(env).Fund(env.Caller(), env.Value())
		}),
		Staker.impl("transferOwnership", func(env *xenv.Environment) ([]any, error) {
			var newOwner common.Address
			if err := env.ParseArgs(&newOwner); err != nil {
				return nil, err
			}
			return nil, Staker.WithEnv(env).TransferOwnership(env.Caller(), thor.Address(newOwner))
		}),
	}

	for _, m := range defines {
		nativeMethods[addressAndMethodID{m.contract.Address, m.method.ID()}] = m
	}
}
