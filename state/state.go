// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/cache"
	"github.com/nftstaker/nftstaker/kv"
	"github.com/nftstaker/nftstaker/stackedmap"
	"github.com/nftstaker/nftstaker/thor"
)

const (
	accountBucket = kv.Bucket("a")
	storageBucket = kv.Bucket("s")

	readCacheSize = 4096
)

// ErrInsufficientBalance is returned by Transfer when the sender cannot cover the amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

type keyKind byte

const (
	accountKey keyKind = iota
	storageKey
)

type stateKey struct {
	kind keyKind
	addr thor.Address
	slot thor.Bytes32
}

func (k stateKey) dbKey() []byte {
	if k.kind == accountKey {
		return k.addr.Bytes()
	}
	return append(k.addr.Bytes(), k.slot[:]...)
}

// State manages the world state: account balances and contract storage.
// Writes are journaled and only reach the underlying store on Commit.
type State struct {
	db       kv.Store
	accounts kv.Store
	storage  kv.Store
	cache    *cache.LRU[stateKey, []byte]
	sm       *stackedmap.StackedMap[stateKey, []byte]
}

// New create state object backed by db.
func New(db kv.Store) *State {
	c, _ := cache.NewLRU[stateKey, []byte](readCacheSize)
	s := &State{
		db:       db,
		accounts: accountBucket.NewStore(db),
		storage:  storageBucket.NewStore(db),
		cache:    c,
	}
	s.sm = stackedmap.New(s.load)
	s.sm.Push()
	return s
}

func (s *State) store(kind keyKind) kv.Store {
	if kind == accountKey {
		return s.accounts
	}
	return s.storage
}

// load implements stackedmap.MapGetter.
func (s *State) load(key stateKey) ([]byte, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(key stateKey) ([]byte, error) {
		st := s.store(key.kind)
		v, err := st.Get(key.dbKey())
		if err != nil {
			if st.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *State) getAccount(addr thor.Address) (*Account, error) {
	raw, _, err := s.sm.Get(stateKey{kind: accountKey, addr: addr})
	if err != nil {
		return nil, err
	}
	return decodeAccount(raw)
}

func (s *State) updateAccount(addr thor.Address, acc *Account) error {
	raw, err := encodeAccount(acc)
	if err != nil {
		return err
	}
	s.sm.Put(stateKey{kind: accountKey, addr: addr}, raw)
	return nil
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr thor.Address) (*big.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return acc.Balance, nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{errors.New("negative balance")}
	}
	acc, err := s.getAccount(addr)
	if err != nil {
		return &Error{err}
	}
	acc.Balance = new(big.Int).Set(balance)
	if err := s.updateAccount(addr, acc); err != nil {
		return &Error{err}
	}
	return nil
}

// AddBalance credits amount to addr.
func (s *State) AddBalance(addr thor.Address, amount *big.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	return s.SetBalance(addr, new(big.Int).Add(bal, amount))
}

// Transfer moves amount from one address to another.
// ErrInsufficientBalance is returned, with no change applied, when from cannot cover it.
func (s *State) Transfer(from, to thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := s.GetBalance(from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := s.SetBalance(from, new(big.Int).Sub(bal, amount)); err != nil {
		return err
	}
	return s.AddBalance(to, amount)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// structured value, expose its hash
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(stateKey{storageKey, addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(stateKey{storageKey, addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Dirty reports whether there are uncommitted changes.
func (s *State) Dirty() bool {
	return len(s.sm.Journal()) > 0
}

// Commit flushes all journaled changes to the underlying store atomically.
func (s *State) Commit() error {
	journal := s.sm.Journal()
	if len(journal) == 0 {
		return nil
	}

	// last write wins
	latest := make(map[stateKey][]byte, len(journal))
	order := make([]stateKey, 0, len(journal))
	for _, entry := range journal {
		if _, seen := latest[entry.Key]; !seen {
			order = append(order, entry.Key)
		}
		latest[entry.Key] = entry.Value
	}

	bulk := s.db.Bulk()
	accounts, storage := accountBucket.NewPutter(bulk), storageBucket.NewPutter(bulk)
	var nAccounts, nStorage int64
	for _, key := range order {
		putter := storage
		if key.kind == accountKey {
			putter = accounts
			nAccounts++
		} else {
			nStorage++
		}
		var err error
		if v := latest[key]; len(v) == 0 {
			err = putter.Delete(key.dbKey())
		} else {
			err = putter.Put(key.dbKey(), v)
		}
		if err != nil {
			return &Error{errors.Wrap(err, "stage change")}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{errors.Wrap(err, "write changes")}
	}

	for _, key := range order {
		s.cache.Add(key, latest[key])
	}
	s.sm.PopTo(0)
	s.sm.Push()

	metricStateWrites().AddWithLabel(nAccounts, map[string]string{"type": "account"})
	metricStateWrites().AddWithLabel(nStorage, map[string]string{"type": "storage"})
	_, _, rate := s.cache.Stats().Snapshot()
	metricCacheHitRatio().Set(int64(rate * 1000))
	return nil
}
