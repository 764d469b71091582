// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/builtin"
	"github.com/nftstaker/nftstaker/builtin/reverts"
	"github.com/nftstaker/nftstaker/kv"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
	"github.com/nftstaker/nftstaker/xenv"
)

var (
	logger = log.WithContext("pkg", "runtime")

	receiptBucket = kv.Bucket("r")
	bestNumberKey = []byte("best")
)

// Clause is a single call into the ledger host.
type Clause struct {
	To    thor.Address
	Value *big.Int
	Data  []byte
}

// ReceiptWriter receives the receipt of every executed call.
type ReceiptWriter interface {
	WriteReceipt(r *tx.Receipt) error
}

// Runtime executes calls against the builtin contracts one at a time.
// Every call runs on a state checkpoint, an error discards all of its changes.
type Runtime struct {
	mu       sync.Mutex
	state    *state.State
	receipts kv.Store
	clock    xenv.Clock
	number   uint32
	writers  []ReceiptWriter
}

// New create a Runtime object. Receipts and the block height are kept in db.
func New(st *state.State, db kv.Store, clock xenv.Clock) (*Runtime, error) {
	receipts := receiptBucket.NewStore(db)

	var number uint32
	data, err := receipts.Get(bestNumberKey)
	if err != nil && !receipts.IsNotFound(err) {
		return nil, errors.Wrap(err, "load best number")
	}
	if len(data) == 4 {
		number = binary.BigEndian.Uint32(data)
	}

	return &Runtime{
		state:    st,
		receipts: receipts,
		clock:    clock,
		number:   number,
	}, nil
}

// AddReceiptWriter registers w to be notified after every call.
func (rt *Runtime) AddReceiptWriter(w ReceiptWriter) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.writers = append(rt.writers, w)
}

func (rt *Runtime) Clock() xenv.Clock { return rt.clock }

// BlockNumber returns the number of calls executed so far.
func (rt *Runtime) BlockNumber() uint32 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.number
}

// Exec runs fn as a state changing call by origin to the contract at to.
// A revert yields a receipt marked reverted together with the revert error. Other errors yield no receipt.
func (rt *Runtime) Exec(origin, to thor.Address, method string, fn func(env *xenv.Environment) error) (*tx.Receipt, error) {
	return rt.exec(origin, to, method, nil, func(env *xenv.Environment) ([]byte, error) {
		return nil, fn(env)
	})
}

// ExecuteClause runs an ABI encoded call, or a plain transfer when the target is not a builtin contract.
func (rt *Runtime) ExecuteClause(origin thor.Address, clause *Clause) (*tx.Receipt, error) {
	if !builtin.IsBuiltin(clause.To) {
		if len(clause.Data) > 0 {
			return nil, reverts.ErrInvalidArgument.Withf("no contract at %v", clause.To)
		}
		return rt.exec(origin, clause.To, "transfer", clause.Value, func(env *xenv.Environment) ([]byte, error) {
			err := env.State().Transfer(origin, clause.To, env.Value())
			if errors.Is(err, state.ErrInsufficientBalance) {
				return nil, reverts.ErrInsufficientFunds.Withf("sender %v", origin)
			}
			return nil, err
		})
	}

	m, found := builtin.FindNativeMethod(clause.To, clause.Data)
	if !found {
		return nil, reverts.ErrInvalidArgument.Withf("method not found")
	}
	return rt.exec(origin, clause.To, m.Name(), clause.Value, func(env *xenv.Environment) ([]byte, error) {
		return m.Call(env, clause.Data)
	})
}

// View runs fn at the current time and discards every change it makes.
func (rt *Runtime) View(origin thor.Address, fn func(env *xenv.Environment) error) error {
	_, err := rt.view(origin, nil, func(env *xenv.Environment) ([]byte, error) {
		return nil, fn(env)
	})
	return err
}

// InspectClause simulates an ABI encoded call and returns its output.
func (rt *Runtime) InspectClause(origin thor.Address, clause *Clause) ([]byte, error) {
	m, found := builtin.FindNativeMethod(clause.To, clause.Data)
	if !found {
		return nil, reverts.ErrInvalidArgument.Withf("method not found")
	}
	return rt.view(origin, clause.Value, func(env *xenv.Environment) ([]byte, error) {
		return m.Call(env, clause.Data)
	})
}

// GetReceipt returns the receipt of the call with the given id.
func (rt *Runtime) GetReceipt(id thor.Bytes32) (*tx.Receipt, error) {
	data, err := rt.receipts.Get(id.Bytes())
	if err != nil {
		return nil, err
	}
	return tx.DecodeReceipt(data)
}

// IsNotFound reports whether err means a missing receipt.
func (rt *Runtime) IsNotFound(err error) bool {
	return rt.receipts.IsNotFound(err)
}

func (rt *Runtime) view(origin thor.Address, value *big.Int, fn func(env *xenv.Environment) ([]byte, error)) ([]byte, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	env := xenv.New(
		rt.state,
		&xenv.BlockContext{Number: rt.number, Time: rt.clock.Now()},
		&xenv.TransactionContext{Origin: origin, Value: value},
	)
	checkpoint := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(checkpoint)

	return fn(env)
}

func (rt *Runtime) exec(origin, to thor.Address, method string, value *big.Int, fn func(env *xenv.Environment) ([]byte, error)) (*tx.Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	start := time.Now()
	number := rt.number + 1
	blockCtx := &xenv.BlockContext{Number: number, Time: rt.clock.Now()}
	txCtx := &xenv.TransactionContext{ID: tx.NewID(origin, number, 0), Origin: origin, Value: value}
	env := xenv.New(rt.state, blockCtx, txCtx)

	receipt := &tx.Receipt{
		TxID:        txCtx.ID,
		Origin:      origin,
		To:          to,
		Method:      method,
		BlockNumber: number,
		BlockTime:   blockCtx.Time,
	}

	checkpoint := rt.state.NewCheckpoint()
	output, callErr := fn(env)
	if callErr != nil {
		rt.state.RevertTo(checkpoint)
		if !reverts.IsRevertErr(callErr) {
			metricCallCount().AddWithLabel(1, map[string]string{"method": method, "status": "error"})
			logger.Warn("call failed", "method", method, "origin", origin, "error", callErr)
			return nil, callErr
		}
		receipt.Reverted = true
		receipt.RevertReason = callErr.Error()
	} else {
		receipt.Output = output
		receipt.Events = env.Events()
	}

	if err := rt.commit(receipt); err != nil {
		return nil, err
	}

	status := "ok"
	if receipt.Reverted {
		status = "reverted"
	}
	metricCallCount().AddWithLabel(1, map[string]string{"method": method, "status": status})
	metricCallDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"method": method})
	metricBlockNumber().Set(int64(number))

	logger.Debug("executed", "method", method, "origin", origin, "number", number, "status", status, "events", len(receipt.Events))

	for _, w := range rt.writers {
		if err := w.WriteReceipt(receipt); err != nil {
			logger.Warn("failed to deliver receipt", "txID", receipt.TxID, "error", err)
		}
	}
	return receipt, callErr
}

// commit persists the state changes and the receipt, then moves the height forward.
func (rt *Runtime) commit(receipt *tx.Receipt) error {
	if err := rt.state.Commit(); err != nil {
		return errors.Wrap(err, "commit state")
	}

	data, err := tx.EncodeReceipt(receipt)
	if err != nil {
		return errors.Wrap(err, "encode receipt")
	}
	var best [4]byte
	binary.BigEndian.PutUint32(best[:], receipt.BlockNumber)

	bulk := rt.receipts.Bulk()
	if err := bulk.Put(receipt.TxID.Bytes(), data); err != nil {
		return err
	}
	if err := bulk.Put(bestNumberKey, best[:]); err != nil {
		return err
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "write receipt")
	}
	rt.number = receipt.BlockNumber
	return nil
}
