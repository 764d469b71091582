// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/thor"
	"github.com/nftstaker/nftstaker/tx"
)

const defaultLimit = 1000

var logger = log.WithContext("pkg", "logdb")

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	return open(path, path+"?_journal_mode=WAL")
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return open(":memory:", ":memory:")
}

func open(path, dsn string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// a single connection keeps an in-memory db alive and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path,
		db,
		driverVer,
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// WriteReceipt stores the events of a receipt. Reverted calls have none.
func (db *LogDB) WriteReceipt(receipt *tx.Receipt) error {
	if receipt.Reverted || len(receipt.Events) == 0 {
		return nil
	}
	events := make([]*Event, 0, len(receipt.Events))
	for i, ev := range receipt.Events {
		events = append(events, newEvent(receipt, uint32(i), ev))
	}
	if err := db.insert(events); err != nil {
		return errors.Wrap(err, "insert events")
	}
	metricEventsWritten().Add(int64(len(events)))
	logger.Trace("events written", "txID", receipt.TxID, "count", len(events))
	return nil
}

func (db *LogDB) insert(events []*Event) error {
	return db.execInTx(func(tx *sql.Tx) error {
		for _, event := range events {
			if _, err := tx.Exec("INSERT OR REPLACE INTO event(blockNumber, eventIndex, blockTime, txID, txOrigin, address, topic0, topic1, topic2, topic3, topic4, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);",
				event.BlockNumber,
				event.Index,
				event.BlockTime,
				event.TxID.Bytes(),
				event.TxOrigin.Bytes(),
				event.Address.Bytes(),
				topicValue(event.Topics[0]),
				topicValue(event.Topics[1]),
				topicValue(event.Topics[2]),
				topicValue(event.Topics[3]),
				topicValue(event.Topics[4]),
				event.Data,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *LogDB) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		filter = &EventFilter{}
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT blockNumber, eventIndex, blockTime, txID, txOrigin, address, topic0, topic1, topic2, topic3, topic4, data FROM event WHERE 1"
	condition := "blockNumber"
	if filter.Range != nil {
		if filter.Range.Unit == Time {
			condition = "blockTime"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " AND address = ? "
		}
		for j, topic := range criteria.Topics {
			if topic != nil {
				args = append(args, topic.Bytes())
				stmt += fmt.Sprintf(" AND topic%v = ?", j)
			}
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY blockNumber DESC, eventIndex DESC "
	} else {
		stmt += " ORDER BY blockNumber ASC, eventIndex ASC "
	}

	offset, limit := uint64(0), uint64(defaultLimit)
	if filter.Options != nil {
		offset = filter.Options.Offset
		if filter.Options.Limit > 0 {
			limit = filter.Options.Limit
		}
	}
	stmt += " LIMIT ?, ? "
	args = append(args, offset, limit)

	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			blockNumber uint32
			index       uint32
			blockTime   uint64
			txID        []byte
			txOrigin    []byte
			address     []byte
			topics      [5][]byte
			data        []byte
		)
		if err := rows.Scan(
			&blockNumber,
			&index,
			&blockTime,
			&txID,
			&txOrigin,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&topics[4],
			&data,
		); err != nil {
			return nil, err
		}
		event := &Event{
			BlockNumber: blockNumber,
			Index:       index,
			BlockTime:   blockTime,
			TxID:        thor.BytesToBytes32(txID),
			TxOrigin:    thor.BytesToAddress(txOrigin),
			Address:     thor.BytesToAddress(address),
			Data:        data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := thor.BytesToBytes32(topic)
				event.Topics[i] = &h
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func topicValue(topic *thor.Bytes32) []byte {
	if topic == nil {
		return nil
	}
	return topic.Bytes()
}
