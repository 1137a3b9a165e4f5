// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb stores receipt logs of finalized blocks in sqlite and
// answers range/address/topic filter queries over them. All content is
// derived from finalized blocks and may be rebuilt from scratch.
package logdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/tx"
)

// LogDB the sqlite-backed log store.
type LogDB struct {
	path string
	db   *sql.DB
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(logTableSchema); err != nil {
		return nil, err
	}
	return &LogDB{path, db}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() {
	db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// Insert stores every log of the block's receipts within one transaction.
// Re-inserting a block number that is already present replaces its rows, so
// duplicate finalization deliveries stay idempotent.
func (db *LogDB) Insert(header *block.Header, txs tx.Transactions, receipts tx.Receipts) error {
	dbTx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec("DELETE FROM log WHERE blockNumber = ?", header.Number()); err != nil {
		return err
	}

	for txIndex, receipt := range receipts {
		var txID kora.Bytes32
		if txIndex < len(txs) {
			txID = txs[txIndex].ID()
		}
		for logIndex, l := range receipt.Logs {
			entry := newEntry(header, txID, uint32(txIndex), uint32(logIndex), l)
			var topics [4][]byte
			for i, topic := range entry.Topics {
				if topic != nil {
					topics[i] = topic.Bytes()
				}
			}
			if _, err := dbTx.Exec(
				"INSERT INTO log(blockID, blockNumber, blockTime, txID, txIndex, logIndex, address, topic0, topic1, topic2, topic3, data) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)",
				entry.BlockID.Bytes(),
				entry.BlockNumber,
				entry.BlockTime,
				entry.TxID.Bytes(),
				entry.TxIndex,
				entry.LogIndex,
				entry.Address.Bytes(),
				topics[0],
				topics[1],
				topics[2],
				topics[3],
				entry.Data,
			); err != nil {
				return err
			}
		}
	}
	return dbTx.Commit()
}

// Filter returns matching entries ordered by (block number, tx index, log
// index). A nil filter returns everything.
func (db *LogDB) Filter(ctx context.Context, filter *Filter) ([]*Entry, error) {
	if filter == nil {
		return db.query(ctx, "SELECT * FROM log ORDER BY blockNumber ASC, txIndex ASC, logIndex ASC")
	}

	var args []interface{}
	stmt := "SELECT * FROM log WHERE 1"

	args = append(args, filter.FromBlock)
	stmt += " AND blockNumber >= ?"
	if filter.ToBlock >= filter.FromBlock {
		args = append(args, filter.ToBlock)
		stmt += " AND blockNumber <= ?"
	}

	if len(filter.Addresses) > 0 {
		stmt += " AND ("
		for i, addr := range filter.Addresses {
			if i > 0 {
				stmt += " OR "
			}
			args = append(args, addr.Bytes())
			stmt += "address = ?"
		}
		stmt += ")"
	}

	for pos, allowed := range filter.Topics {
		if len(allowed) == 0 {
			continue
		}
		stmt += " AND ("
		for i, topic := range allowed {
			if i > 0 {
				stmt += " OR "
			}
			args = append(args, topic.Bytes())
			stmt += fmt.Sprintf("topic%v = ?", pos)
		}
		stmt += ")"
	}

	stmt += " ORDER BY blockNumber ASC, txIndex ASC, logIndex ASC"
	return db.query(ctx, stmt, args...)
}

// Truncate drops every entry above the given block number, for rebuilds
// after a reset.
func (db *LogDB) Truncate(blockNumber uint64) error {
	_, err := db.db.Exec("DELETE FROM log WHERE blockNumber > ?", blockNumber)
	return err
}

func (db *LogDB) query(ctx context.Context, stmt string, args ...interface{}) ([]*Entry, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			blockID     []byte
			blockNumber uint64
			blockTime   uint64
			txID        []byte
			txIndex     uint32
			logIndex    uint32
			address     []byte
			topics      [4][]byte
			data        []byte
		)
		if err := rows.Scan(
			&blockID,
			&blockNumber,
			&blockTime,
			&txID,
			&txIndex,
			&logIndex,
			&address,
			&topics[0],
			&topics[1],
			&topics[2],
			&topics[3],
			&data,
		); err != nil {
			return nil, err
		}
		entry := &Entry{
			BlockID:     kora.BytesToBytes32(blockID),
			BlockNumber: blockNumber,
			BlockTime:   blockTime,
			TxID:        kora.BytesToBytes32(txID),
			TxIndex:     txIndex,
			LogIndex:    logIndex,
			Address:     kora.BytesToAddress(address),
			Data:        data,
		}
		for i, topic := range topics {
			if len(topic) > 0 {
				h := kora.BytesToBytes32(topic)
				entry.Topics[i] = &h
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
