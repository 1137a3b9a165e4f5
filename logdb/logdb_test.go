// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/logdb"
	"github.com/korachain/kora/tx"
)

func addr(b byte) kora.Address {
	return kora.BytesToAddress([]byte{b})
}

func b32(b byte) kora.Bytes32 {
	return kora.BytesToBytes32([]byte{b})
}

func header(number uint64) *block.Header {
	return new(block.Builder).Number(number).Timestamp(number * 10).Build().Header()
}

// insertBlock stores one block holding one tx whose receipt carries the
// given logs.
func insertBlock(t *testing.T, db *logdb.LogDB, number uint64, logs ...*tx.Log) {
	h := header(number)
	receipts := tx.Receipts{{Logs: logs}}
	require.NoError(t, db.Insert(h, nil, receipts))
}

func TestFilterRange(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	for number := uint64(1); number <= 30; number++ {
		insertBlock(t, db, number, &tx.Log{Address: addr(1), Topics: []kora.Bytes32{b32(1)}})
	}

	entries, err := db.Filter(context.Background(), &logdb.Filter{FromBlock: 10, ToBlock: 20})
	require.NoError(t, err)
	require.Len(t, entries, 11, "block range is inclusive on both ends")
	assert.Equal(t, uint64(10), entries[0].BlockNumber)
	assert.Equal(t, uint64(20), entries[len(entries)-1].BlockNumber)
}

func TestFilterAddressAllowList(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	insertBlock(t, db, 1, &tx.Log{Address: addr(1)}, &tx.Log{Address: addr(2)}, &tx.Log{Address: addr(3)})

	entries, err := db.Filter(context.Background(), &logdb.Filter{
		FromBlock: 1,
		ToBlock:   1,
		Addresses: []kora.Address{addr(1), addr(3)},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, addr(1), entries[0].Address)
	assert.Equal(t, addr(3), entries[1].Address)
}

func TestFilterTopics(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	insertBlock(t, db, 1,
		&tx.Log{Address: addr(1), Topics: []kora.Bytes32{b32(1), b32(10)}},
		&tx.Log{Address: addr(1), Topics: []kora.Bytes32{b32(1), b32(20)}},
		&tx.Log{Address: addr(1), Topics: []kora.Bytes32{b32(2), b32(10)}},
	)

	// OR within a position
	entries, err := db.Filter(context.Background(), &logdb.Filter{
		FromBlock: 1, ToBlock: 1,
		Topics: [4][]kora.Bytes32{{b32(1), b32(2)}},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// AND across positions
	entries, err = db.Filter(context.Background(), &logdb.Filter{
		FromBlock: 1, ToBlock: 1,
		Topics: [4][]kora.Bytes32{{b32(1)}, {b32(20)}},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b32(20), *entries[0].Topics[1])

	// a position with no allow-list matches anything
	entries, err = db.Filter(context.Background(), &logdb.Filter{
		FromBlock: 1, ToBlock: 1,
		Topics: [4][]kora.Bytes32{{}, {b32(10)}},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFilterOrdering(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	// two txs in one block, multiple logs per tx
	h := header(5)
	receipts := tx.Receipts{
		{Logs: []*tx.Log{{Address: addr(1)}, {Address: addr(1)}}},
		{Logs: []*tx.Log{{Address: addr(1)}}},
	}
	require.NoError(t, db.Insert(h, nil, receipts))
	insertBlock(t, db, 3, &tx.Log{Address: addr(1)})

	entries, err := db.Filter(context.Background(), &logdb.Filter{FromBlock: 0, ToBlock: 10})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, uint64(3), entries[0].BlockNumber)
	for i, want := range []struct{ txIndex, logIndex uint32 }{{0, 0}, {0, 1}, {1, 0}} {
		assert.Equal(t, uint64(5), entries[i+1].BlockNumber)
		assert.Equal(t, want.txIndex, entries[i+1].TxIndex)
		assert.Equal(t, want.logIndex, entries[i+1].LogIndex)
	}
}

func TestInsertIdempotent(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	insertBlock(t, db, 1, &tx.Log{Address: addr(1)})
	insertBlock(t, db, 1, &tx.Log{Address: addr(1)})

	entries, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "re-inserting a block must not duplicate its logs")
}

func TestTruncate(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	for number := uint64(1); number <= 5; number++ {
		insertBlock(t, db, number, &tx.Log{Address: addr(1)})
	}
	require.NoError(t, db.Truncate(2))

	entries, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[1].BlockNumber)
}
