// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package indexer_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/indexer"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/logdb"
	"github.com/korachain/kora/tx"
)

func newIndexer(t *testing.T) *indexer.Indexer {
	logs, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(logs.Close)
	return indexer.New(logs)
}

func makeBlock(t *testing.T, number uint64, txCount int) (*block.Block, tx.Receipts) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)

	builder := new(block.Builder).Number(number).Timestamp(number * 10)
	var receipts tx.Receipts
	for i := 0; i < txCount; i++ {
		to := kora.BytesToAddress([]byte{0xaa})
		trx := tx.MustSign(new(tx.Builder).
			ChainTag(0xf6).
			Nonce(uint64(i)).
			Gas(21_000).
			MaxFeePerGas(big.NewInt(10)).
			MaxPriorityFeePerGas(big.NewInt(0)).
			To(&to).
			Value(big.NewInt(int64(number))).
			Build(), pk)
		builder.Transaction(trx)
		receipts = append(receipts, &tx.Receipt{
			TxID:    trx.ID(),
			GasUsed: 21_000,
			Logs:    []*tx.Log{{Address: to, Topics: []kora.Bytes32{kora.BytesToBytes32([]byte{byte(number)})}}},
		})
	}
	return builder.Build(), receipts
}

func TestBlockLookups(t *testing.T) {
	idx := newIndexer(t)

	blk, receipts := makeBlock(t, 1, 2)
	require.NoError(t, idx.InsertBlock(blk, receipts))

	byNumber, err := idx.GetBlockByNumber(1)
	require.NoError(t, err)
	assert.Equal(t, blk.Header().ID(), byNumber.Header().ID())

	byID, err := idx.GetBlockByID(blk.Header().ID())
	require.NoError(t, err)
	assert.Equal(t, blk.Header().ID(), byID.Header().ID())

	best, err := idx.BestBlock()
	require.NoError(t, err)
	assert.Equal(t, blk.Header().ID(), best.Header().ID())

	_, err = idx.GetBlockByNumber(9)
	assert.ErrorIs(t, err, indexer.ErrNotFound)
}

func TestTransactionAndReceiptLookups(t *testing.T) {
	idx := newIndexer(t)

	blk, receipts := makeBlock(t, 1, 2)
	require.NoError(t, idx.InsertBlock(blk, receipts))

	wanted := blk.Transactions()[1]
	got, blockID, txIndex, err := idx.GetTransaction(wanted.ID())
	require.NoError(t, err)
	assert.Equal(t, wanted.ID(), got.ID())
	assert.Equal(t, blk.Header().ID(), blockID)
	assert.Equal(t, 1, txIndex)

	receipt, err := idx.GetReceipt(wanted.ID())
	require.NoError(t, err)
	assert.Equal(t, wanted.ID(), receipt.TxID)

	_, _, _, err = idx.GetTransaction(kora.BytesToBytes32([]byte("missing")))
	assert.ErrorIs(t, err, indexer.ErrNotFound)
	_, err = idx.GetReceipt(kora.BytesToBytes32([]byte("missing")))
	assert.ErrorIs(t, err, indexer.ErrNotFound)
}

func TestGetLogs(t *testing.T) {
	idx := newIndexer(t)

	for number := uint64(1); number <= 5; number++ {
		blk, receipts := makeBlock(t, number, 1)
		require.NoError(t, idx.InsertBlock(blk, receipts))
	}

	entries, err := idx.GetLogs(context.Background(), &logdb.Filter{
		FromBlock: 2,
		ToBlock:   4,
		Addresses: []kora.Address{kora.BytesToAddress([]byte{0xaa})},
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(2), entries[0].BlockNumber)
	assert.Equal(t, uint64(4), entries[2].BlockNumber)

	// an inverted range is a caller error, not an empty result
	_, err = idx.GetLogs(context.Background(), &logdb.Filter{FromBlock: 4, ToBlock: 2})
	assert.ErrorIs(t, err, indexer.ErrInvalidFilter)
}

func TestReset(t *testing.T) {
	idx := newIndexer(t)

	var kept *block.Block
	for number := uint64(1); number <= 5; number++ {
		blk, receipts := makeBlock(t, number, 1)
		require.NoError(t, idx.InsertBlock(blk, receipts))
		if number == 2 {
			kept = blk
		}
	}

	require.NoError(t, idx.Reset(2))

	_, err := idx.GetBlockByNumber(3)
	assert.ErrorIs(t, err, indexer.ErrNotFound)

	best, err := idx.BestBlock()
	require.NoError(t, err)
	assert.Equal(t, kept.Header().ID(), best.Header().ID())

	entries, err := idx.GetLogs(context.Background(), &logdb.Filter{FromBlock: 0, ToBlock: 100})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
