// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package indexer maintains lookup tables over finalized blocks for RPC
// queries. Everything here is derived state: it is rebuilt by replaying the
// finalized-block feed and holds no authority over consistency.
package indexer

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/log"
	"github.com/korachain/kora/logdb"
	"github.com/korachain/kora/metrics"
	"github.com/korachain/kora/tx"
)

var logger = log.WithContext("pkg", "indexer")

var metricBlockCount = metrics.LazyLoad(func() metrics.GaugeMeter {
	return metrics.Gauge("indexer_block_count")
})

// ErrNotFound returned when the queried block, tx or receipt is unknown.
var ErrNotFound = errors.New("not found")

// ErrInvalidFilter returned for malformed log filters.
var ErrInvalidFilter = errors.New("invalid filter")

type txPosition struct {
	blockID kora.Bytes32
	index   int
}

// Indexer indexes finalized blocks by number and id, transactions and
// receipts by tx id, and logs through the sqlite log store.
type Indexer struct {
	logs *logdb.LogDB

	lock      sync.RWMutex
	byID      map[kora.Bytes32]*block.Block
	byNumber  map[uint64]kora.Bytes32
	txs       map[kora.Bytes32]txPosition
	receipts  map[kora.Bytes32]*tx.Receipt
	bestBlock kora.Bytes32
}

// New creates an indexer backed by the given log store.
func New(logs *logdb.LogDB) *Indexer {
	return &Indexer{
		logs:     logs,
		byID:     make(map[kora.Bytes32]*block.Block),
		byNumber: make(map[uint64]kora.Bytes32),
		txs:      make(map[kora.Bytes32]txPosition),
		receipts: make(map[kora.Bytes32]*tx.Receipt),
	}
}

// InsertBlock records a finalized block along with its receipts.
// Re-inserting the same block is idempotent.
func (i *Indexer) InsertBlock(blk *block.Block, receipts tx.Receipts) error {
	header := blk.Header()
	blockID := header.ID()
	txs := blk.Transactions()

	if err := i.logs.Insert(header, txs, receipts); err != nil {
		return errors.Wrap(err, "insert logs")
	}

	i.lock.Lock()
	defer i.lock.Unlock()

	i.byID[blockID] = blk
	i.byNumber[header.Number()] = blockID
	for index, trx := range txs {
		i.txs[trx.ID()] = txPosition{blockID: blockID, index: index}
		if index < len(receipts) {
			i.receipts[trx.ID()] = receipts[index]
		}
	}
	i.bestBlock = blockID
	metricBlockCount().Set(int64(len(i.byID)))
	logger.Debug("block indexed", "number", header.Number(), "txs", len(txs))
	return nil
}

// BestBlock returns the most recently indexed block.
func (i *Indexer) BestBlock() (*block.Block, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	if blk, ok := i.byID[i.bestBlock]; ok {
		return blk, nil
	}
	return nil, ErrNotFound
}

// GetBlockByID returns the finalized block with the given id.
func (i *Indexer) GetBlockByID(id kora.Bytes32) (*block.Block, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	if blk, ok := i.byID[id]; ok {
		return blk, nil
	}
	return nil, ErrNotFound
}

// GetBlockByNumber returns the finalized block at the given height.
func (i *Indexer) GetBlockByNumber(number uint64) (*block.Block, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	if id, ok := i.byNumber[number]; ok {
		return i.byID[id], nil
	}
	return nil, ErrNotFound
}

// GetTransaction returns a finalized transaction plus its inclusion
// position.
func (i *Indexer) GetTransaction(txID kora.Bytes32) (*tx.Transaction, kora.Bytes32, int, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	pos, ok := i.txs[txID]
	if !ok {
		return nil, kora.Bytes32{}, 0, ErrNotFound
	}
	blk := i.byID[pos.blockID]
	return blk.Transactions()[pos.index], pos.blockID, pos.index, nil
}

// GetReceipt returns the receipt of a finalized transaction.
func (i *Indexer) GetReceipt(txID kora.Bytes32) (*tx.Receipt, error) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	if receipt, ok := i.receipts[txID]; ok {
		return receipt, nil
	}
	return nil, ErrNotFound
}

// GetLogs answers a log filter query. Entries come back ordered by
// (block number, tx index, log index).
func (i *Indexer) GetLogs(ctx context.Context, filter *logdb.Filter) ([]*logdb.Entry, error) {
	if filter != nil && filter.ToBlock < filter.FromBlock {
		return nil, errors.Wrapf(ErrInvalidFilter, "block range [%d, %d]", filter.FromBlock, filter.ToBlock)
	}
	return i.logs.Filter(ctx, filter)
}

// Reset drops all derived state above the given height so it can be rebuilt
// from the finalized-block feed.
func (i *Indexer) Reset(height uint64) error {
	if err := i.logs.Truncate(height); err != nil {
		return err
	}

	i.lock.Lock()
	defer i.lock.Unlock()
	for number, id := range i.byNumber {
		if number <= height {
			continue
		}
		blk := i.byID[id]
		for _, trx := range blk.Transactions() {
			delete(i.txs, trx.ID())
			delete(i.receipts, trx.ID())
		}
		delete(i.byID, id)
		delete(i.byNumber, number)
	}
	if bestID, ok := i.byNumber[height]; ok {
		i.bestBlock = bestID
	} else {
		i.bestBlock = kora.Bytes32{}
	}
	metricBlockCount().Set(int64(len(i.byID)))
	return nil
}
