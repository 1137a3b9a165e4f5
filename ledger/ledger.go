// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the synchronized owner of shared validator state.
//
// The Ledger aggregates the transaction pool, the speculative snapshot tree,
// the seed tracker and the durable store behind two synchronization domains:
// the pool carries its own lock so admission never stalls behind block
// execution, while stateMu serializes everything that touches the snapshot
// tree or commits to the store.
package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/log"
	"github.com/korachain/kora/metrics"
	"github.com/korachain/kora/state"
	"github.com/korachain/kora/store"
	"github.com/korachain/kora/tx"
)

var logger = log.WithContext("pkg", "ledger")

var metricFinalizedCount = metrics.LazyLoad(func() metrics.CountMeter {
	return metrics.Counter("ledger_finalized_block_count")
})

var metricSnapshotGauge = metrics.LazyLoad(func() metrics.GaugeMeter {
	return metrics.Gauge("ledger_staged_snapshot_count")
})

// snapshot a staged, executed-but-not-durable block branch.
type snapshot struct {
	blk      *block.Block
	parentID kora.Bytes32
	height   uint64
	root     kora.Bytes32
	changes  *store.ChangeSet
	receipts tx.Receipts
}

// Ledger the single synchronized owner of {pool, snapshot tree, seed
// tracker, durable store}. All shared-state access goes through it.
type Ledger struct {
	pool     Mempool
	seeds    SeedTracker
	executor BlockExecutor

	stateMu       sync.Mutex
	kv            *store.Store
	snaps         map[kora.Bytes32]*snapshot
	durableID     kora.Bytes32
	durableHeight uint64

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates a ledger over the given store.
// anchorID names the block the durable root belongs to; overlays for new
// blocks are built with it as parent until the first finalization.
func New(kv *store.Store, pool Mempool, seeds SeedTracker, executor BlockExecutor, anchorID kora.Bytes32) *Ledger {
	return &Ledger{
		pool:          pool,
		seeds:         seeds,
		executor:      executor,
		kv:            kv,
		snaps:         make(map[kora.Bytes32]*snapshot),
		durableID:     anchorID,
		durableHeight: kv.Height(),
	}
}

// Close releases event subscriptions.
func (l *Ledger) Close() {
	l.scope.Close()
}

// Pool returns the mempool capability.
func (l *Ledger) Pool() Mempool {
	return l.pool
}

// Seeds returns the seed tracker capability.
func (l *Ledger) Seeds() SeedTracker {
	return l.seeds
}

// SubmitTx admits a transaction into the pool. Failures are local and
// returned to the caller, never fatal.
func (l *Ledger) SubmitTx(trx *tx.Transaction) error {
	return l.pool.Add(trx)
}

// SubscribeEvents receivers will receive ledger transition events,
// in finalization order.
func (l *Ledger) SubscribeEvents(ch chan *Event) event.Subscription {
	return l.scope.Track(l.feed.Subscribe(ch))
}

// DurableID returns the id of the last finalized block.
func (l *Ledger) DurableID() kora.Bytes32 {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.durableID
}

// DurableHeight returns the highest finalized height.
func (l *Ledger) DurableHeight() uint64 {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.durableHeight
}

// DurableRoot returns the committed state root.
func (l *Ledger) DurableRoot() kora.Bytes32 {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.kv.Root()
}

// NewOverlay builds an execution-ready overlay seeded from the given
// parent: the durable root plus every still-pending ancestor change set.
// Sibling overlays built on the same parent never observe each other.
func (l *Ledger) NewOverlay(parentID kora.Bytes32) (*state.Overlay, error) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	overlay, _, err := l.overlayLocked(parentID)
	return overlay, err
}

// overlayLocked returns a fresh overlay on top of parentID along with the
// parent's state root.
func (l *Ledger) overlayLocked(parentID kora.Bytes32) (*state.Overlay, kora.Bytes32, error) {
	if parentID == l.durableID {
		return state.NewOverlay(l.kv), l.kv.Root(), nil
	}

	snap, ok := l.snaps[parentID]
	if !ok {
		return nil, kora.Bytes32{}, ErrUnknownSnapshot
	}

	// flatten the pending ancestor chain, oldest first, into the base
	base := state.NewOverlay(l.kv)
	for _, ancestor := range l.ancestryLocked(snap) {
		base.Changes().Merge(ancestor.changes)
	}
	return state.NewOverlay(base), snap.root, nil
}

// ancestryLocked returns the chain from the oldest pending ancestor down to
// snap itself.
func (l *Ledger) ancestryLocked(snap *snapshot) []*snapshot {
	var chain []*snapshot
	for cur := snap; cur != nil; {
		chain = append([]*snapshot{cur}, chain...)
		cur = l.snaps[cur.parentID]
	}
	return chain
}

// ExecuteAndStage runs the block's transactions on an overlay of its parent
// via the external executor, then stages the resulting change set as a
// snapshot keyed by the block id. Nothing touches the store.
func (l *Ledger) ExecuteAndStage(blk *block.Block, ectx *ExecutionContext) (*ExecutionOutcome, error) {
	blockID := blk.Header().ID()
	parentID := blk.Header().ParentID()

	l.stateMu.Lock()
	if snap, staged := l.snaps[blockID]; staged {
		// re-delivered proposal; the executor is deterministic, so the
		// staged snapshot already holds this outcome
		l.stateMu.Unlock()
		return &ExecutionOutcome{
			Changes:  snap.changes,
			GasUsed:  snap.blk.Header().GasUsed(),
			Receipts: snap.receipts,
		}, nil
	}
	overlay, parentRoot, err := l.overlayLocked(parentID)
	l.stateMu.Unlock()
	if err != nil {
		return nil, err
	}

	// execution happens outside stateMu so queries and staging of other
	// branches are not blocked behind it
	outcome, err := l.executor.Execute(overlay, ectx, blk.Transactions())
	if err != nil {
		return nil, err
	}
	if outcome.Changes == nil {
		outcome.Changes = overlay.Changes()
	}

	root := store.ComputeRoot(parentRoot, outcome.Changes)

	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	// the parent may have lost a fork race while we executed
	if parentID != l.durableID {
		if _, ok := l.snaps[parentID]; !ok {
			return nil, ErrUnknownSnapshot
		}
	}
	l.snaps[blockID] = &snapshot{
		blk:      blk,
		parentID: parentID,
		height:   blk.Header().Number(),
		root:     root,
		changes:  outcome.Changes,
		receipts: outcome.Receipts,
	}
	metricSnapshotGauge().Set(int64(len(l.snaps)))
	logger.Debug("block staged", "id", blockID, "root", root.AbbrevString())
	return outcome, nil
}

// StagedRoot returns the state root a staged block would commit.
func (l *Ledger) StagedRoot(blockID kora.Bytes32) (kora.Bytes32, bool) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if snap, ok := l.snaps[blockID]; ok {
		return snap.root, true
	}
	return kora.Bytes32{}, false
}

// Finalize makes a staged block durable: the snapshot's change set is
// committed atomically, superseded snapshots are pruned, included txs leave
// the pool and a Finalized event is emitted.
//
// Finalizing an already-finalized block is a no-op, matching consensus
// re-delivery across restarts. A certified root that disagrees with the
// staged root, an out-of-order height or a failed commit are fatal.
func (l *Ledger) Finalize(blockID kora.Bytes32, certifiedRoot kora.Bytes32) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	if blockID == l.durableID {
		return nil
	}

	snap, ok := l.snaps[blockID]
	if !ok {
		if uint64(block.Number(blockID)) <= l.durableHeight {
			// duplicate delivery of an already pruned block
			return nil
		}
		return newFatalf("finalize of unknown block %v", blockID)
	}

	if snap.height <= l.durableHeight {
		return nil
	}
	if snap.height != l.durableHeight+1 {
		return newFatalf("finalize out of order: height %d, durable %d", snap.height, l.durableHeight)
	}
	if snap.root != certifiedRoot {
		return newFatalf("state root mismatch: staged %v, certified %v", snap.root, certifiedRoot)
	}

	if _, err := l.kv.BatchCommit(snap.changes, snap.height); err != nil {
		return wrapFatal(err, "batch commit")
	}

	l.durableID = blockID
	l.durableHeight = snap.height
	l.pruneLocked(blockID)

	// pool cleanup runs under the pool's own lock; admission was never
	// blocked by the commit above
	txs := snap.blk.Transactions()
	ids := make([]kora.Bytes32, 0, len(txs))
	for _, trx := range txs {
		ids = append(ids, trx.ID())
	}
	l.pool.Remove(ids...)
	for addr, acc := range snap.changes.Accounts {
		l.pool.OnNonceAdvanced(addr, acc.Nonce)
	}
	l.pool.SetBaseFee(snap.blk.Header().BaseFee())

	metricFinalizedCount().Add(1)
	logger.Info("block finalized", "id", blockID, "height", snap.height, "txs", len(txs))

	l.feed.Send(&Event{
		Kind:     Finalized,
		BlockID:  blockID,
		Height:   snap.height,
		Root:     snap.root,
		Block:    snap.blk,
		Receipts: snap.receipts,
	})
	return nil
}

// Nullify discards a staged branch that lost a fork race, along with its
// descendants. The store is never touched; a missing snapshot is a no-op.
func (l *Ledger) Nullify(blockID kora.Bytes32) error {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	snap, ok := l.snaps[blockID]
	if !ok {
		return nil
	}

	for id := range l.snaps {
		if l.descendsLocked(id, blockID) {
			delete(l.snaps, id)
		}
	}
	delete(l.snaps, blockID)
	metricSnapshotGauge().Set(int64(len(l.snaps)))
	logger.Debug("block nullified", "id", blockID, "height", snap.height)

	l.feed.Send(&Event{
		Kind:    Nullified,
		BlockID: blockID,
		Height:  snap.height,
		Root:    snap.root,
	})
	return nil
}

// pruneLocked drops the finalized snapshot itself plus every staged branch
// that does not descend from it.
func (l *Ledger) pruneLocked(finalizedID kora.Bytes32) {
	for id := range l.snaps {
		if !l.descendsLocked(id, finalizedID) {
			delete(l.snaps, id)
		}
	}
	delete(l.snaps, finalizedID)
	metricSnapshotGauge().Set(int64(len(l.snaps)))
}

// descendsLocked reports whether id strictly descends from ancestorID.
func (l *Ledger) descendsLocked(id, ancestorID kora.Bytes32) bool {
	snap, ok := l.snaps[id]
	if !ok {
		return false
	}
	for {
		if snap.parentID == ancestorID {
			return true
		}
		parent, ok := l.snaps[snap.parentID]
		if !ok {
			return false
		}
		snap = parent
	}
}

// Reader returns a read-only view of the latest finalized state.
func (l *Ledger) Reader() state.Reader {
	return l.kv
}

// View returns a snapshot-consistent read-only state keyed by block id.
// Use DurableID for "latest finalized".
func (l *Ledger) View(blockID kora.Bytes32) (state.Reader, error) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()

	if blockID == l.durableID {
		return l.kv, nil
	}
	snap, ok := l.snaps[blockID]
	if !ok {
		return nil, ErrUnknownSnapshot
	}
	view := state.NewOverlay(l.kv)
	for _, ancestor := range l.ancestryLocked(snap) {
		view.Changes().Merge(ancestor.changes)
	}
	return view, nil
}
