// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bridge translates consensus activity notifications into ledger
// calls. It holds no authority of its own: every invariant lives in the
// ledger, the bridge only sequences calls and counts what it saw.
package bridge

import (
	"math/big"
	"sync"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/ledger"
	"github.com/korachain/kora/log"
	"github.com/korachain/kora/metrics"
)

var logger = log.WithContext("pkg", "bridge")

var metricNullifiedCount = metrics.LazyLoad(func() metrics.CountMeter {
	return metrics.Counter("bridge_nullified_block_count")
})

// Options static block-environment parameters the bridge stamps onto
// execution contexts.
type Options struct {
	GasLimit    uint64
	Beneficiary kora.Address
	BaseFee     *big.Int
}

// Status a point-in-time view of consensus activity, for observability.
type Status struct {
	View           uint64 `json:"view"`
	Height         uint64 `json:"height"`
	NotarizedCount uint64 `json:"notarizedCount"`
	FinalizedCount uint64 `json:"finalizedCount"`
	NullifiedCount uint64 `json:"nullifiedCount"`
}

// Bridge receives activity notifications from the consensus engine and
// drives the ledger accordingly. Consensus may re-deliver notifications
// across restarts; every callback tolerates duplicates.
type Bridge struct {
	ldgr *ledger.Ledger
	opts Options

	lock           sync.Mutex
	notarizedCount uint64
	finalizedCount uint64
	nullifiedCount uint64
}

// New creates a bridge over the given ledger.
func New(ldgr *ledger.Ledger, opts Options) *Bridge {
	if opts.BaseFee == nil {
		opts.BaseFee = new(big.Int).SetUint64(kora.InitialBaseFee)
	}
	return &Bridge{
		ldgr: ldgr,
		opts: opts,
	}
}

// OnSeed records the randomness seed consensus derived for a view.
func (b *Bridge) OnSeed(view uint64, seed kora.Bytes32) {
	b.ldgr.Seeds().OnSeed(view, seed)
}

// ProvideContext builds the execution context for a block proposed on top
// of the given parent.
func (b *Bridge) ProvideContext(parentID kora.Bytes32, timestamp uint64) *ledger.ExecutionContext {
	number := uint64(block.Number(parentID)) + 1
	if parentID == b.ldgr.DurableID() {
		number = b.ldgr.DurableHeight() + 1
	}
	return &ledger.ExecutionContext{
		ParentID:    parentID,
		Number:      number,
		Timestamp:   timestamp,
		Beneficiary: b.opts.Beneficiary,
		GasLimit:    b.opts.GasLimit,
		BaseFee:     new(big.Int).Set(b.opts.BaseFee),
	}
}

// OnProposal executes a proposed block and stages its outcome. A block that
// was already staged is skipped.
func (b *Bridge) OnProposal(blk *block.Block) error {
	ectx := &ledger.ExecutionContext{
		ParentID:    blk.Header().ParentID(),
		Number:      blk.Header().Number(),
		Timestamp:   blk.Header().Timestamp(),
		Beneficiary: blk.Header().Beneficiary(),
		GasLimit:    blk.Header().GasLimit(),
		BaseFee:     blk.Header().BaseFee(),
	}
	if _, err := b.ldgr.ExecuteAndStage(blk, ectx); err != nil {
		return err
	}
	return nil
}

// OnNotarized records that a staged block gathered a notarization quorum.
// Notarization carries no state transition; finality arrives separately
// through OnFinalized.
func (b *Bridge) OnNotarized(blockID kora.Bytes32) {
	b.lock.Lock()
	b.notarizedCount++
	b.lock.Unlock()
	if _, ok := b.ldgr.StagedRoot(blockID); !ok {
		logger.Debug("notarization for unstaged block", "id", blockID)
		return
	}
	logger.Debug("notarization reported", "id", blockID)
}

// OnFinalized commits a certified block. Duplicate delivery of an already
// finalized block is absorbed by the ledger without a second event.
func (b *Bridge) OnFinalized(blockID kora.Bytes32, certifiedRoot kora.Bytes32) error {
	if err := b.ldgr.Finalize(blockID, certifiedRoot); err != nil {
		return err
	}
	b.lock.Lock()
	b.finalizedCount++
	b.lock.Unlock()
	return nil
}

// OnNullified discards a staged block that lost its view.
func (b *Bridge) OnNullified(blockID kora.Bytes32) error {
	if err := b.ldgr.Nullify(blockID); err != nil {
		return err
	}
	b.lock.Lock()
	b.nullifiedCount++
	b.lock.Unlock()
	metricNullifiedCount().Add(1)
	logger.Debug("nullification reported", "id", blockID)
	return nil
}

// Status returns consensus activity counters alongside the durable height.
func (b *Bridge) Status() Status {
	b.lock.Lock()
	defer b.lock.Unlock()
	return Status{
		View:           b.ldgr.Seeds().CurrentView(),
		Height:         b.ldgr.DurableHeight(),
		NotarizedCount: b.notarizedCount,
		FinalizedCount: b.finalizedCount,
		NullifiedCount: b.nullifiedCount,
	}
}
