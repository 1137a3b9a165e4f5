// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/ledger"
	"github.com/korachain/kora/node"
	"github.com/korachain/kora/store"
)

type soloOptions struct {
	interval time.Duration
	onDemand bool
	gasLimit uint64
}

// solo stands in for the consensus engine: it proposes a block from the
// pool's pending set, certifies its own root and drives the bridge the way
// a real engine would.
type solo struct {
	node *node.Node
	exec ledger.BlockExecutor
	opts soloOptions
	view uint64
}

func newSolo(n *node.Node, exec ledger.BlockExecutor, opts soloOptions) *solo {
	return &solo{
		node: n,
		exec: exec,
		opts: opts,
	}
}

func (s *solo) loop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.interval)
	defer ticker.Stop()

	// the pool ticker fires on admission, so on-demand production reacts
	// to submissions instead of polling
	demand := s.node.Pool().NewTicker()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.produce(true)
		case <-demand.C():
			if s.opts.onDemand {
				s.produce(false)
			}
		}
	}
}

// produce runs the full consensus round against the bridge: seed, proposal,
// finalization with the certified root.
func (s *solo) produce(force bool) {
	ldgr := s.node.Ledger()
	brdg := s.node.Bridge()

	txs := s.node.Pool().Pending(1000)
	if len(txs) == 0 && !force {
		return
	}

	parentID := ldgr.DurableID()
	ectx := brdg.ProvideContext(parentID, uint64(time.Now().Unix()))
	ectx.GasLimit = s.opts.gasLimit

	overlay, err := ldgr.NewOverlay(parentID)
	if err != nil {
		s.node.Fault(err)
		return
	}
	outcome, err := s.exec.Execute(overlay, ectx, txs)
	if err != nil {
		logger.Warn("proposal execution failed", "err", err)
		return
	}
	stateRoot := store.ComputeRoot(ldgr.DurableRoot(), outcome.Changes)

	builder := new(block.Builder).
		ParentID(parentID).
		Number(ectx.Number).
		Timestamp(ectx.Timestamp).
		Beneficiary(ectx.Beneficiary).
		GasLimit(ectx.GasLimit).
		GasUsed(outcome.GasUsed).
		BaseFee(ectx.BaseFee).
		StateRoot(stateRoot).
		ReceiptsRoot(outcome.Receipts.RootHash())
	for _, trx := range txs {
		builder.Transaction(trx)
	}
	blk := builder.Build()
	blockID := blk.Header().ID()

	s.view++
	brdg.OnSeed(s.view, kora.BytesToBytes32(crypto.Keccak256(blockID.Bytes())))

	if err := brdg.OnProposal(blk); err != nil {
		s.node.Fault(err)
		return
	}
	brdg.OnNotarized(blockID)
	if err := brdg.OnFinalized(blockID, stateRoot); err != nil {
		s.node.Fault(err)
		return
	}
	logger.Info("new block committed", "id", blockID.AbbrevString(), "height", ectx.Number, "txs", len(txs))
}
