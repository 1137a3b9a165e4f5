// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node wires the pool, ledger, bridge and indexer into a runnable
// validator process.
package node

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/korachain/kora/bridge"
	"github.com/korachain/kora/genesis"
	"github.com/korachain/kora/indexer"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/kv"
	"github.com/korachain/kora/ledger"
	"github.com/korachain/kora/log"
	"github.com/korachain/kora/logdb"
	"github.com/korachain/kora/state"
	"github.com/korachain/kora/store"
	"github.com/korachain/kora/txpool"
)

var logger = log.WithContext("pkg", "node")

// Options node wiring parameters. An empty DataDir keeps everything in
// memory.
type Options struct {
	DataDir     string
	ChainTag    byte
	GasLimit    uint64
	Beneficiary kora.Address
	Pool        txpool.Options
}

// Node the assembled validator: durable store, pool, ledger, consensus
// bridge and query indexer, plus the event pump connecting them.
type Node struct {
	opts Options

	db    kv.Store
	st    *store.Store
	logs  *logdb.LogDB
	pool  *txpool.TxPool
	ldgr  *ledger.Ledger
	brdg  *bridge.Bridge
	idx   *indexer.Indexer
	fault chan error
}

// New opens the databases, replays restart-recovery state and wires all
// components. The genesis allocation is committed on first boot only.
func New(gene *genesis.Genesis, exec ledger.BlockExecutor, opts Options) (node *Node, err error) {
	if opts.GasLimit == 0 {
		opts.GasLimit = kora.InitialGasLimit
	}

	var (
		db      kv.Store
		logPath = ":memory:"
	)
	if opts.DataDir == "" {
		db = kv.NewMemStore()
	} else {
		if db, err = kv.NewStore(filepath.Join(opts.DataDir, "main.db"), 128); err != nil {
			return nil, errors.Wrap(err, "open main db")
		}
		logPath = filepath.Join(opts.DataDir, "logs.db")
	}
	defer func() {
		if node == nil {
			db.Close()
		}
	}()

	st, err := store.New(db)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}

	// the anchor names the state the durable root belongs to: the genesis
	// block on first boot, a synthetic root-derived id after restart
	var anchorID kora.Bytes32
	if st.Height() == 0 {
		blk, err := gene.Commit(st)
		if err != nil {
			return nil, err
		}
		anchorID = blk.Header().ID()
	} else {
		anchorID = st.Root()
		logger.Info("resuming from durable state", "height", st.Height(), "root", st.Root().AbbrevString())
	}

	logs, err := logdb.New(logPath)
	if err != nil {
		return nil, errors.Wrap(err, "open log db")
	}

	var ldgr *ledger.Ledger
	pool := txpool.New(opts.ChainTag, func() state.Reader { return ldgr.Reader() }, opts.Pool)
	ldgr = ledger.New(st, pool, ledger.NewSeedTracker(), exec, anchorID)
	brdg := bridge.New(ldgr, bridge.Options{
		GasLimit:    opts.GasLimit,
		Beneficiary: opts.Beneficiary,
	})

	return &Node{
		opts:  opts,
		db:    db,
		st:    st,
		logs:  logs,
		pool:  pool,
		ldgr:  ldgr,
		brdg:  brdg,
		idx:   indexer.New(logs),
		fault: make(chan error, 1),
	}, nil
}

// Ledger returns the ledger service.
func (n *Node) Ledger() *ledger.Ledger { return n.ldgr }

// Bridge returns the consensus-facing bridge.
func (n *Node) Bridge() *bridge.Bridge { return n.brdg }

// Pool returns the transaction pool.
func (n *Node) Pool() *txpool.TxPool { return n.pool }

// Indexer returns the query indexer.
func (n *Node) Indexer() *indexer.Indexer { return n.idx }

// Fault reports a node-level fault. The first fatal one halts Run;
// non-fatal errors are logged and absorbed.
func (n *Node) Fault(err error) {
	if err == nil {
		return
	}
	if !ledger.IsFatal(err) {
		logger.Warn("recoverable fault", "err", err)
		return
	}
	select {
	case n.fault <- err:
	default:
	}
}

// Run pumps finalized blocks into the indexer and blocks until the context
// is canceled or a fatal fault surfaces.
func (n *Node) Run(ctx context.Context) error {
	goes, ctx := errgroup.WithContext(ctx)

	goes.Go(func() error {
		return n.pumpEvents(ctx)
	})
	goes.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-n.fault:
			logger.Error("halting on fatal fault", "err", err)
			return err
		}
	})

	err := goes.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pumpEvents feeds finalized blocks into the indexer in order. An indexing
// failure is not fatal: the indexer is derived state and can be rebuilt.
func (n *Node) pumpEvents(ctx context.Context) error {
	ch := make(chan *ledger.Event, 256)
	sub := n.ldgr.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-ch:
			if ev.Kind != ledger.Finalized {
				continue
			}
			if err := n.idx.InsertBlock(ev.Block, ev.Receipts); err != nil {
				logger.Warn("failed to index block", "height", ev.Height, "err", err)
			}
		}
	}
}

// Close releases every resource in reverse wiring order.
func (n *Node) Close() {
	n.pool.Close()
	n.ldgr.Close()
	n.logs.Close()
	n.db.Close()
}
