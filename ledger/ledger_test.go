// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/executor"
	"github.com/korachain/kora/genesis"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/kv"
	"github.com/korachain/kora/ledger"
	"github.com/korachain/kora/state"
	"github.com/korachain/kora/store"
	"github.com/korachain/kora/tx"
	"github.com/korachain/kora/txpool"
)

const testChainTag = 0xf6

type testEnv struct {
	ldgr     *ledger.Ledger
	pool     *txpool.TxPool
	st       *store.Store
	anchorID kora.Bytes32
}

func newTestEnv(t *testing.T) *testEnv {
	st, err := store.New(kv.NewMemStore())
	require.NoError(t, err)

	gene := genesis.Devnet(uint64(time.Now().Unix()))
	blk, err := gene.Commit(st)
	require.NoError(t, err)

	var ldgr *ledger.Ledger
	pool := txpool.New(testChainTag, func() state.Reader { return ldgr.Reader() }, txpool.Options{
		Limit:           100,
		LimitPerAccount: 16,
	})
	t.Cleanup(pool.Close)

	ldgr = ledger.New(st, pool, ledger.NewSeedTracker(), executor.New(), blk.Header().ID())
	t.Cleanup(ldgr.Close)

	return &testEnv{
		ldgr:     ldgr,
		pool:     pool,
		st:       st,
		anchorID: blk.Header().ID(),
	}
}

func transferTx(account genesis.DevAccount, nonce uint64, to kora.Address, amount int64) *tx.Transaction {
	return tx.MustSign(new(tx.Builder).
		ChainTag(testChainTag).
		Nonce(nonce).
		Gas(21_000).
		MaxFeePerGas(big.NewInt(1000)).
		MaxPriorityFeePerGas(big.NewInt(0)).
		To(&to).
		Value(big.NewInt(amount)).
		Build(), account.PrivateKey)
}

// stage builds a block with the given txs on parentID and stages it,
// returning the block and its staged root.
func (env *testEnv) stage(t *testing.T, parentID kora.Bytes32, number uint64, txs ...*tx.Transaction) (*block.Block, kora.Bytes32) {
	builder := new(block.Builder).
		ParentID(parentID).
		Number(number).
		Timestamp(uint64(time.Now().Unix())).
		GasLimit(kora.InitialGasLimit).
		BaseFee(big.NewInt(1))
	for _, trx := range txs {
		builder.Transaction(trx)
	}
	blk := builder.Build()

	_, err := env.ldgr.ExecuteAndStage(blk, &ledger.ExecutionContext{
		ParentID:  parentID,
		Number:    number,
		Timestamp: blk.Header().Timestamp(),
		GasLimit:  blk.Header().GasLimit(),
		BaseFee:   blk.Header().BaseFee(),
	})
	require.NoError(t, err)

	root, ok := env.ldgr.StagedRoot(blk.Header().ID())
	require.True(t, ok)
	return blk, root
}

func TestFinalizeFlow(t *testing.T) {
	env := newTestEnv(t)
	sender := genesis.DevAccounts()[0]
	recipient := kora.BytesToAddress([]byte{0xaa})

	trx := transferTx(sender, 0, recipient, 12345)
	require.NoError(t, env.pool.Add(trx))
	require.Equal(t, 1, env.pool.Len())

	ch := make(chan *ledger.Event, 10)
	sub := env.ldgr.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	blk, root := env.stage(t, env.anchorID, 1, trx)
	require.NoError(t, env.ldgr.Finalize(blk.Header().ID(), root))

	assert.Equal(t, uint64(1), env.ldgr.DurableHeight())
	assert.Equal(t, blk.Header().ID(), env.ldgr.DurableID())
	assert.Equal(t, root, env.ldgr.DurableRoot())

	balance, err := state.GetBalance(env.ldgr.Reader(), recipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12345), balance)

	nonce, err := state.GetNonce(env.ldgr.Reader(), sender.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// included tx left the pool
	assert.Zero(t, env.pool.Len())

	select {
	case ev := <-ch:
		assert.Equal(t, ledger.Finalized, ev.Kind)
		assert.Equal(t, uint64(1), ev.Height)
		assert.Equal(t, root, ev.Root)
		require.NotNil(t, ev.Block)
		assert.Len(t, ev.Receipts, 1)
	default:
		t.Fatal("no finalized event")
	}
}

func TestRestageReturnsStagedOutcome(t *testing.T) {
	env := newTestEnv(t)
	sender := genesis.DevAccounts()[0]
	trx := transferTx(sender, 0, kora.BytesToAddress([]byte{0xaa}), 7)

	blk, root := env.stage(t, env.anchorID, 1, trx)

	// a re-delivered proposal yields the outcome held by the snapshot
	outcome, err := env.ldgr.ExecuteAndStage(blk, &ledger.ExecutionContext{
		ParentID:  blk.Header().ParentID(),
		Number:    blk.Header().Number(),
		Timestamp: blk.Header().Timestamp(),
		GasLimit:  blk.Header().GasLimit(),
		BaseFee:   blk.Header().BaseFee(),
	})
	require.NoError(t, err)
	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Changes)
	assert.Len(t, outcome.Receipts, 1)
	assert.Equal(t, root, store.ComputeRoot(env.ldgr.DurableRoot(), outcome.Changes))
}

func TestFinalizeDuplicateIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	blk, root := env.stage(t, env.anchorID, 1)

	ch := make(chan *ledger.Event, 10)
	sub := env.ldgr.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	require.NoError(t, env.ldgr.Finalize(blk.Header().ID(), root))
	rootAfterFirst := env.ldgr.DurableRoot()

	// consensus may re-deliver the same finalization
	require.NoError(t, env.ldgr.Finalize(blk.Header().ID(), root))
	assert.Equal(t, rootAfterFirst, env.ldgr.DurableRoot())
	assert.Equal(t, uint64(1), env.ldgr.DurableHeight())
	assert.Len(t, ch, 1, "duplicate finalize must not emit a second event")
}

func TestFinalizeRootMismatchIsFatal(t *testing.T) {
	env := newTestEnv(t)
	blk, _ := env.stage(t, env.anchorID, 1)

	err := env.ldgr.Finalize(blk.Header().ID(), kora.BytesToBytes32([]byte("bogus")))
	require.Error(t, err)
	assert.True(t, ledger.IsFatal(err))
	assert.Equal(t, uint64(0), env.ldgr.DurableHeight())
}

func TestFinalizeOutOfOrderIsFatal(t *testing.T) {
	env := newTestEnv(t)
	parent, _ := env.stage(t, env.anchorID, 1)
	child, childRoot := env.stage(t, parent.Header().ID(), 2)

	err := env.ldgr.Finalize(child.Header().ID(), childRoot)
	require.Error(t, err)
	assert.True(t, ledger.IsFatal(err))
}

func TestFinalizeUnknownBlockIsFatal(t *testing.T) {
	env := newTestEnv(t)

	// an id claiming height 9 that was never staged
	var unknown kora.Bytes32
	unknown[3] = 9
	unknown[10] = 0xff
	err := env.ldgr.Finalize(unknown, kora.Bytes32{})
	require.Error(t, err)
	assert.True(t, ledger.IsFatal(err))
}

func TestNullify(t *testing.T) {
	env := newTestEnv(t)
	sender := genesis.DevAccounts()[1]
	recipient := kora.BytesToAddress([]byte{0xbb})

	rootBefore := env.ldgr.DurableRoot()
	blk, _ := env.stage(t, env.anchorID, 1, transferTx(sender, 0, recipient, 777))

	ch := make(chan *ledger.Event, 10)
	sub := env.ldgr.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	require.NoError(t, env.ldgr.Nullify(blk.Header().ID()))

	// nothing reached the store
	assert.Equal(t, rootBefore, env.ldgr.DurableRoot())
	assert.Equal(t, uint64(0), env.ldgr.DurableHeight())
	_, ok := env.ldgr.StagedRoot(blk.Header().ID())
	assert.False(t, ok)

	select {
	case ev := <-ch:
		assert.Equal(t, ledger.Nullified, ev.Kind)
	default:
		t.Fatal("no nullified event")
	}

	// a second nullify of the same block is a silent no-op
	require.NoError(t, env.ldgr.Nullify(blk.Header().ID()))
	assert.Len(t, ch, 1)
}

func TestSiblingForksAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	accounts := genesis.DevAccounts()
	leftRecipient := kora.BytesToAddress([]byte{0xcc})
	rightRecipient := kora.BytesToAddress([]byte{0xdd})

	left, leftRoot := env.stage(t, env.anchorID, 1, transferTx(accounts[0], 0, leftRecipient, 100))
	right, rightRoot := env.stage(t, env.anchorID, 1, transferTx(accounts[1], 0, rightRecipient, 200))
	assert.NotEqual(t, leftRoot, rightRoot)

	// each staged view sees only its own branch
	leftView, err := env.ldgr.View(left.Header().ID())
	require.NoError(t, err)
	balance, err := state.GetBalance(leftView, rightRecipient)
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())

	require.NoError(t, env.ldgr.Finalize(left.Header().ID(), leftRoot))

	// the losing fork was pruned; nullifying it is a no-op with no
	// store mutation
	require.NoError(t, env.ldgr.Nullify(right.Header().ID()))
	balance, err = state.GetBalance(env.ldgr.Reader(), rightRecipient)
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())

	balance, err = state.GetBalance(env.ldgr.Reader(), leftRecipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), balance)
}

func TestChainedStaging(t *testing.T) {
	env := newTestEnv(t)
	sender := genesis.DevAccounts()[2]
	recipient := kora.BytesToAddress([]byte{0xee})

	first, firstRoot := env.stage(t, env.anchorID, 1, transferTx(sender, 0, recipient, 10))
	second, secondRoot := env.stage(t, first.Header().ID(), 2, transferTx(sender, 1, recipient, 20))

	// the child view accumulates both branches' writes
	view, err := env.ldgr.View(second.Header().ID())
	require.NoError(t, err)
	balance, err := state.GetBalance(view, recipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), balance)

	require.NoError(t, env.ldgr.Finalize(first.Header().ID(), firstRoot))
	require.NoError(t, env.ldgr.Finalize(second.Header().ID(), secondRoot))

	assert.Equal(t, uint64(2), env.ldgr.DurableHeight())
	balance, err = state.GetBalance(env.ldgr.Reader(), recipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), balance)
}

func TestViewUnknownBlock(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ldgr.View(kora.BytesToBytes32([]byte("nowhere")))
	assert.ErrorIs(t, err, ledger.ErrUnknownSnapshot)
}

func TestSeedTracker(t *testing.T) {
	tracker := ledger.NewSeedTracker()

	seed := kora.BytesToBytes32([]byte{1})
	tracker.OnSeed(3, seed)
	tracker.OnSeed(1, kora.BytesToBytes32([]byte{2}))

	got, ok := tracker.Seed(3)
	assert.True(t, ok)
	assert.Equal(t, seed, got)
	assert.Equal(t, uint64(3), tracker.CurrentView())

	_, ok = tracker.Seed(9)
	assert.False(t, ok)
}
