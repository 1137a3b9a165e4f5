// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/state"
	"github.com/korachain/kora/store"
	"github.com/korachain/kora/tx"
)

// Mempool is the admission capability the ledger drives.
// *txpool.TxPool satisfies it; tests substitute their own.
type Mempool interface {
	Add(trx *tx.Transaction) error
	Pending(limit int) tx.Transactions
	Remove(ids ...kora.Bytes32) int
	OnNonceAdvanced(addr kora.Address, newNonce uint64)
	SetBaseFee(baseFee *big.Int)
	Len() int
}

// SeedTracker records the per-view randomness seeds consensus delivers.
type SeedTracker interface {
	OnSeed(view uint64, seed kora.Bytes32)
	Seed(view uint64) (kora.Bytes32, bool)
	CurrentView() uint64
}

// ExecutionContext carries the block environment an executor runs under.
type ExecutionContext struct {
	ParentID    kora.Bytes32
	Number      uint64
	Timestamp   uint64
	Beneficiary kora.Address
	GasLimit    uint64
	BaseFee     *big.Int
}

// ExecutionOutcome is the result of executing a block's transactions.
type ExecutionOutcome struct {
	// Changes state mutations to be persisted on finalization.
	Changes *store.ChangeSet
	// GasUsed total gas consumed.
	GasUsed uint64
	// Receipts one per executed tx, in order.
	Receipts tx.Receipts
}

// BlockExecutor runs a block's transactions against an overlay.
// The ledger treats it as a pure function of its inputs: re-executing the
// same block against the same overlay must yield the same outcome.
type BlockExecutor interface {
	Execute(overlay *state.Overlay, ectx *ExecutionContext, txs tx.Transactions) (*ExecutionOutcome, error)
}
