// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/tx"
)

// EventKind the kind of a ledger transition notification.
type EventKind int

const (
	// Finalized a block's change set became durable.
	Finalized EventKind = iota
	// Nullified a staged branch was discarded without touching the store.
	Nullified
)

func (k EventKind) String() string {
	switch k {
	case Finalized:
		return "finalized"
	case Nullified:
		return "nullified"
	default:
		return "unknown"
	}
}

// Event notifies a ledger transition.
// Delivered at-least-once, in finalization order; subscribers must be
// idempotent. The block and receipts are immutable and safe to retain.
type Event struct {
	Kind    EventKind
	BlockID kora.Bytes32
	Height  uint64
	Root    kora.Bytes32

	// Block and Receipts are set for Finalized events only.
	Block    *block.Block
	Receipts tx.Receipts
}
