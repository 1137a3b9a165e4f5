// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/korachain/kora/kora"
)

// Log is an event emitted by a contract during execution.
type Log struct {
	// Address always the contract that emitted the log.
	Address kora.Address
	Topics  []kora.Bytes32
	Data    []byte
}

// Receipt represents the results of a transaction.
type Receipt struct {
	// TxID identifier of the covered transaction.
	TxID kora.Bytes32
	// GasUsed gas consumed by the transaction.
	GasUsed uint64
	// Reverted whether execution reverted.
	Reverted bool
	// Logs emitted during execution, in emission order.
	Logs []*Log
}

// Receipts slice of receipts.
type Receipts []*Receipt

// RootHash computes the digest over the encoded receipts, in order.
func (rs Receipts) RootHash() (root kora.Bytes32) {
	hw := crypto.NewKeccakState()
	rlp.Encode(hw, rs)
	hw.Read(root[:])
	return
}
