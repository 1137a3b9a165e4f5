// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"math/big"

	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/tx"
)

// Builder to make it easy to build a block object.
type Builder struct {
	headerBody headerBody
	txs        tx.Transactions
}

// ParentID sets parent id.
func (b *Builder) ParentID(id kora.Bytes32) *Builder {
	b.headerBody.ParentID = id
	return b
}

// Number sets the block number.
func (b *Builder) Number(number uint64) *Builder {
	b.headerBody.Number = number
	return b
}

// Timestamp sets timestamp.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.headerBody.Timestamp = ts
	return b
}

// Beneficiary sets the proposer address.
func (b *Builder) Beneficiary(addr kora.Address) *Builder {
	b.headerBody.Beneficiary = addr
	return b
}

// GasLimit sets gas limit.
func (b *Builder) GasLimit(limit uint64) *Builder {
	b.headerBody.GasLimit = limit
	return b
}

// GasUsed sets gas used.
func (b *Builder) GasUsed(used uint64) *Builder {
	b.headerBody.GasUsed = used
	return b
}

// BaseFee sets the base fee.
func (b *Builder) BaseFee(baseFee *big.Int) *Builder {
	b.headerBody.BaseFee = new(big.Int).Set(baseFee)
	return b
}

// StateRoot sets the state root.
func (b *Builder) StateRoot(root kora.Bytes32) *Builder {
	b.headerBody.StateRoot = root
	return b
}

// ReceiptsRoot sets the receipts root.
func (b *Builder) ReceiptsRoot(root kora.Bytes32) *Builder {
	b.headerBody.ReceiptsRoot = root
	return b
}

// Transaction adds a transaction.
func (b *Builder) Transaction(trx *tx.Transaction) *Builder {
	b.txs = append(b.txs, trx)
	return b
}

// Build builds the block object.
func (b *Builder) Build() *Block {
	header := Header{body: b.headerBody}
	header.body.TxsRoot = b.txs.RootHash()

	return &Block{
		header: &header,
		txs:    b.txs,
	}
}
