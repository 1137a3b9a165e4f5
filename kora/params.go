// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kora

// Constants of the kora protocol.
const (
	// MaxTxSize max size of a tx allowed into the pool.
	MaxTxSize = 64 * 1024

	// TxGas gas cost of a plain value-transfer tx.
	TxGas uint64 = 21_000

	// TxDataZeroGas gas cost per zero byte of tx payload.
	TxDataZeroGas uint64 = 4
	// TxDataNonZeroGas gas cost per non-zero byte of tx payload.
	TxDataNonZeroGas uint64 = 68

	// InitialBaseFee base fee assumed before any block reports one.
	InitialBaseFee uint64 = 1_000_000_000

	// InitialGasLimit gas limit of the genesis block.
	InitialGasLimit uint64 = 10 * 1000 * 1000
)
