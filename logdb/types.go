// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/tx"
)

// Entry a stored log record, positioned by (block number, tx index, log
// index).
type Entry struct {
	BlockID     kora.Bytes32
	BlockNumber uint64
	BlockTime   uint64
	TxID        kora.Bytes32
	TxIndex     uint32
	LogIndex    uint32
	Address     kora.Address
	Topics      [4]*kora.Bytes32
	Data        []byte
}

// newEntry converts tx.Log to an Entry.
func newEntry(header *block.Header, txID kora.Bytes32, txIndex, logIndex uint32, l *tx.Log) *Entry {
	e := &Entry{
		BlockID:     header.ID(),
		BlockNumber: header.Number(),
		BlockTime:   header.Timestamp(),
		TxID:        txID,
		TxIndex:     txIndex,
		LogIndex:    logIndex,
		Address:     l.Address,
		Data:        l.Data,
	}
	for i := 0; i < len(l.Topics) && i < len(e.Topics); i++ {
		topic := l.Topics[i]
		e.Topics[i] = &topic
	}
	return e
}

// Filter selects log entries with standard semantics: an inclusive block
// range, an address allow-list (OR), and per-position topic allow-lists
// (OR within a position, AND across positions). Nil/empty members match
// everything.
type Filter struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses []kora.Address
	Topics    [4][]kora.Bytes32
}
