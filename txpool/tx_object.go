// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/tx"
)

// txObject wraps a pooled tx with its resolved origin and pool bookkeeping.
type txObject struct {
	*tx.Transaction

	origin    kora.Address
	timeAdded int64
	// seq is the admission sequence number, the FIFO tie-breaker for
	// equal-fee ordering.
	seq uint64

	// cost is value + gas * max fee, the sender budget this tx reserves.
	cost *uint256.Int
	// effectiveFee is min(max fee, base fee + tip) at the pool's current
	// base fee, refreshed whenever the base fee moves.
	effectiveFee *big.Int
}

// resolveTx resolves the origin of the given tx and binds them together.
func resolveTx(trx *tx.Transaction, timeAdded int64, baseFee *big.Int) (*txObject, error) {
	origin, err := trx.Origin()
	if err != nil {
		return nil, err
	}
	cost, overflow := uint256.FromBig(trx.Cost())
	if overflow {
		return nil, errors.New("tx cost overflows")
	}
	return &txObject{
		Transaction:  trx,
		origin:       origin,
		timeAdded:    timeAdded,
		cost:         cost,
		effectiveFee: trx.EffectiveGasPrice(baseFee),
	}, nil
}

// Origin returns the resolved sender.
func (o *txObject) Origin() kora.Address {
	return o.origin
}

// feeLess reports whether a ranks strictly below b for eviction/ordering:
// lower effective fee first, later arrival first on ties.
func feeLess(a, b *txObject) bool {
	if cmp := a.effectiveFee.Cmp(b.effectiveFee); cmp != 0 {
		return cmp < 0
	}
	return a.seq > b.seq
}
