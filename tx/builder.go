// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/korachain/kora/kora"
)

// Builder to make it easy to build a transaction.
type Builder struct {
	body body
}

// NewBuilder creates a tx builder.
func NewBuilder() *Builder {
	return &Builder{
		body: body{
			MaxFeePerGas:         new(big.Int),
			MaxPriorityFeePerGas: new(big.Int),
			Value:                new(big.Int),
		},
	}
}

// ChainTag sets the chain tag.
func (b *Builder) ChainTag(tag byte) *Builder {
	b.body.ChainTag = tag
	return b
}

// Nonce sets the nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Gas sets the gas provision.
func (b *Builder) Gas(gas uint64) *Builder {
	b.body.Gas = gas
	return b
}

// MaxFeePerGas sets the fee cap.
func (b *Builder) MaxFeePerGas(maxFee *big.Int) *Builder {
	b.body.MaxFeePerGas = new(big.Int).Set(maxFee)
	return b
}

// MaxPriorityFeePerGas sets the tip.
func (b *Builder) MaxPriorityFeePerGas(tip *big.Int) *Builder {
	b.body.MaxPriorityFeePerGas = new(big.Int).Set(tip)
	return b
}

// To sets the recipient, nil for contract creation.
func (b *Builder) To(to *kora.Address) *Builder {
	if to == nil {
		b.body.To = nil
	} else {
		cpy := *to
		b.body.To = &cpy
	}
	return b
}

// Value sets the amount transferred.
func (b *Builder) Value(value *big.Int) *Builder {
	b.body.Value = new(big.Int).Set(value)
	return b
}

// Data sets the payload.
func (b *Builder) Data(data []byte) *Builder {
	b.body.Data = append([]byte(nil), data...)
	return b
}

// Build builds the tx object. The result is unsigned.
func (b *Builder) Build() *Transaction {
	return &Transaction{body: b.body}
}
