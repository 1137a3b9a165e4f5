// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/korachain/kora/kora"
)

// Transaction is an immutable tx type.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Value
		id          atomic.Value
		origin      atomic.Value
		size        atomic.Value
	}
}

// body describes details of a tx.
type body struct {
	ChainTag             byte
	Nonce                uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Gas                  uint64
	To                   *kora.Address `rlp:"nil"`
	Value                *big.Int
	Data                 []byte
	Signature            []byte
}

// ChainTag returns chain tag.
func (t *Transaction) ChainTag() byte {
	return t.body.ChainTag
}

// Nonce returns the sender-scoped sequence number.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Gas returns gas provision for this tx.
func (t *Transaction) Gas() uint64 {
	return t.body.Gas
}

// MaxFeePerGas returns the fee cap.
func (t *Transaction) MaxFeePerGas() *big.Int {
	return new(big.Int).Set(t.body.MaxFeePerGas)
}

// MaxPriorityFeePerGas returns the tip offered over the base fee.
func (t *Transaction) MaxPriorityFeePerGas() *big.Int {
	return new(big.Int).Set(t.body.MaxPriorityFeePerGas)
}

// To returns the recipient, nil for contract creation.
func (t *Transaction) To() *kora.Address {
	if t.body.To == nil {
		return nil
	}
	cpy := *t.body.To
	return &cpy
}

// Value returns the amount transferred.
func (t *Transaction) Value() *big.Int {
	return new(big.Int).Set(t.body.Value)
}

// Data returns the payload.
func (t *Transaction) Data() []byte {
	return append([]byte(nil), t.body.Data...)
}

// Signature returns the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// ID returns the identifier of the tx, covering the whole signed envelope.
func (t *Transaction) ID() (id kora.Bytes32) {
	if cached := t.cache.id.Load(); cached != nil {
		return cached.(kora.Bytes32)
	}
	defer func() { t.cache.id.Store(id) }()

	hw := crypto.NewKeccakState()
	rlp.Encode(hw, &t.body)
	hw.Read(id[:])
	return
}

// SigningHash returns the hash of the tx excluding its signature.
func (t *Transaction) SigningHash() (hash kora.Bytes32) {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return cached.(kora.Bytes32)
	}
	defer func() { t.cache.signingHash.Store(hash) }()

	hw := crypto.NewKeccakState()
	rlp.Encode(hw, []any{
		t.body.ChainTag,
		t.body.Nonce,
		t.body.MaxFeePerGas,
		t.body.MaxPriorityFeePerGas,
		t.body.Gas,
		t.body.To,
		t.body.Value,
		t.body.Data,
	})
	hw.Read(hash[:])
	return
}

// Origin recovers the sender address from the signature.
func (t *Transaction) Origin() (kora.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return cached.(kora.Address), nil
	}

	if len(t.body.Signature) != 65 {
		return kora.Address{}, errors.New("invalid signature length")
	}
	signingHash := t.SigningHash()
	pub, err := crypto.SigToPub(signingHash.Bytes(), t.body.Signature)
	if err != nil {
		return kora.Address{}, errors.Wrap(err, "recover origin")
	}
	origin := kora.Address(crypto.PubkeyToAddress(*pub))
	t.cache.origin.Store(origin)
	return origin, nil
}

// WithSignature creates a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{
		body: t.body,
	}
	// copy sig
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// Size returns the size of the encoded tx in bytes.
func (t *Transaction) Size() uint64 {
	if cached := t.cache.size.Load(); cached != nil {
		return cached.(uint64)
	}
	data, _ := rlp.EncodeToBytes(&t.body)
	size := uint64(len(data))
	t.cache.size.Store(size)
	return size
}

// IntrinsicGas returns intrinsic gas of the tx.
func (t *Transaction) IntrinsicGas() (uint64, error) {
	gas := kora.TxGas
	if len(t.body.Data) > 0 {
		var nz uint64
		for _, b := range t.body.Data {
			if b != 0 {
				nz++
			}
		}
		if (^uint64(0)-gas)/kora.TxDataNonZeroGas < nz {
			return 0, errors.New("intrinsic gas overflow")
		}
		gas += nz * kora.TxDataNonZeroGas

		z := uint64(len(t.body.Data)) - nz
		if (^uint64(0)-gas)/kora.TxDataZeroGas < z {
			return 0, errors.New("intrinsic gas overflow")
		}
		gas += z * kora.TxDataZeroGas
	}
	return gas, nil
}

// EffectiveGasPrice returns the per-gas fee used for pool ranking:
// min(max fee, base fee + tip).
func (t *Transaction) EffectiveGasPrice(baseFee *big.Int) *big.Int {
	fee := new(big.Int).Add(baseFee, t.body.MaxPriorityFeePerGas)
	if fee.Cmp(t.body.MaxFeePerGas) > 0 {
		fee.Set(t.body.MaxFeePerGas)
	}
	return fee
}

// Cost returns the maximum budget the sender must hold: value + gas * max fee.
func (t *Transaction) Cost() *big.Int {
	cost := new(big.Int).Mul(t.body.MaxFeePerGas, new(big.Int).SetUint64(t.body.Gas))
	return cost.Add(cost, t.body.Value)
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

// Decode decodes a raw signed tx from its rlp encoding.
func Decode(raw []byte) (*Transaction, error) {
	var trx Transaction
	if err := rlp.DecodeBytes(raw, &trx.body); err != nil {
		return nil, errors.Wrap(err, "decode tx")
	}
	return &trx, nil
}

// Transactions a slice of transactions.
type Transactions []*Transaction

// RootHash computes the merkle-style digest over the tx ids, in order.
func (txs Transactions) RootHash() (root kora.Bytes32) {
	hw := crypto.NewKeccakState()
	for _, trx := range txs {
		id := trx.ID()
		hw.Write(id[:])
	}
	hw.Read(root[:])
	return
}
