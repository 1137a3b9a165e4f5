// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korachain/kora/kora"
)

func newTx(t *testing.T) *Transaction {
	to := kora.BytesToAddress([]byte{0xde, 0xad})
	return new(Builder).
		ChainTag(0xf6).
		Nonce(3).
		Gas(50_000).
		MaxFeePerGas(big.NewInt(200)).
		MaxPriorityFeePerGas(big.NewInt(10)).
		To(&to).
		Value(big.NewInt(1000)).
		Data([]byte{0, 1, 0, 2}).
		Build()
}

func TestSignAndRecoverOrigin(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)

	signed := MustSign(newTx(t), pk)

	origin, err := signed.Origin()
	require.NoError(t, err)
	assert.Equal(t, kora.Address(crypto.PubkeyToAddress(pk.PublicKey)), origin)

	// an unsigned tx cannot name a sender
	_, err = newTx(t).Origin()
	assert.Error(t, err)
}

func TestSignatureChangesID(t *testing.T) {
	pk1, _ := crypto.GenerateKey()
	pk2, _ := crypto.GenerateKey()

	a := MustSign(newTx(t), pk1)
	b := MustSign(newTx(t), pk2)

	assert.Equal(t, a.SigningHash(), b.SigningHash())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestIntrinsicGas(t *testing.T) {
	gas, err := newTx(t).IntrinsicGas()
	require.NoError(t, err)
	// base cost plus 2 zero and 2 non-zero payload bytes
	assert.Equal(t, kora.TxGas+2*kora.TxDataZeroGas+2*kora.TxDataNonZeroGas, gas)
}

func TestEffectiveGasPrice(t *testing.T) {
	trx := newTx(t)

	// base fee + tip below the cap
	assert.Equal(t, big.NewInt(110), trx.EffectiveGasPrice(big.NewInt(100)))
	// capped at max fee
	assert.Equal(t, big.NewInt(200), trx.EffectiveGasPrice(big.NewInt(500)))
}

func TestCost(t *testing.T) {
	trx := newTx(t)
	want := new(big.Int).Add(
		new(big.Int).Mul(big.NewInt(200), new(big.Int).SetUint64(trx.Gas())),
		big.NewInt(1000),
	)
	assert.Equal(t, want, trx.Cost())
}

func TestDecode(t *testing.T) {
	pk, _ := crypto.GenerateKey()
	signed := MustSign(newTx(t), pk)

	raw, err := rlp.EncodeToBytes(signed)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, signed.ID(), decoded.ID())
	assert.Equal(t, uint64(len(raw)), decoded.Size())

	origin, err := decoded.Origin()
	require.NoError(t, err)
	assert.Equal(t, kora.Address(crypto.PubkeyToAddress(pk.PublicKey)), origin)
}
