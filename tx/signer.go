// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Sign signs a transaction using the provided private key.
func Sign(trx *Transaction, pk *ecdsa.PrivateKey) (*Transaction, error) {
	signingHash := trx.SigningHash()
	sig, err := crypto.Sign(signingHash.Bytes(), pk)
	if err != nil {
		return nil, errors.Wrap(err, "unable to sign transaction")
	}
	return trx.WithSignature(sig), nil
}

// MustSign signs a transaction and panics on error, for tests and tools.
func MustSign(trx *Transaction, pk *ecdsa.PrivateKey) *Transaction {
	signed, err := Sign(trx, pk)
	if err != nil {
		panic(err)
	}
	return signed
}
