// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/korachain/kora/kora"
)

// Account the durable presentation of an account.
// Accounts are never physically deleted; a self-destruct zeroes the fields
// and bumps Generation so previously written storage slots become unreachable.
type Account struct {
	Nonce      uint64
	Balance    *big.Int
	CodeHash   kora.Bytes32
	Generation uint64
}

// NewAccount creates an empty account.
func NewAccount() *Account {
	return &Account{Balance: new(big.Int)}
}

// IsEmpty returns if the account is regarded as empty.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 &&
		a.Balance.Sign() == 0 &&
		a.CodeHash.IsZero()
}

// Copy makes a deep copy.
func (a *Account) Copy() *Account {
	cpy := *a
	cpy.Balance = new(big.Int).Set(a.Balance)
	return &cpy
}

// Tombstone returns the account written in place of a self-destructed one.
// The generation bump detaches all storage written under the old generation.
func (a *Account) Tombstone() *Account {
	return &Account{
		Balance:    new(big.Int),
		Generation: a.Generation + 1,
	}
}

func encodeAccount(a *Account) ([]byte, error) {
	data, err := rlp.EncodeToBytes(a)
	if err != nil {
		return nil, errors.Wrap(err, "encode account")
	}
	return data, nil
}

func decodeAccount(data []byte) (*Account, error) {
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, errors.Wrap(err, "decode account")
	}
	if a.Balance == nil {
		a.Balance = new(big.Int)
	}
	return &a, nil
}

// StorageKey identifies a contract storage slot.
// The account's storage generation scopes the key, so a tombstoned account's
// slots are left behind rather than rewritten.
type StorageKey struct {
	Address    kora.Address
	Generation uint64
	Slot       kora.Bytes32
}

func (k StorageKey) encode() []byte {
	data, _ := rlp.EncodeToBytes(&struct {
		Address    kora.Address
		Generation uint64
		Slot       kora.Bytes32
	}{k.Address, k.Generation, k.Slot})
	return data
}
