// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides overlay views for speculative execution.
package state

import (
	"math/big"

	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/store"
)

// Reader is the read capability an overlay resolves against.
// Both *store.Store and *Overlay satisfy it, so overlays stack to arbitrary
// depth, bounded in practice by the number of un-finalized ancestor blocks.
type Reader interface {
	GetAccount(addr kora.Address) (*store.Account, error)
	GetStorage(key store.StorageKey) (kora.Bytes32, error)
	GetCode(codeHash kora.Bytes32) ([]byte, error)
}

// Overlay composes a change set on top of a base state, answering reads as
// if the pending mutations were applied, without committing anything.
type Overlay struct {
	base    Reader
	changes *store.ChangeSet
}

var _ Reader = (*Overlay)(nil)

// NewOverlay creates an overlay over the given base.
func NewOverlay(base Reader) *Overlay {
	return &Overlay{
		base:    base,
		changes: store.NewChangeSet(),
	}
}

// GetAccount resolves an account, local changes first.
func (o *Overlay) GetAccount(addr kora.Address) (*store.Account, error) {
	if acc, ok := o.changes.Accounts[addr]; ok {
		return acc, nil
	}
	return o.base.GetAccount(addr)
}

// GetStorage resolves a storage slot, local changes first.
func (o *Overlay) GetStorage(key store.StorageKey) (kora.Bytes32, error) {
	if val, ok := o.changes.Storage[key]; ok {
		return val, nil
	}
	return o.base.GetStorage(key)
}

// GetCode resolves a code blob, local changes first.
func (o *Overlay) GetCode(codeHash kora.Bytes32) ([]byte, error) {
	if code, ok := o.changes.Codes[codeHash]; ok {
		return code, nil
	}
	return o.base.GetCode(codeHash)
}

// PutAccount stages an account mutation in the overlay.
func (o *Overlay) PutAccount(addr kora.Address, acc *store.Account) {
	o.changes.PutAccount(addr, acc)
}

// PutStorage stages a storage write in the overlay.
func (o *Overlay) PutStorage(key store.StorageKey, value kora.Bytes32) {
	o.changes.PutStorage(key, value)
}

// PutCode stages a code blob in the overlay.
func (o *Overlay) PutCode(codeHash kora.Bytes32, code []byte) {
	o.changes.PutCode(codeHash, code)
}

// Changes returns the overlay's own change set, excluding ancestors.
func (o *Overlay) Changes() *store.ChangeSet {
	return o.changes
}

// Flatten folds the overlay chain down to a single change set suitable for
// BatchCommit: ancestor deltas first, this overlay's delta shadowing them.
func (o *Overlay) Flatten() *store.ChangeSet {
	if parent, ok := o.base.(*Overlay); ok {
		return parent.Flatten().Merge(o.changes)
	}
	return store.NewChangeSet().Merge(o.changes)
}

// GetNonce returns the account nonce, zero for a missing account.
func GetNonce(r Reader, addr kora.Address) (uint64, error) {
	acc, err := r.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, nil
	}
	return acc.Nonce, nil
}

// GetBalance returns the account balance, zero for a missing account.
func GetBalance(r Reader, addr kora.Address) (*big.Int, error) {
	acc, err := r.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(acc.Balance), nil
}

// GetStorageValue resolves a slot through the account's storage generation.
func GetStorageValue(r Reader, addr kora.Address, slot kora.Bytes32) (kora.Bytes32, error) {
	acc, err := r.GetAccount(addr)
	if err != nil {
		return kora.Bytes32{}, err
	}
	var generation uint64
	if acc != nil {
		generation = acc.Generation
	}
	return r.GetStorage(store.StorageKey{Address: addr, Generation: generation, Slot: slot})
}
