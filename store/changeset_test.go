// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/korachain/kora/kora"
)

func addr(b byte) kora.Address {
	return kora.BytesToAddress([]byte{b})
}

func b32(b byte) kora.Bytes32 {
	return kora.BytesToBytes32([]byte{b})
}

func accountWithNonce(nonce uint64) *Account {
	acc := NewAccount()
	acc.Nonce = nonce
	return acc
}

func TestChangeSetMergeShadowing(t *testing.T) {
	a := NewChangeSet()
	a.PutAccount(addr(1), accountWithNonce(1))
	a.PutStorage(StorageKey{Address: addr(1), Slot: b32(1)}, b32(10))

	b := NewChangeSet()
	b.PutAccount(addr(1), accountWithNonce(2))
	b.PutStorage(StorageKey{Address: addr(1), Slot: b32(2)}, b32(20))

	merged := a.Copy().Merge(b)
	assert.Equal(t, uint64(2), merged.Accounts[addr(1)].Nonce)
	assert.Equal(t, b32(10), merged.Storage[StorageKey{Address: addr(1), Slot: b32(1)}])
	assert.Equal(t, b32(20), merged.Storage[StorageKey{Address: addr(1), Slot: b32(2)}])
}

func TestChangeSetMergeAssociative(t *testing.T) {
	build := func(nonce uint64, slotVal byte) *ChangeSet {
		c := NewChangeSet()
		c.PutAccount(addr(1), accountWithNonce(nonce))
		c.PutStorage(StorageKey{Address: addr(1), Slot: b32(1)}, b32(slotVal))
		return c
	}
	a, b, c := build(1, 10), build(2, 20), build(3, 30)

	left := a.Copy().Merge(b).Merge(c)
	right := a.Copy().Merge(b.Copy().Merge(c))

	assert.Equal(t, left.Digest(), right.Digest())
	assert.Equal(t, uint64(3), left.Accounts[addr(1)].Nonce)
	assert.Equal(t, b32(30), left.Storage[StorageKey{Address: addr(1), Slot: b32(1)}])
}

func TestChangeSetDigestDeterministic(t *testing.T) {
	build := func(order []byte) *ChangeSet {
		c := NewChangeSet()
		for _, i := range order {
			acc := NewAccount()
			acc.Balance = big.NewInt(int64(i))
			c.PutAccount(addr(i), acc)
			c.PutStorage(StorageKey{Address: addr(i), Slot: b32(i)}, b32(i))
		}
		return c
	}

	// insertion order must not affect the digest
	assert.Equal(t, build([]byte{1, 2, 3}).Digest(), build([]byte{3, 1, 2}).Digest())

	other := build([]byte{1, 2, 3})
	other.PutCode(b32(9), []byte("code"))
	assert.NotEqual(t, build([]byte{1, 2, 3}).Digest(), other.Digest())
}

func TestAccountTombstone(t *testing.T) {
	acc := NewAccount()
	acc.Nonce = 5
	acc.Balance = big.NewInt(100)
	acc.CodeHash = b32(1)

	dead := acc.Tombstone()
	assert.Equal(t, uint64(1), dead.Generation)
	assert.Zero(t, dead.Balance.Sign())
	assert.True(t, dead.CodeHash.IsZero())

	// the bumped generation addresses a fresh storage space
	oldKey := StorageKey{Address: addr(1), Generation: 0, Slot: b32(1)}
	newKey := StorageKey{Address: addr(1), Generation: dead.Generation, Slot: b32(1)}
	assert.NotEqual(t, oldKey.encode(), newKey.encode())
}
