// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/korachain/kora/kora"
)

// ChangeSet collects the pending mutations of one block before they become
// durable. Change sets merge deterministically: per key, the later one wins.
type ChangeSet struct {
	Accounts map[kora.Address]*Account
	Storage  map[StorageKey]kora.Bytes32
	Codes    map[kora.Bytes32][]byte
}

// NewChangeSet creates an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Accounts: make(map[kora.Address]*Account),
		Storage:  make(map[StorageKey]kora.Bytes32),
		Codes:    make(map[kora.Bytes32][]byte),
	}
}

// PutAccount records an account mutation.
func (c *ChangeSet) PutAccount(addr kora.Address, acc *Account) {
	c.Accounts[addr] = acc
}

// PutStorage records a storage slot write. A zero value clears the slot.
func (c *ChangeSet) PutStorage(key StorageKey, value kora.Bytes32) {
	c.Storage[key] = value
}

// PutCode records a code blob keyed by its content hash.
func (c *ChangeSet) PutCode(codeHash kora.Bytes32, code []byte) {
	c.Codes[codeHash] = code
}

// IsEmpty returns whether the change set holds no mutations.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Accounts) == 0 && len(c.Storage) == 0 && len(c.Codes) == 0
}

// Len returns the number of pending mutations.
func (c *ChangeSet) Len() int {
	return len(c.Accounts) + len(c.Storage) + len(c.Codes)
}

// Copy makes a deep copy.
func (c *ChangeSet) Copy() *ChangeSet {
	cpy := NewChangeSet()
	for addr, acc := range c.Accounts {
		cpy.Accounts[addr] = acc.Copy()
	}
	for key, val := range c.Storage {
		cpy.Storage[key] = val
	}
	for hash, code := range c.Codes {
		cpy.Codes[hash] = code
	}
	return cpy
}

// Merge folds other into c. Keys present in other shadow keys in c.
// Merging is associative, which lets a chain of pending ancestor deltas be
// flattened in any grouping before commit.
func (c *ChangeSet) Merge(other *ChangeSet) *ChangeSet {
	for addr, acc := range other.Accounts {
		c.Accounts[addr] = acc
	}
	for key, val := range other.Storage {
		c.Storage[key] = val
	}
	for hash, code := range other.Codes {
		c.Codes[hash] = code
	}
	return c
}

// Digest computes a deterministic digest over the change set contents.
// Entries are folded in sorted key order so that equal change sets always
// digest equally, regardless of map iteration order.
func (c *ChangeSet) Digest() kora.Bytes32 {
	hasher := crypto.NewKeccakState()

	addrs := make([]kora.Address, 0, len(c.Accounts))
	for addr := range c.Accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	for _, addr := range addrs {
		enc, _ := encodeAccount(c.Accounts[addr])
		hasher.Write(addr[:])
		hasher.Write(enc)
	}

	skeys := make([][]byte, 0, len(c.Storage))
	svals := make(map[string]kora.Bytes32, len(c.Storage))
	for key, val := range c.Storage {
		enc := key.encode()
		skeys = append(skeys, enc)
		svals[string(enc)] = val
	}
	sort.Slice(skeys, func(i, j int) bool {
		return bytes.Compare(skeys[i], skeys[j]) < 0
	})
	for _, key := range skeys {
		val := svals[string(key)]
		hasher.Write(key)
		hasher.Write(val[:])
	}

	hashes := make([]kora.Bytes32, 0, len(c.Codes))
	for hash := range c.Codes {
		hashes = append(hashes, hash)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	for _, hash := range hashes {
		hasher.Write(hash[:])
		hasher.Write(c.Codes[hash])
	}

	var digest kora.Bytes32
	hasher.Read(digest[:])
	return digest
}
