// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/kv"
)

func TestStoreCommitAndRead(t *testing.T) {
	st, err := New(kv.NewMemStore())
	require.NoError(t, err)

	changes := NewChangeSet()
	acc := NewAccount()
	acc.Nonce = 3
	acc.Balance = big.NewInt(1000)
	changes.PutAccount(addr(1), acc)
	changes.PutStorage(StorageKey{Address: addr(1), Slot: b32(1)}, b32(42))
	changes.PutCode(b32(7), []byte("bytecode"))

	root, err := st.BatchCommit(changes, 1)
	require.NoError(t, err)
	assert.Equal(t, root, st.Root())
	assert.Equal(t, uint64(1), st.Height())
	assert.Equal(t, ComputeRoot(kora.Bytes32{}, changes), root)

	got, err := st.GetAccount(addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Nonce)
	assert.Equal(t, big.NewInt(1000), got.Balance)

	val, err := st.GetStorage(StorageKey{Address: addr(1), Slot: b32(1)})
	require.NoError(t, err)
	assert.Equal(t, b32(42), val)

	code, err := st.GetCode(b32(7))
	require.NoError(t, err)
	assert.Equal(t, []byte("bytecode"), code)
}

func TestStoreMissingReads(t *testing.T) {
	st, err := New(kv.NewMemStore())
	require.NoError(t, err)

	acc, err := st.GetAccount(addr(9))
	require.NoError(t, err)
	assert.Nil(t, acc)

	val, err := st.GetStorage(StorageKey{Address: addr(9), Slot: b32(1)})
	require.NoError(t, err)
	assert.True(t, val.IsZero())

	code, err := st.GetCode(b32(9))
	require.NoError(t, err)
	assert.Nil(t, code)
}

func TestStoreZeroStorageDeletes(t *testing.T) {
	st, err := New(kv.NewMemStore())
	require.NoError(t, err)

	key := StorageKey{Address: addr(1), Slot: b32(1)}

	changes := NewChangeSet()
	changes.PutStorage(key, b32(5))
	_, err = st.BatchCommit(changes, 1)
	require.NoError(t, err)

	changes = NewChangeSet()
	changes.PutStorage(key, kora.Bytes32{})
	_, err = st.BatchCommit(changes, 2)
	require.NoError(t, err)

	val, err := st.GetStorage(key)
	require.NoError(t, err)
	assert.True(t, val.IsZero())
}

func TestStoreRootChains(t *testing.T) {
	st, err := New(kv.NewMemStore())
	require.NoError(t, err)

	first := NewChangeSet()
	first.PutAccount(addr(1), accountWithNonce(1))
	root1, err := st.BatchCommit(first, 1)
	require.NoError(t, err)

	second := NewChangeSet()
	second.PutAccount(addr(1), accountWithNonce(2))
	root2, err := st.BatchCommit(second, 2)
	require.NoError(t, err)

	assert.NotEqual(t, root1, root2)
	assert.Equal(t, ComputeRoot(root1, second), root2)
}

func TestStoreRecovery(t *testing.T) {
	db := kv.NewMemStore()

	st, err := New(db)
	require.NoError(t, err)

	changes := NewChangeSet()
	changes.PutAccount(addr(1), accountWithNonce(1))
	root, err := st.BatchCommit(changes, 7)
	require.NoError(t, err)

	// a reopened store resumes from the persisted root and height
	reopened, err := New(db)
	require.NoError(t, err)
	assert.Equal(t, root, reopened.Root())
	assert.Equal(t, uint64(7), reopened.Height())
}

// faultyStore fails every batch write, leaving nothing applied.
type faultyStore struct {
	kv.Store
}

type faultyBatch struct {
	kv.Batch
}

func (s *faultyStore) NewBatch() kv.Batch {
	return &faultyBatch{s.Store.NewBatch()}
}

func (b *faultyBatch) Write() error {
	return errors.New("disk gone")
}

func TestStoreCommitAtomicity(t *testing.T) {
	db := kv.NewMemStore()
	st, err := New(&faultyStore{db})
	require.NoError(t, err)

	rootBefore, heightBefore := st.Root(), st.Height()

	changes := NewChangeSet()
	changes.PutAccount(addr(1), accountWithNonce(1))
	_, err = st.BatchCommit(changes, 1)
	require.Error(t, err)

	assert.Equal(t, rootBefore, st.Root())
	assert.Equal(t, heightBefore, st.Height())

	// nothing leaked into the underlying kv either
	clean, err := New(db)
	require.NoError(t, err)
	acc, err := clean.GetAccount(addr(1))
	require.NoError(t, err)
	assert.Nil(t, acc)
	assert.True(t, clean.Root().IsZero())
}
