// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreBasics(t *testing.T) {
	db := NewMemStore()
	defer db.Close()

	_, err := db.Get([]byte("missing"))
	require.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	val, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))
}

func TestBatchIsAtomicUnit(t *testing.T) {
	db := NewMemStore()
	defer db.Close()

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	assert.Equal(t, 2, batch.Len())

	// nothing is visible before Write
	_, err := db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, batch.Write())
	val, err := db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)
}

func TestBucketIsolation(t *testing.T) {
	db := NewMemStore()
	defer db.Close()

	first := Bucket("b1.").NewGetPutter(db)
	second := Bucket("b2.").NewGetPutter(db)

	require.NoError(t, first.Put([]byte("k"), []byte("one")))
	require.NoError(t, second.Put([]byte("k"), []byte("two")))

	val, err := first.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)

	val, err = second.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), val)

	// raw keys carry the bucket prefix
	val, err = db.Get([]byte("b1.k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)
}
