// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package store implements the partitioned durable state store.
//
// State lives in three logical key spaces: accounts keyed by address,
// storage slots keyed by (address, generation, slot), and content-addressed
// code blobs. Mutations land only through BatchCommit, which applies a whole
// ChangeSet atomically and advances the chained state root.
package store

import (
	"encoding/binary"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/kv"
	"github.com/korachain/kora/metrics"
)

const (
	accountsBucketName = "st.accounts"
	storageBucketName  = "st.storage"
	codeBucketName     = "st.code"
	propsBucketName    = "st.props"

	codeCacheSize = 512
)

var (
	finalizedRootKey   = []byte("finalized-root")
	finalizedHeightKey = []byte("finalized-height")
)

var metricCommitElapsed = metrics.LazyLoad(func() metrics.HistogramMeter {
	return metrics.Histogram("store_commit_elapsed_ms", metrics.Bucket10s)
})

// Store owns the three durable state partitions.
//
// It carries no locking and no business logic. The ledger serializes all
// writes; concurrent reads are safe because the underlying kv engine is.
type Store struct {
	db       kv.Store
	accounts kv.GetPutter
	storage  kv.GetPutter
	code     kv.GetPutter
	props    kv.GetPutter

	codeCache *lru.Cache

	root   kora.Bytes32
	height uint64
}

// New wraps a kv store, recovering the finalized root and height persisted
// by the last run. A fresh database starts at the zero root, height 0.
func New(db kv.Store) (*Store, error) {
	s := &Store{
		db:       db,
		accounts: kv.Bucket(accountsBucketName).NewGetPutter(db),
		storage:  kv.Bucket(storageBucketName).NewGetPutter(db),
		code:     kv.Bucket(codeBucketName).NewGetPutter(db),
		props:    kv.Bucket(propsBucketName).NewGetPutter(db),
	}
	s.codeCache, _ = lru.New(codeCacheSize)

	if val, err := s.props.Get(finalizedRootKey); err != nil {
		if !s.props.IsNotFound(err) {
			return nil, errors.Wrap(err, "load finalized root")
		}
	} else {
		s.root = kora.BytesToBytes32(val)
	}

	if val, err := s.props.Get(finalizedHeightKey); err != nil {
		if !s.props.IsNotFound(err) {
			return nil, errors.Wrap(err, "load finalized height")
		}
	} else if len(val) == 8 {
		s.height = binary.BigEndian.Uint64(val)
	}
	return s, nil
}

// Root returns the current finalized state root.
func (s *Store) Root() kora.Bytes32 {
	return s.root
}

// Height returns the highest finalized height.
func (s *Store) Height() uint64 {
	return s.height
}

// GetAccount loads an account by address. Missing accounts yield (nil, nil).
func (s *Store) GetAccount(addr kora.Address) (*Account, error) {
	data, err := s.accounts.Get(addr.Bytes())
	if err != nil {
		if s.accounts.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get account")
	}
	return decodeAccount(data)
}

// GetStorage loads a storage slot value. A missing slot is the zero value.
func (s *Store) GetStorage(key StorageKey) (kora.Bytes32, error) {
	data, err := s.storage.Get(key.encode())
	if err != nil {
		if s.storage.IsNotFound(err) {
			return kora.Bytes32{}, nil
		}
		return kora.Bytes32{}, errors.Wrap(err, "get storage")
	}
	return kora.BytesToBytes32(data), nil
}

// GetCode loads a code blob by its content hash.
func (s *Store) GetCode(codeHash kora.Bytes32) ([]byte, error) {
	if codeHash.IsZero() {
		return nil, nil
	}
	if cached, ok := s.codeCache.Get(codeHash); ok {
		return cached.([]byte), nil
	}
	data, err := s.code.Get(codeHash.Bytes())
	if err != nil {
		if s.code.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get code")
	}
	s.codeCache.Add(codeHash, data)
	return data, nil
}

// ComputeRoot returns the root that committing changes on top of parentRoot
// would produce, without touching the store.
func ComputeRoot(parentRoot kora.Bytes32, changes *ChangeSet) kora.Bytes32 {
	digest := changes.Digest()
	return kora.BytesToBytes32(crypto.Keccak256(parentRoot.Bytes(), digest.Bytes()))
}

// BatchCommit applies the change set atomically and returns the new state
// root. Either every delta lands durably or none does; a failed write leaves
// the in-memory root and height untouched, and the caller must treat the
// error as fatal rather than retry mid-commit.
func (s *Store) BatchCommit(changes *ChangeSet, height uint64) (kora.Bytes32, error) {
	startTime := time.Now()

	newRoot := ComputeRoot(s.root, changes)

	batch := s.db.NewBatch()
	accounts := kv.Bucket(accountsBucketName).NewPutter(batch)
	storage := kv.Bucket(storageBucketName).NewPutter(batch)
	code := kv.Bucket(codeBucketName).NewPutter(batch)
	props := kv.Bucket(propsBucketName).NewPutter(batch)

	for addr, acc := range changes.Accounts {
		enc, err := encodeAccount(acc)
		if err != nil {
			return kora.Bytes32{}, err
		}
		if err := accounts.Put(addr.Bytes(), enc); err != nil {
			return kora.Bytes32{}, errors.Wrap(err, "put account")
		}
	}
	for key, val := range changes.Storage {
		if val.IsZero() {
			// absent slot reads as zero
			if err := storage.Delete(key.encode()); err != nil {
				return kora.Bytes32{}, errors.Wrap(err, "delete storage")
			}
		} else if err := storage.Put(key.encode(), val.Bytes()); err != nil {
			return kora.Bytes32{}, errors.Wrap(err, "put storage")
		}
	}
	for hash, blob := range changes.Codes {
		if err := code.Put(hash.Bytes(), blob); err != nil {
			return kora.Bytes32{}, errors.Wrap(err, "put code")
		}
	}

	if err := props.Put(finalizedRootKey, newRoot.Bytes()); err != nil {
		return kora.Bytes32{}, errors.Wrap(err, "put root")
	}
	var heightEnc [8]byte
	binary.BigEndian.PutUint64(heightEnc[:], height)
	if err := props.Put(finalizedHeightKey, heightEnc[:]); err != nil {
		return kora.Bytes32{}, errors.Wrap(err, "put height")
	}

	if err := batch.Write(); err != nil {
		return kora.Bytes32{}, errors.Wrap(err, "commit batch")
	}

	s.root = newRoot
	s.height = height
	metricCommitElapsed().Observe(time.Since(startTime).Milliseconds())
	return newRoot, nil
}
