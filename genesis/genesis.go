// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the height-0 state allocation and the genesis
// block it is anchored to.
package genesis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/korachain/kora/block"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/store"
)

// Alloc an initial account allocation.
type Alloc struct {
	Balance *big.Int
	Code    []byte
	Storage map[kora.Bytes32]kora.Bytes32
}

// Genesis presets for building the genesis block.
type Genesis struct {
	launchTime uint64
	gasLimit   uint64
	alloc      map[kora.Address]Alloc
}

// NewCustom creates a genesis from explicit allocations.
func NewCustom(launchTime uint64, alloc map[kora.Address]Alloc) *Genesis {
	return &Genesis{
		launchTime: launchTime,
		gasLimit:   kora.InitialGasLimit,
		alloc:      alloc,
	}
}

// changeSet converts the allocations into the height-0 change set.
func (g *Genesis) changeSet() *store.ChangeSet {
	changes := store.NewChangeSet()
	for addr, alloc := range g.alloc {
		acc := store.NewAccount()
		if alloc.Balance != nil {
			acc.Balance = new(big.Int).Set(alloc.Balance)
		}
		if len(alloc.Code) > 0 {
			codeHash := kora.BytesToBytes32(crypto.Keccak256(alloc.Code))
			acc.CodeHash = codeHash
			changes.PutCode(codeHash, alloc.Code)
		}
		changes.PutAccount(addr, acc)
		for slot, value := range alloc.Storage {
			changes.PutStorage(store.StorageKey{
				Address:    addr,
				Generation: acc.Generation,
				Slot:       slot,
			}, value)
		}
	}
	return changes
}

// Block composes the genesis block without touching any store.
func (g *Genesis) Block() *block.Block {
	changes := g.changeSet()
	stateRoot := store.ComputeRoot(kora.Bytes32{}, changes)
	return new(block.Builder).
		ParentID(kora.Bytes32{}).
		Number(0).
		Timestamp(g.launchTime).
		GasLimit(g.gasLimit).
		StateRoot(stateRoot).
		Build()
}

// ID computes the genesis block id.
func (g *Genesis) ID() kora.Bytes32 {
	return g.Block().Header().ID()
}

// Commit writes the height-0 allocation into a fresh store and returns the
// genesis block. A store that already carries the genesis root is left
// untouched; any other non-empty store is rejected.
func (g *Genesis) Commit(st *store.Store) (*block.Block, error) {
	blk := g.Block()
	wantRoot := blk.Header().StateRoot()

	if st.Root() == wantRoot {
		return blk, nil
	}
	if !st.Root().IsZero() || st.Height() != 0 {
		return nil, errors.Errorf("store mismatches genesis: root %v, height %d", st.Root(), st.Height())
	}

	root, err := st.BatchCommit(g.changeSet(), 0)
	if err != nil {
		return nil, errors.Wrap(err, "commit genesis")
	}
	if root != wantRoot {
		return nil, errors.Errorf("genesis root mismatch: committed %v, block %v", root, wantRoot)
	}
	return blk, nil
}
