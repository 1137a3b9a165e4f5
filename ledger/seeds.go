// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"sync"

	"github.com/korachain/kora/kora"
)

// memSeedTracker keeps the per-view seeds in memory.
// Seeds are volatile and safely lost on restart; consensus re-delivers the
// current one.
type memSeedTracker struct {
	lock        sync.RWMutex
	seeds       map[uint64]kora.Bytes32
	currentView uint64
}

// NewSeedTracker creates the default in-memory seed tracker.
func NewSeedTracker() SeedTracker {
	return &memSeedTracker{
		seeds: make(map[uint64]kora.Bytes32),
	}
}

func (t *memSeedTracker) OnSeed(view uint64, seed kora.Bytes32) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.seeds[view] = seed
	if view > t.currentView {
		t.currentView = view
	}
}

func (t *memSeedTracker) Seed(view uint64) (kora.Bytes32, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	seed, ok := t.seeds[view]
	return seed, ok
}

func (t *memSeedTracker) CurrentView() uint64 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.currentView
}
