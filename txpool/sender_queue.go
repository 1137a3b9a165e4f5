// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"container/heap"
)

// nonceHeap is a heap.Interface implementation over 64bit unsigned integers
// for retrieving sorted transactions from the possibly gapped queue.
type nonceHeap []uint64

func (h nonceHeap) Len() int           { return len(h) }
func (h nonceHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h nonceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nonceHeap) Push(x any) {
	*h = append(*h, x.(uint64))
}

func (h *nonceHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// senderQueue keeps one sender's pooled txs ordered by nonce, split into a
// pending prefix (contiguous from the account nonce) and a queued remainder
// (blocked behind a nonce gap).
//
// Not safe for concurrent use; the pool's lock covers it.
type senderQueue struct {
	// accountNonce the sender's next expected nonce at the current head.
	accountNonce uint64
	items        map[uint64]*txObject
	index        *nonceHeap
}

func newSenderQueue(accountNonce uint64) *senderQueue {
	return &senderQueue{
		accountNonce: accountNonce,
		items:        make(map[uint64]*txObject),
		index:        new(nonceHeap),
	}
}

// get returns the tx at the given nonce, nil if absent.
func (q *senderQueue) get(nonce uint64) *txObject {
	return q.items[nonce]
}

// put inserts or overwrites the tx at its nonce.
// Replacement policy is the caller's concern.
func (q *senderQueue) put(obj *txObject) {
	nonce := obj.Nonce()
	if q.items[nonce] == nil {
		heap.Push(q.index, nonce)
	}
	q.items[nonce] = obj
}

// remove deletes the tx at the given nonce.
func (q *senderQueue) remove(nonce uint64) bool {
	if q.items[nonce] == nil {
		return false
	}
	delete(q.items, nonce)
	for i, n := range *q.index {
		if n == nonce {
			heap.Remove(q.index, i)
			break
		}
	}
	return true
}

// forward advances the account nonce and drops every tx below it.
// Returns the dropped txs for post-removal maintenance.
func (q *senderQueue) forward(accountNonce uint64) []*txObject {
	q.accountNonce = accountNonce

	var removed []*txObject
	for q.index.Len() > 0 && (*q.index)[0] < accountNonce {
		nonce := heap.Pop(q.index).(uint64)
		removed = append(removed, q.items[nonce])
		delete(q.items, nonce)
	}
	return removed
}

// pending returns the maximal contiguous nonce run starting at the account
// nonce, in nonce-ascending order. These are the immediately executable txs.
func (q *senderQueue) pending() []*txObject {
	var run []*txObject
	for nonce := q.accountNonce; ; nonce++ {
		obj, ok := q.items[nonce]
		if !ok {
			break
		}
		run = append(run, obj)
	}
	return run
}

// queued returns the txs blocked behind a nonce gap, in no particular order.
func (q *senderQueue) queued() []*txObject {
	pendingEnd := q.accountNonce
	for {
		if _, ok := q.items[pendingEnd]; !ok {
			break
		}
		pendingEnd++
	}
	var blocked []*txObject
	for nonce, obj := range q.items {
		if nonce >= pendingEnd {
			blocked = append(blocked, obj)
		}
	}
	return blocked
}

// lowestQueued returns the queued tx with the lowest effective fee, nil if
// nothing is queued.
func (q *senderQueue) lowestQueued() *txObject {
	var lowest *txObject
	for _, obj := range q.queued() {
		if lowest == nil || feeLess(obj, lowest) {
			lowest = obj
		}
	}
	return lowest
}

func (q *senderQueue) len() int {
	return len(q.items)
}
