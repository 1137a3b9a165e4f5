// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package txpool maintains unprocessed transactions.
//
// Within a sender, txs are ordered strictly by nonce and split into a
// pending prefix (contiguous from the account nonce) and a queued remainder.
// Across senders, Pending yields txs in descending effective-fee order with
// arrival-order FIFO as the tie-break, so any two nodes observing the same
// submissions and the same base fee derive the same sequence.
package txpool

import (
	"container/heap"
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"

	"github.com/korachain/kora/co"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/log"
	"github.com/korachain/kora/state"
	"github.com/korachain/kora/tx"
)

var logger = log.WithContext("pkg", "txpool")

// Options options for tx pool.
type Options struct {
	Limit           int
	LimitPerAccount int
	MaxLifetime     time.Duration
	// FeeFloor the minimum max-fee-per-gas accepted, nil for no floor.
	FeeFloor *big.Int
}

// TxEvent will be posted on pool activity: admission, eviction, or removal
// after block inclusion.
type TxEvent struct {
	Tx *tx.Transaction
	// Executable whether the tx entered the pending set. Nil when the tx
	// left the pool.
	Executable *bool
	// Included true when the tx left the pool because a finalized block
	// carried it, false on eviction.
	Included bool
}

// TxPool maintains unprocessed transactions.
type TxPool struct {
	options  Options
	chainTag byte
	stateFn  func() state.Reader

	lock    sync.RWMutex
	senders map[kora.Address]*senderQueue
	byID    map[kora.Bytes32]*txObject
	seq     uint64
	baseFee *big.Int

	ctx         context.Context
	cancel      func()
	txFeed      event.Feed
	scope       event.SubscriptionScope
	addedSignal co.Signal
	goes        co.Goes
}

// New create a new TxPool instance.
// Close is required to be called at end.
func New(chainTag byte, stateFn func() state.Reader, options Options) *TxPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &TxPool{
		options:  options,
		chainTag: chainTag,
		stateFn:  stateFn,
		senders:  make(map[kora.Address]*senderQueue),
		byID:     make(map[kora.Bytes32]*txObject),
		baseFee:  new(big.Int).SetUint64(kora.InitialBaseFee),
		ctx:      ctx,
		cancel:   cancel,
	}
	pool.goes.Go(pool.housekeeping)
	return pool
}

// Close cleanup inner go routines.
func (p *TxPool) Close() {
	p.cancel()
	p.scope.Close()
	p.addedSignal.Broadcast()
	p.goes.Wait()
	logger.Debug("closed")
}

// NewTicker creates a waiter signaled on every successful admission.
// On-demand block producers sleep on it instead of polling the pool.
func (p *TxPool) NewTicker() co.Waiter {
	return p.addedSignal.NewWaiter()
}

// SubscribeTxEvent receivers will receive pool activity notifications.
func (p *TxPool) SubscribeTxEvent(ch chan *TxEvent) event.Subscription {
	return p.scope.Track(p.txFeed.Subscribe(ch))
}

// Add validates and adds a new tx into the pool.
// It's not assumed as an error if the tx to be added is already in the pool.
func (p *TxPool) Add(newTx *tx.Transaction) (err error) {
	defer func() {
		if err != nil && IsBadTx(err) {
			metricBadTxCount().Add(1)
		}
	}()

	p.lock.Lock()
	defer p.lock.Unlock()

	if _, found := p.byID[newTx.ID()]; found {
		// tx already in the pool
		return nil
	}

	// validation short-circuits on the first failure, checked in a fixed
	// order starting with signature recoverability
	obj, err := resolveTx(newTx, time.Now().UnixNano(), p.baseFee)
	if err != nil {
		return badTxError{err.Error()}
	}

	if newTx.ChainTag() != p.chainTag {
		return badTxError{"chain tag mismatch"}
	}

	acc, err := p.stateFn().GetAccount(obj.Origin())
	if err != nil {
		return txRejectedError{err.Error()}
	}
	var accountNonce uint64
	balance := new(big.Int)
	if acc != nil {
		accountNonce = acc.Nonce
		balance.Set(acc.Balance)
	}

	if newTx.Nonce() < accountNonce {
		return txRejectedError{"stale nonce"}
	}

	intrGas, err := newTx.IntrinsicGas()
	if err != nil {
		return badTxError{err.Error()}
	}
	if newTx.Gas() < intrGas {
		return badTxError{"intrinsic gas exceeds provided gas"}
	}

	if p.options.FeeFloor != nil && newTx.MaxFeePerGas().Cmp(p.options.FeeFloor) < 0 {
		return txRejectedError{"fee below pool floor"}
	}

	queue, ok := p.senders[obj.Origin()]
	if !ok {
		queue = newSenderQueue(accountNonce)
		p.senders[obj.Origin()] = queue
	} else {
		queue.accountNonce = accountNonce
	}

	replaced := queue.get(newTx.Nonce())
	if replaced != nil {
		// at most one tx per (sender, nonce); the newcomer must pay
		// strictly more to displace the incumbent
		if replaced.effectiveFee.Cmp(obj.effectiveFee) >= 0 {
			return txRejectedError{"replacement fee too low"}
		}
	}

	if err := p.validateSenderBudget(queue, obj, replaced, balance); err != nil {
		return err
	}

	if newTx.Size() > kora.MaxTxSize {
		return txRejectedError{"size too large"}
	}

	if replaced == nil && queue.len() >= p.options.LimitPerAccount {
		// over quota; drop the sender's cheapest queued tx if the
		// newcomer outbids it, otherwise reject the newcomer
		lowest := queue.lowestQueued()
		if lowest == nil || !feeLess(lowest, obj) {
			return txRejectedError{"account quota exceeded"}
		}
		p.dropLocked(lowest)
	}

	queue.put(obj)
	p.byID[newTx.ID()] = obj
	p.seq++
	obj.seq = p.seq

	if replaced != nil {
		delete(p.byID, replaced.ID())
	}

	if len(p.byID) > p.options.Limit {
		victim := p.victimLocked()
		p.dropLocked(victim)
		if victim == obj {
			return txRejectedError{"pool is full"}
		}
	}

	executable := newTx.Nonce() < queue.accountNonce+uint64(len(queue.pending()))
	p.goes.Go(func() {
		p.txFeed.Send(&TxEvent{Tx: newTx, Executable: &executable})
	})
	p.addedSignal.Signal()
	metricTxPoolGauge().AddWithLabel(1, map[string]string{"source": "remote"})
	metricPendingGauge().Set(int64(p.pendingCountLocked()))
	logger.Trace("tx added", "id", newTx.ID(), "executable", executable)
	return nil
}

// validateSenderBudget checks the sender balance covers the summed budget of
// all its pooled txs including the newcomer.
func (p *TxPool) validateSenderBudget(queue *senderQueue, obj, replaced *txObject, balance *big.Int) error {
	total := new(uint256.Int)
	for _, pooled := range queue.items {
		if pooled == replaced {
			continue
		}
		total.Add(total, pooled.cost)
	}
	total.Add(total, obj.cost)

	limit, overflow := uint256.FromBig(balance)
	if overflow || total.Cmp(limit) > 0 {
		return txRejectedError{"insufficient balance for overall pending cost"}
	}
	return nil
}

// victimLocked picks the eviction victim under size pressure: the lowest
// effective-fee queued tx of any sender, falling back to the lowest-fee
// pending tx only when nothing is queued anywhere.
func (p *TxPool) victimLocked() *txObject {
	var lowestQueued, lowestPending *txObject
	for _, queue := range p.senders {
		if obj := queue.lowestQueued(); obj != nil {
			if lowestQueued == nil || feeLess(obj, lowestQueued) {
				lowestQueued = obj
			}
		}
		if run := queue.pending(); len(run) > 0 {
			// evicting mid-run would re-open a nonce gap, take the tail
			obj := run[len(run)-1]
			if lowestPending == nil || feeLess(obj, lowestPending) {
				lowestPending = obj
			}
		}
	}
	if lowestQueued != nil {
		return lowestQueued
	}
	return lowestPending
}

// dropLocked removes obj from the pool and announces the eviction.
func (p *TxPool) dropLocked(obj *txObject) {
	queue := p.senders[obj.Origin()]
	if queue != nil {
		queue.remove(obj.Nonce())
		if queue.len() == 0 {
			delete(p.senders, obj.Origin())
		}
	}
	delete(p.byID, obj.ID())

	evicted := obj.Transaction
	p.goes.Go(func() {
		p.txFeed.Send(&TxEvent{Tx: evicted})
	})
	metricTxPoolGauge().AddWithLabel(-1, map[string]string{"source": "evicted"})
	logger.Trace("tx evicted", "id", obj.ID())
}

// Get returns a pooled tx by id, nil if absent.
func (p *TxPool) Get(id kora.Bytes32) *tx.Transaction {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if obj, ok := p.byID[id]; ok {
		return obj.Transaction
	}
	return nil
}

// Remove removes txs from the pool by id, e.g. after block inclusion.
// Each removal is announced to subscribers. Returns the number of removed txs.
func (p *TxPool) Remove(ids ...kora.Bytes32) int {
	p.lock.Lock()
	defer p.lock.Unlock()

	var included tx.Transactions
	for _, id := range ids {
		obj, ok := p.byID[id]
		if !ok {
			continue
		}
		if queue := p.senders[obj.Origin()]; queue != nil {
			queue.remove(obj.Nonce())
			if queue.len() == 0 {
				delete(p.senders, obj.Origin())
			}
		}
		delete(p.byID, id)
		included = append(included, obj.Transaction)
		logger.Debug("tx removed", "id", id)
	}
	if len(included) > 0 {
		p.goes.Go(func() {
			for _, trx := range included {
				p.txFeed.Send(&TxEvent{Tx: trx, Included: true})
			}
		})
		metricTxPoolGauge().AddWithLabel(-int64(len(included)), map[string]string{"source": "included"})
		metricPendingGauge().Set(int64(p.pendingCountLocked()))
	}
	return len(included)
}

// OnNonceAdvanced re-bases a sender's queue after its account nonce moved,
// dropping stale txs and implicitly promoting the run behind a closed gap.
func (p *TxPool) OnNonceAdvanced(addr kora.Address, newNonce uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()

	queue, ok := p.senders[addr]
	if !ok {
		return
	}
	for _, obj := range queue.forward(newNonce) {
		delete(p.byID, obj.ID())
		logger.Trace("stale tx washed out", "id", obj.ID())
	}
	if queue.len() == 0 {
		delete(p.senders, addr)
	}
	metricPendingGauge().Set(int64(p.pendingCountLocked()))
}

// SetBaseFee re-ranks the pool against a new base fee observation.
func (p *TxPool) SetBaseFee(baseFee *big.Int) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.baseFee = new(big.Int).Set(baseFee)
	for _, obj := range p.byID {
		obj.effectiveFee = obj.EffectiveGasPrice(p.baseFee)
	}
}

// Pending returns up to limit immediately executable txs, fee-descending
// across senders, nonce-ascending within a sender. limit <= 0 means all.
func (p *TxPool) Pending(limit int) tx.Transactions {
	p.lock.RLock()
	defer p.lock.RUnlock()

	byFee := &readyHeap{}
	for _, queue := range p.senders {
		if run := queue.pending(); len(run) > 0 {
			byFee.entries = append(byFee.entries, &readyRun{objs: run})
		}
	}
	heap.Init(byFee)

	var pending tx.Transactions
	for byFee.Len() > 0 {
		if limit > 0 && len(pending) >= limit {
			break
		}
		top := byFee.entries[0]
		pending = append(pending, top.head().Transaction)
		if top.advance() {
			heap.Fix(byFee, 0)
		} else {
			heap.Pop(byFee)
		}
	}
	return pending
}

// Len returns the number of pooled txs.
func (p *TxPool) Len() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return len(p.byID)
}

// Dump dumps all txs in the pool.
func (p *TxPool) Dump() tx.Transactions {
	p.lock.RLock()
	defer p.lock.RUnlock()

	txs := make(tx.Transactions, 0, len(p.byID))
	for _, obj := range p.byID {
		txs = append(txs, obj.Transaction)
	}
	return txs
}

func (p *TxPool) pendingCountLocked() int {
	var n int
	for _, queue := range p.senders {
		n += len(queue.pending())
	}
	return n
}

// housekeeping evicts txs that outlived the pool's max lifetime.
func (p *TxPool) housekeeping() {
	logger.Debug("enter housekeeping")
	defer logger.Debug("leave housekeeping")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.options.MaxLifetime <= 0 {
				continue
			}
			now := time.Now().UnixNano()

			p.lock.Lock()
			var expired []*txObject
			for _, obj := range p.byID {
				if now > obj.timeAdded+int64(p.options.MaxLifetime) {
					expired = append(expired, obj)
				}
			}
			for _, obj := range expired {
				p.dropLocked(obj)
				logger.Trace("tx washed out", "id", obj.ID(), "err", "out of lifetime")
			}
			p.lock.Unlock()
		}
	}
}

// readyRun a sender's pending run with a cursor, ordered in readyHeap by the
// fee of the tx at the cursor.
type readyRun struct {
	objs []*txObject
	pos  int
}

func (r *readyRun) head() *txObject { return r.objs[r.pos] }

func (r *readyRun) advance() bool {
	r.pos++
	return r.pos < len(r.objs)
}

type readyHeap struct {
	entries []*readyRun
}

func (h *readyHeap) Len() int { return len(h.entries) }

func (h *readyHeap) Less(i, j int) bool {
	// highest fee first; FIFO on equal fee
	return feeLess(h.entries[j].head(), h.entries[i].head())
}

func (h *readyHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *readyHeap) Push(x any) {
	h.entries = append(h.entries, x.(*readyRun))
}

func (h *readyHeap) Pop() any {
	old := h.entries
	n := len(old)
	x := old[n-1]
	h.entries = old[:n-1]
	return x
}
