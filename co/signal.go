// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter provides the channel to wait on. A true value means a single
// signal, false means a broadcast.
type Waiter interface {
	C() <-chan bool
}

// Signal is a channel-based rendezvous point for announcing events to
// waiting goroutines. Unlike sync.Cond, the wait side is a channel, so
// callers can select on it alongside other channels.
type Signal struct {
	mu sync.Mutex
	ch chan bool
}

func (s *Signal) initLocked() {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
}

// Signal wakes one waiter. The wake-up is coalesced: signaling an already
// signaled Signal is a no-op.
func (s *Signal) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initLocked()
	select {
	case s.ch <- true:
	default:
	}
}

// Broadcast wakes every waiter.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initLocked()
	close(s.ch)
	s.ch = make(chan bool, 1)
}

// NewWaiter creates a waiter bound to this signal. The waiter tracks channel
// replacement across broadcasts, so it stays valid for repeated waits.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	s.initLocked()
	ref := s.ch
	s.mu.Unlock()

	return waiterFunc(func() <-chan bool {
		ch := ref

		s.mu.Lock()
		ref = s.ch
		s.mu.Unlock()

		return ch
	})
}

type waiterFunc func() <-chan bool

func (w waiterFunc) C() <-chan bool {
	return w()
}
