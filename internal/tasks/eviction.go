// Copyright 2026 The Corvid Authors
// This file is part of Corvid.
//
// Corvid is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Corvid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Corvid. If not, see <http://www.gnu.org/licenses/>.

package tasks

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/corvidb/corvid/internal/txn"
)

// evictionEntry is one (expiry_instant, key) pair (spec.md §4.8 task 6
// "keeps a priority queue of (expiry_instant, keys)").
type evictionEntry struct {
	expiry time.Time
	key    []byte
}

// expiryHeap is a container/heap.Interface ordering entries by soonest
// expiry first, the same pattern erigon-lib's domain_committed.go uses for
// its cursor merge heap.
type expiryHeap []evictionEntry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].expiry.Before(h[j].expiry) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(evictionEntry)) }
func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// evictionQueue is the shared state between ScheduleEviction (called from
// any goroutine submitting writes) and the eviction worker's sleep loop.
type evictionQueue struct {
	mu      sync.Mutex
	pending expiryHeap
	notify  chan struct{}
}

func newEvictionQueue() *evictionQueue {
	return &evictionQueue{notify: make(chan struct{}, 1)}
}

func (q *evictionQueue) schedule(key []byte, expiry time.Time) {
	q.mu.Lock()
	heap.Push(&q.pending, evictionEntry{expiry: expiry, key: append([]byte(nil), key...)})
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// next reports the soonest pending entry without removing it, or ok=false
// if the queue is empty.
func (q *evictionQueue) next() (evictionEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return evictionEntry{}, false
	}
	return q.pending[0], true
}

func (q *evictionQueue) popExpired(now time.Time) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due [][]byte
	for len(q.pending) > 0 && !q.pending[0].expiry.After(now) {
		e := heap.Pop(&q.pending).(evictionEntry)
		due = append(due, e.key)
	}
	return due
}

// runKeyEviction sleeps until the nearest expiry, deletes expired keys,
// and wakes early whenever ScheduleEviction submits a sooner expiry
// (spec.md §4.8 task 6). A reset-able sleep built from time.Timer, the Go
// analogue of the original's tokio::select! over a resettable sleep plus
// an incoming-expiry channel.
func (r *Runner) runKeyEviction(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		next, ok := r.evict.next()
		if !ok {
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(time.Hour)
		} else {
			wait := time.Until(next.expiry)
			if wait < 0 {
				wait = 0
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := r.evictDue(ctx); err != nil {
				return err
			}
		case <-r.evict.notify:
			// loop around: a sooner expiry may have just been scheduled.
		}
	}
}

func (r *Runner) evictDue(ctx context.Context) error {
	due := r.evict.popExpired(nowFunc())
	if len(due) == 0 {
		return nil
	}
	tx, err := txn.Begin(ctx, r.cfg.Backend, true, txn.DropWarn, r.cfg.Logger)
	if err != nil {
		return err
	}
	for _, key := range due {
		if err := tx.Del(key); err != nil {
			tx.Cancel()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.cfg.Logger.Debug("evicted expired keys", zap.Int("count", len(due)))
	return nil
}
