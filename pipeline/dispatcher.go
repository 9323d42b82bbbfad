// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"container/heap"
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ruleforge/core"
)

// retryEntry is one pending retry in the dispatcher's schedule.
type retryEntry struct {
	at time.Time
	id core.ID
}

// retryHeap orders pending retries by due time.
type retryHeap []retryEntry

func (h retryHeap) Len() int           { return len(h) }
func (h retryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h retryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x any)        { *h = append(*h, x.(retryEntry)) }
func (h *retryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// Dispatcher runs document advancement on a bounded worker pool. Each
// enqueued document is driven through consecutive stages on one worker;
// transient failures go into a time-ordered retry schedule and are
// re-dispatched when due.
type Dispatcher struct {
	orchestrator *Orchestrator
	pool         *ants.Pool
	logger       *slog.Logger

	mu       sync.Mutex
	schedule retryHeap
	closed   bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) DispatcherOption {
	return func(d *Dispatcher) error {
		if size < 1 {
			size = 1
		}
		if d.pool != nil {
			d.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}
}

// WithDispatcherLogger sets a custom logger.
// Default is slog.Default().
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a dispatcher over the given orchestrator.
func NewDispatcher(orchestrator *Orchestrator, opts ...DispatcherOption) (*Dispatcher, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		orchestrator: orchestrator,
		pool:         pool,
		logger:       slog.Default().With("component", "dispatcher"),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			d.pool.Release()
			return nil, err
		}
	}

	d.wg.Add(1)
	go d.retryLoop()

	return d, nil
}

// Enqueue submits a document for asynchronous processing. Enqueueing the
// same document twice is harmless: the store's stage leases make the second
// worker skip.
func (d *Dispatcher) Enqueue(id core.ID) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	if err := d.pool.Submit(func() { defer d.wg.Done(); d.drive(id) }); err != nil {
		d.wg.Done()
		return err
	}
	return nil
}

// drive advances a document through consecutive stages until it parks:
// terminal, skipped, or waiting out a retry delay.
func (d *Dispatcher) drive(id core.ID) {
	for {
		result, err := d.orchestrator.Advance(context.Background(), id)
		if err != nil {
			d.logger.Error("error advancing document", "documentId", id, "err", err)
			return
		}

		switch result.Outcome {
		case AdvanceProgressed:
			continue
		case AdvanceRetryScheduled:
			d.scheduleRetry(id, result.RetryAfter)
			return
		default:
			return
		}
	}
}

func (d *Dispatcher) scheduleRetry(id core.ID, after time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	heap.Push(&d.schedule, retryEntry{at: time.Now().Add(after), id: id})

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// retryLoop waits for the earliest scheduled retry and re-dispatches it.
func (d *Dispatcher) retryLoop() {
	defer d.wg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		d.mu.Lock()
		var wait time.Duration
		if len(d.schedule) == 0 {
			wait = time.Hour
		} else {
			wait = time.Until(d.schedule[0].at)
		}
		d.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-d.done:
			return
		case <-d.wake:
			continue
		case <-timer.C:
		}

		now := time.Now()
		var due []core.ID
		d.mu.Lock()
		for len(d.schedule) > 0 && !d.schedule[0].at.After(now) {
			entry := heap.Pop(&d.schedule).(retryEntry)
			due = append(due, entry.id)
		}
		d.mu.Unlock()

		for _, id := range due {
			id := id
			d.mu.Lock()
			if d.closed {
				d.mu.Unlock()
				return
			}
			d.wg.Add(1)
			d.mu.Unlock()

			if err := d.pool.Submit(func() { defer d.wg.Done(); d.drive(id) }); err != nil {
				d.wg.Done()
				d.logger.Error("error re-dispatching document", "documentId", id, "err", err)
			}
		}
	}
}

// Close stops the retry loop, waits for in-flight workers to finish their
// current document, and releases the pool. Scheduled retries are abandoned;
// their stages are recovered later through lease expiry.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	d.pool.Release()
}
