// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel runs row bands of a pass on a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// MinBandRows is the smallest band worth handing to another goroutine.
const MinBandRows = 16

// WorkerPool is a pool of goroutines for the software passes.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	work    chan func()
	wg      sync.WaitGroup
	running atomic.Bool
	closeMu sync.RWMutex
}

// NewWorkerPool starts a pool with the given number of workers. If
// workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		work:    make(chan func(), workers*4),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for fn := range p.work {
		fn()
	}
}

// Bands splits h rows into at most n contiguous bands of at least
// MinBandRows rows each. The bands cover [0, h) in order.
func Bands(h, n int) [][2]int {
	if h <= 0 {
		return nil
	}
	n = max(min(n, h/MinBandRows), 1)
	bands := make([][2]int, 0, n)
	for i := range n {
		bands = append(bands, [2]int{h * i / n, h * (i + 1) / n})
	}
	return bands
}

// ForRows calls fn once per band of h rows and waits for all of them. A
// closed pool or a single band runs on the calling goroutine.
func (p *WorkerPool) ForRows(h int, fn func(y0, y1 int)) {
	bands := Bands(h, p.workers)
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if len(bands) <= 1 || !p.running.Load() {
		for _, b := range bands {
			fn(b[0], b[1])
		}
		return
	}

	var done sync.WaitGroup
	done.Add(len(bands) - 1)
	for _, b := range bands[1:] {
		p.work <- func() {
			defer done.Done()
			fn(b[0], b[1])
		}
	}
	// The caller takes the first band instead of idling.
	fn(bands[0][0], bands[0][1])
	done.Wait()
}

// Close stops the workers. Later ForRows calls run serially. Close is
// safe to call multiple times.
func (p *WorkerPool) Close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.work)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true until Close is called.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
