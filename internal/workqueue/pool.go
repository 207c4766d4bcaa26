// Package workqueue runs chunk-processing jobs on a fixed pool of worker
// goroutines with a byte-metered backlog, the Go-idiomatic analogue of the
// original engine's condition-variable-based blocking queue: goroutines and
// channels replace the worker threads and mutex/condvar pair, and
// golang.org/x/sync/semaphore replaces the queue's manual size accounting.
package workqueue

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// IdealWorkerCount returns a sensible default worker count for the host.
func IdealWorkerCount() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

type job struct {
	size int64
	fn   func() error
}

// Pool runs submitted jobs on workerCount goroutines, never admitting more
// than memoryLimit bytes' worth of not-yet-finished jobs at once. A job
// whose size exceeds memoryLimit is still admitted on its own once the
// queue drains, matching the original queue's behavior of never deadlocking
// on a single oversized item.
type Pool struct {
	jobs  chan job
	sem   *semaphore.Weighted
	limit int64
	ctx   context.Context

	wg sync.WaitGroup

	mu       sync.Mutex
	firstErr error
}

// New starts a pool. ctx cancellation unblocks any pending Submit and stops
// admitting new jobs, but does not interrupt a job already running.
func New(ctx context.Context, workerCount int, memoryLimit int64) *Pool {
	if workerCount <= 0 {
		workerCount = IdealWorkerCount()
	}
	if memoryLimit <= 0 {
		memoryLimit = 1
	}

	p := &Pool{
		jobs:  make(chan job),
		sem:   semaphore.NewWeighted(memoryLimit),
		limit: memoryLimit,
		ctx:   ctx,
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		err := j.fn()
		p.sem.Release(j.size)
		if err != nil {
			p.recordErr(err)
		}
	}
}

// Submit blocks until there is room in the byte budget for size, then hands
// fn to a worker. It returns early with ctx's error if the pool's context
// is canceled first.
func (p *Pool) Submit(size int64, fn func() error) error {
	if size <= 0 {
		size = 1
	}
	if size > p.limit {
		// Claim the whole budget: the job waits for the queue to drain and
		// then runs alone.
		size = p.limit
	}
	if err := p.sem.Acquire(p.ctx, size); err != nil {
		return err
	}
	select {
	case p.jobs <- job{size: size, fn: fn}:
		return nil
	case <-p.ctx.Done():
		p.sem.Release(size)
		return p.ctx.Err()
	}
}

// Close stops accepting new jobs, waits for all submitted jobs to finish,
// and returns the first error any of them returned, if any.
func (p *Pool) Close() error {
	close(p.jobs)
	p.wg.Wait()
	return p.Err()
}

// Err returns the first error recorded by any job so far.
func (p *Pool) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstErr
}

func (p *Pool) recordErr(err error) {
	p.mu.Lock()
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.mu.Unlock()
}
