package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueFull is returned by TrySubmit when the job buffer is saturated.
var ErrQueueFull = errors.New("worker queue full")

// ErrStopped is returned by submissions arriving after Stop.
var ErrStopped = errors.New("worker pool stopped")

type Job interface{}

type ProcessFunc func(ctx context.Context, job Job) error

// Pool runs CPU-bound jobs on a fixed set of goroutines so callers (for
// example per-connection read loops) never execute them inline. The jobs
// channel is never closed; Stop signals through done so late submitters get
// ErrStopped instead of a panic.
type Pool struct {
	numWorkers int
	jobs       chan Job
	done       chan struct{}
	once       sync.Once
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewPool(numWorkers, bufferSize int, processor ProcessFunc) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		done:       make(chan struct{}),
		processor:  processor,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case job := <-p.jobs:
			_ = p.processor(ctx, job)
		}
	}
}

// Submit blocks until the job is queued, the pool stops, or ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case <-p.done:
		return ErrStopped
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues the job without blocking.
func (p *Pool) TrySubmit(job Job) error {
	select {
	case <-p.done:
		return ErrStopped
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop signals the workers and waits for them to exit. Queued jobs that no
// worker picked up are dropped. Safe to call more than once.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}
