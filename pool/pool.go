// Package pool provides a bounded worker pool for fanning out
// per-binary dependency resolution.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Common errors.
var (
	ErrPoolShutdown = errors.New("worker pool is shutdown")
)

// Pool manages a fixed-size pool of workers. Submission blocks when
// all workers are busy and the queue is full, which is the only
// backpressure closure building needs.
type Pool interface {
	// Submit submits a function to the pool, blocking until queued.
	Submit(ctx context.Context, fn func()) error

	// Stats returns current pool statistics.
	Stats() Stats

	// Shutdown stops accepting work and waits for in-flight tasks.
	Shutdown(ctx context.Context) error
}

// Config configures the worker pool.
type Config struct {
	// Workers is the number of workers.
	Workers int

	// QueueSize is the size of the task queue.
	QueueSize int
}

// Stats contains pool statistics.
type Stats struct {
	Workers        int
	QueueLength    int
	TotalSubmitted int64
	TotalCompleted int64
}

// DefaultConfig returns default pool configuration. Dependency
// resolution spawns one inspection subprocess per task, so a small
// pool is deliberate.
func DefaultConfig() Config {
	return Config{
		Workers:   4,
		QueueSize: 64,
	}
}

// pool is the concrete implementation.
type pool struct {
	taskQueue  chan func()
	shutdownCh chan struct{}
	config     Config
	wg         sync.WaitGroup
	submitted  int64
	completed  int64
	shutdown   int32
}

// New creates a new worker pool.
func New(config Config) Pool {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.Workers * 16
	}

	p := &pool{
		config:     config,
		taskQueue:  make(chan func(), config.QueueSize),
		shutdownCh: make(chan struct{}),
	}

	for i := 0; i < config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit implements Pool.Submit.
func (p *pool) Submit(ctx context.Context, fn func()) error {
	if atomic.LoadInt32(&p.shutdown) == 1 {
		return ErrPoolShutdown
	}

	atomic.AddInt64(&p.submitted, 1)

	select {
	case p.taskQueue <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdownCh:
		return ErrPoolShutdown
	}
}

// Stats implements Pool.Stats.
func (p *pool) Stats() Stats {
	return Stats{
		Workers:        p.config.Workers,
		QueueLength:    len(p.taskQueue),
		TotalSubmitted: atomic.LoadInt64(&p.submitted),
		TotalCompleted: atomic.LoadInt64(&p.completed),
	}
}

// Shutdown implements Pool.Shutdown.
func (p *pool) Shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.shutdown, 0, 1) {
		return nil
	}
	// Only shutdownCh is closed. Closing taskQueue would race with a
	// Submit that passed the shutdown check but has not reached its
	// send yet; workers drain the queue through the select instead.
	close(p.shutdownCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case fn := <-p.taskQueue:
			fn()
			atomic.AddInt64(&p.completed, 1)

		case <-p.shutdownCh:
			// Drain remaining tasks
			for {
				select {
				case fn := <-p.taskQueue:
					fn()
					atomic.AddInt64(&p.completed, 1)
				default:
					return
				}
			}
		}
	}
}
