package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// PoolMetrics tracks worker pool operational metrics.
type PoolMetrics struct {
	Active     int64 `json:"active"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Panics     int64 `json:"panics"`
	CallerRuns int64 `json:"caller_runs"`
}

// ErrPoolShutdown is returned when work is submitted to a shut-down pool.
var ErrPoolShutdown = errors.New("worker pool is shut down")

// WorkerPool executes run tasks on a bounded pool: core resident workers
// drain a bounded queue, extra workers are spawned up to max when the
// queue is full, and once both queue and workers are saturated the caller
// executes the task itself. Running the producer synchronously slows it
// down instead of dropping work or queueing without bound.
type WorkerPool struct {
	max   int
	queue chan func()
	extra chan struct{}

	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	metrics PoolMetrics
}

// NewWorkerPool creates a pool with core resident workers, elastic growth
// up to max workers, and a task queue of queueSize.
func NewWorkerPool(core, max, queueSize int) *WorkerPool {
	if core <= 0 {
		core = 1
	}
	if max < core {
		max = core
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	p := &WorkerPool{
		max:   max,
		queue: make(chan func(), queueSize),
		extra: make(chan struct{}, max-core),
	}
	for i := 0; i < core; i++ {
		p.wg.Add(1)
		go p.resident()
	}
	return p
}

// Submit enqueues a task. When the queue is full a transient worker is
// spawned if the pool is below max; when the pool is fully saturated the
// task runs synchronously on the calling goroutine. Returns
// ErrPoolShutdown if the pool has been shut down.
func (p *WorkerPool) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	task := p.wrap(ctx, fn)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolShutdown
	}

	// Fast path: room in the queue.
	select {
	case p.queue <- task:
		p.mu.Unlock()
		return nil
	default:
	}

	// Queue full: grow the pool if below max.
	select {
	case p.extra <- struct{}{}:
		p.wg.Add(1)
		p.mu.Unlock()
		go p.transient(task)
		return nil
	default:
	}
	p.mu.Unlock()

	// Saturated: the caller runs the task itself.
	atomic.AddInt64(&p.metrics.CallerRuns, 1)
	task()
	return nil
}

// resident is a core worker; it lives until the queue is closed.
func (p *WorkerPool) resident() {
	defer p.wg.Done()
	for task := range p.queue {
		task()
	}
}

// transient runs its seed task, then drains the queue until it is empty
// before giving its slot back.
func (p *WorkerPool) transient(seed func()) {
	defer func() {
		<-p.extra
		p.wg.Done()
	}()
	seed()
	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			task()
		default:
			return
		}
	}
}

// wrap binds a task to its context and the pool metrics, containing panics
// so a misbehaving task cannot kill a worker.
func (p *WorkerPool) wrap(ctx context.Context, fn func(ctx context.Context) error) func() {
	return func() {
		atomic.AddInt64(&p.metrics.Active, 1)
		defer func() {
			if r := recover(); r != nil {
				atomic.AddInt64(&p.metrics.Panics, 1)
				atomic.AddInt64(&p.metrics.Failed, 1)
			}
			atomic.AddInt64(&p.metrics.Active, -1)
		}()

		if err := fn(ctx); err != nil {
			atomic.AddInt64(&p.metrics.Failed, 1)
		} else {
			atomic.AddInt64(&p.metrics.Completed, 1)
		}
	}
}

// Shutdown prevents new submissions and waits for queued and active work
// to finish. Safe to call more than once.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// Metrics returns a snapshot of the current pool metrics.
func (p *WorkerPool) Metrics() PoolMetrics {
	return PoolMetrics{
		Active:     atomic.LoadInt64(&p.metrics.Active),
		Completed:  atomic.LoadInt64(&p.metrics.Completed),
		Failed:     atomic.LoadInt64(&p.metrics.Failed),
		Panics:     atomic.LoadInt64(&p.metrics.Panics),
		CallerRuns: atomic.LoadInt64(&p.metrics.CallerRuns),
	}
}

// QueueDepth returns the number of tasks waiting in the queue.
func (p *WorkerPool) QueueDepth() int { return len(p.queue) }
