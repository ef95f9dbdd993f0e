package base

import (
	"runtime"
	"sync"

	"github.com/eapache/queue"
	"github.com/vkolb/echod/echo/common"
)

var poolLogger = common.GetLogger("pool")

// Task is one unit of blocking work, typically a full echo exchange.
type Task func()

// workerPool runs tasks on a fixed set of workers that are permitted to
// block for arbitrary, peer-controlled durations.
//
// The pool is fed by an unbounded FIFO queue: Submit appends and returns
// immediately even when every worker is blocked on a slow connection.
// This is deliberate - the dispatching accept loop must never wait for
// pool capacity, otherwise its forward progress would depend on the very
// workers it is supposed to outlive (see the package documentation).
type workerPool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  *queue.Queue
	closed bool
	size   int
	wg     sync.WaitGroup
}

// newWorkerPool creates a pool with the given number of workers.
// Zero or negative means one worker per CPU.
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &workerPool{
		tasks: queue.New(),
		size:  workers,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}

	return p
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.size
}

// Submit enqueues a task for execution. It never blocks.
// Returns false if the pool has been closed.
func (p *workerPool) Submit(task Task) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.tasks.Add(task)
	p.mu.Unlock()

	p.cond.Signal()
	return true
}

// work is the main loop of a single worker goroutine.
func (p *workerPool) work() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for p.tasks.Length() == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.tasks.Length() == 0 {
			// closed and drained
			p.mu.Unlock()
			return
		}
		task := p.tasks.Remove().(Task)
		p.mu.Unlock()

		p.run(task)
	}
}

// run executes one task and contains any panic to that task, so a fault
// in one connection's handling can never take a worker down with it.
func (p *workerPool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			poolLogger.Errorf("Worker recovered from panic: %v", r)
		}
	}()

	task()
}

// Close stops accepting new tasks and waits until the queued tasks have
// drained and all workers have exited. In-flight tasks run to completion,
// there is no cancellation.
func (p *workerPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}
