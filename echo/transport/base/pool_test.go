package base

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestPoolRunsTasks verifies that submitted tasks execute
func TestPoolRunsTasks(t *testing.T) {
	p := newWorkerPool(4)
	defer p.Close()

	var count atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		if !p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}) {
			t.Fatalf("Submit returned false on open pool")
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Timeout waiting for tasks, ran %d of 100", count.Load())
	}

	if count.Load() != 100 {
		t.Errorf("Expected 100 tasks to run, got %d", count.Load())
	}
}

// TestSubmitNeverBlocks is the central property of the dispatch design:
// submitting must return immediately even when every worker is occupied
// by a blocked task, otherwise the accept loop could deadlock on a slow
// peer
func TestSubmitNeverBlocks(t *testing.T) {
	p := newWorkerPool(1)

	// Occupy the only worker
	release := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-release
	})

	select {
	case <-started:
	case <-time.After(1 * time.Second):
		t.Fatal("Worker never picked up the blocking task")
	}

	// With the pool saturated, further submissions must still return
	// immediately
	submitted := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			p.Submit(func() {})
		}
		close(submitted)
	}()

	select {
	case <-submitted:
	case <-time.After(1 * time.Second):
		t.Fatal("Submit blocked on a saturated pool")
	}

	// Unblock the worker and let the pool drain on Close
	close(release)
	p.Close()
}

// TestQueuedTasksRunAfterRelease verifies queued tasks execute once a
// worker frees up, in submission order
func TestQueuedTasksRunAfterRelease(t *testing.T) {
	p := newWorkerPool(1)
	defer p.Close()

	release := make(chan struct{})
	p.Submit(func() { <-release })

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	close(release)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for queued tasks")
	}

	// Single worker, FIFO queue: submission order is execution order
	for i, v := range order {
		if v != i {
			t.Fatalf("Task %d ran out of order: %v", i, order)
		}
	}
}

// TestPanicContainment verifies a panicking task does not take its worker
// down: subsequent tasks still run
func TestPanicContainment(t *testing.T) {
	p := newWorkerPool(1)
	defer p.Close()

	p.Submit(func() {
		panic("boom")
	})

	ran := make(chan struct{})
	p.Submit(func() {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(1 * time.Second):
		t.Fatal("Worker died after a panicking task")
	}
}

// TestCloseDrainsQueue verifies Close waits for queued tasks
func TestCloseDrainsQueue(t *testing.T) {
	p := newWorkerPool(2)

	var count atomic.Int64
	for i := 0; i < 50; i++ {
		p.Submit(func() {
			time.Sleep(time.Millisecond)
			count.Add(1)
		})
	}

	p.Close()

	if count.Load() != 50 {
		t.Errorf("Close returned before queue drained: %d of 50 tasks ran", count.Load())
	}

	// Submissions after Close are rejected
	if p.Submit(func() {}) {
		t.Error("Submit should return false after Close")
	}
}
