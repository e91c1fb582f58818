package octree3d

import (
	"runtime"
	"sync"
)

// WorkerPool is a fixed pool of goroutines for fanning out per-drawable work such as
// distance updates and ray cast candidate processing. Each submitted task receives the
// index of the worker running it, so callers can keep per-worker scratch buffers and
// merge them after Wait.
type WorkerPool struct {
	numWorkers int
	tasks      chan func(workerIndex int)
	pending    sync.WaitGroup
	closeOnce  sync.Once
}

// NewWorkerPool starts a pool with the given number of workers; numWorkers <= 0 uses the
// number of CPUs.
func NewWorkerPool(numWorkers int) *WorkerPool {

	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		numWorkers: numWorkers,
		tasks:      make(chan func(workerIndex int), numWorkers*4),
	}

	for i := 0; i < numWorkers; i++ {
		go pool.run(i)
	}

	return pool

}

func (pool *WorkerPool) run(workerIndex int) {
	for task := range pool.tasks {
		task(workerIndex)
		pool.pending.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (pool *WorkerPool) NumWorkers() int { return pool.numWorkers }

// Submit queues a task for execution on some worker.
func (pool *WorkerPool) Submit(task func(workerIndex int)) {
	pool.pending.Add(1)
	pool.tasks <- task
}

// Wait blocks until every submitted task has finished.
func (pool *WorkerPool) Wait() {
	pool.pending.Wait()
}

// Stop shuts the pool down after in-flight tasks finish. The pool must not be used
// afterwards.
func (pool *WorkerPool) Stop() {
	pool.closeOnce.Do(func() {
		close(pool.tasks)
	})
}
