package feedback

import (
	"context"
	"sync"
)

// DefaultWorkers bounds concurrent per-file tasks.
const DefaultWorkers = 4

// workerPool bounds concurrency with a channel semaphore. Submit blocks
// while the pool is full, giving natural backpressure.
type workerPool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &workerPool{sem: make(chan struct{}, size)}
}

// Submit runs task on a worker slot. It blocks until a slot frees up or ctx
// is cancelled; a cancelled submit never starts the task.
func (p *workerPool) Submit(ctx context.Context, task func()) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		task()
	}()
	return nil
}

// Wait blocks until every submitted task has finished.
func (p *workerPool) Wait() {
	p.wg.Wait()
}
