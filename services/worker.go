package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// WorkerPool runs fire-and-forget background tasks (enrichment dispatch) and
// drains them on shutdown. Tasks get the pool's context so an in-flight
// classifier call is abandoned when the server stops.
type WorkerPool struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkerPool creates a pool rooted at the background context.
func NewWorkerPool() *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{ctx: ctx, cancel: cancel}
}

// Submit runs the task on its own goroutine and tracks it for shutdown.
func (p *WorkerPool) Submit(task func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Worker task panicked: %v", r)
			}
		}()
		task(p.ctx)
	}()
}

// SubmitWithTimeout runs the task with a per-task deadline.
func (p *WorkerPool) SubmitWithTimeout(timeout time.Duration, task func(ctx context.Context)) {
	p.Submit(func(ctx context.Context) {
		taskCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		task(taskCtx)
	})
}

// Shutdown cancels the pool context and waits up to timeout for running
// tasks to finish.
func (p *WorkerPool) Shutdown(timeout time.Duration) {
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("Worker pool shutdown timed out after %s, some tasks may not have completed", timeout)
	}
}

// Wait blocks until all submitted tasks complete. Used by tests and by the
// re-enrichment sweep to bound overlap.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
