package worker

import "sync"

// Task represents a unit of work to be processed by a worker
type Task func()

// Pool runs fire-and-forget tasks on a fixed set of goroutines sharing one
// queue. Submit blocks only when every worker is busy and the queue is full.
type Pool struct {
	queue   chan Task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool with numWorkers goroutines (at least one).
func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{queue: make(chan Task, queueSize)}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.queue {
				task()
			}
		}()
	}
	return p
}

// Submit queues task. It reports false once the pool is stopped.
func (p *Pool) Submit(task Task) bool {
	// workers keep draining until Stop closes the queue, so a blocked send
	// under the read lock always completes
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	p.queue <- task
	return true
}

// Stop drains queued tasks and waits for workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
