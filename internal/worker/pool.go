package worker

import (
	"sync"

	"github.com/baharkarakas/point-ledger/internal/metrics"
)

type Task func()

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
}

func NewPool(n, queue int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{jobs: make(chan Task, queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
				job()
			}
		}()
	}
	return p
}

// Submit blocks while the queue is full. It must not be called after Stop.
func (p *Pool) Submit(f Task) {
	p.jobs <- f
	metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
}

// Stop waits for queued tasks to finish.
func (p *Pool) Stop() { close(p.jobs); p.wg.Wait() }
