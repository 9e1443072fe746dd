// Package worker provides the bounded pool that limits how many
// image builds or container runs execute at once. Both phases share
// one thread budget; a phase submits its jobs, then drains before the
// next phase starts.
package worker

import (
	"context"
	"fmt"
	"sync"
)

// Job is one unit of work. Jobs handle their own failures by
// recording an outcome; a job never aborts its siblings.
type Job func(ctx context.Context)

// Pool executes jobs with bounded concurrency. Submission order is
// admission order: excess jobs queue on the semaphore FIFO.
type Pool struct {
	size int
	sem  chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	active int
	peak   int
}

// New creates a pool running at most size jobs concurrently.
func New(size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}
	return &Pool{
		size: size,
		sem:  make(chan struct{}, size),
	}, nil
}

// Size returns the concurrency bound.
func (p *Pool) Size() int { return p.size }

// Submit queues a job. Blocks until a slot opens when the pool is at
// capacity, or returns early when ctx is canceled before admission.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	p.mu.Lock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			<-p.sem
			p.wg.Done()
		}()
		job(ctx)
	}()

	return nil
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Peak returns the highest number of jobs observed running at once.
func (p *Pool) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}
