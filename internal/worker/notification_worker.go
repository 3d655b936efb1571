package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/service"
)

// Job is a unit of background work.
type Job struct {
	Name string
	Run  func(context.Context) error
}

// Pool runs submitted jobs on a fixed number of goroutines.
type Pool struct {
	logger  *zap.Logger
	size    int
	jobs    chan Job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool with size workers and a queue of buffer jobs.
func NewPool(size, buffer int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		logger: logger,
		size:   size,
		jobs:   make(chan Job, buffer),
	}
}

// Start launches the workers. They drain the queue until Stop is called.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if err := job.Run(ctx); err != nil {
					p.logger.Warn("background job failed", zap.String("job", job.Name), zap.Error(err))
				}
			}
		}()
	}
}

// Submit enqueues a job without blocking. It reports false when the queue is
// full or the pool has been stopped.
func (p *Pool) Submit(name string, run func(context.Context) error) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- Job{Name: name, Run: run}:
		return true
	default:
		p.logger.Warn("background queue full; dropping job", zap.String("job", name))
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// StartNotificationWorker registers notification handlers and routes their
// deliveries through the pool.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, pool *Pool) {
	if notificationService == nil {
		return
	}
	if pool != nil {
		pool.Start(ctx)
		notificationService.UseSubmitter(pool)
	}
	notificationService.RegisterHandlers()
}
