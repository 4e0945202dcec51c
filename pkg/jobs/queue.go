package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work, such as rendering an attendance export.
type Task struct {
	ID        string
	Kind      string
	Payload   interface{}
	Attempt   int
	CreatedAt time.Time
}

// TaskFunc executes a task.
type TaskFunc func(context.Context, Task) error

// PoolConfig tunes the worker pool.
type PoolConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Pool dispatches tasks to a fixed set of goroutine workers with retry on failure.
type Pool struct {
	name string
	fn   TaskFunc

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	tasks   chan Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPool builds a pool with the provided task function.
func NewPool(name string, fn TaskFunc, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		name:       name,
		fn:         fn,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		tasks:      make(chan Task, cfg.BufferSize),
	}
}

// Start launches the workers. Safe to call once.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
	p.logger.Sugar().Infow("worker pool started", "pool", p.name, "workers", p.workers)
}

// Stop cancels workers and waits for them to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("worker pool stopped", "pool", p.name)
}

// Submit queues a task for processing.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	ctx := p.ctx
	started := p.started
	p.mu.Unlock()

	if !started {
		return fmt.Errorf("pool %s not started", p.name)
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("pool %s stopped: %w", p.name, ctx.Err())
	case p.tasks <- task:
		return nil
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.tasks:
			if err := p.fn(p.ctx, task); err != nil {
				p.retry(task, err)
			}
		}
	}
}

func (p *Pool) retry(task Task, err error) {
	task.Attempt++
	if task.Attempt > p.maxRetries {
		p.logger.Sugar().Errorw("task exceeded retries", "pool", p.name, "task_id", task.ID, "kind", task.Kind, "error", err)
		return
	}
	p.logger.Sugar().Warnw("task failed, retrying", "pool", p.name, "task_id", task.ID, "kind", task.Kind, "attempt", task.Attempt, "error", err)

	go func(t Task) {
		timer := time.NewTimer(p.retryDelay)
		defer timer.Stop()
		select {
		case <-p.ctx.Done():
			return
		case <-timer.C:
			if err := p.Submit(t); err != nil {
				p.logger.Sugar().Errorw("failed to resubmit task", "pool", p.name, "task_id", t.ID, "error", err)
			}
		}
	}(task)
}
