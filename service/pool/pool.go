// Package pool provides a fixed-size worker pool satisfying the task
// submission contract of the pooled scheduling regime. Workers are recycled
// after a configurable number of tasks; the native engine is known to
// misbehave under heavy worker reuse, so the default hands the slot to a
// fresh goroutine after every task.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/visimlab/simrecon/model/types"
)

// Config represents pool configuration.
type Config struct {
	// WorkerCount is the number of workers running tasks.
	WorkerCount int
	// RecycleAfter recycles a worker after that many tasks; 0 disables
	// recycling.
	RecycleAfter int
	// QueueSize bounds how many tasks may wait for a worker.
	QueueSize int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount:  2,
		RecycleAfter: 1,
		QueueSize:    16,
	}
}

type task struct {
	run  func() error
	done chan error
}

type handle struct {
	done chan error
}

// Wait blocks until the task finished or ctx expires.
func (h *handle) Wait(ctx context.Context) error {
	select {
	case err := <-h.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Service is a running worker pool.
type Service struct {
	config       Config
	queue        chan *task
	workerWg     sync.WaitGroup
	shutdownOnce sync.Once
}

var _ types.Submitter = (*Service)(nil)

// Option customises the pool.
type Option func(*Config)

// WithWorkers sets the worker count.
func WithWorkers(count int) Option {
	return func(c *Config) { c.WorkerCount = count }
}

// WithRecycleAfter sets how many tasks a worker runs before being recycled.
func WithRecycleAfter(count int) Option {
	return func(c *Config) { c.RecycleAfter = count }
}

// WithQueueSize sets the waiting-task capacity.
func WithQueueSize(size int) Option {
	return func(c *Config) { c.QueueSize = size }
}

// New creates the pool and starts its workers.
func New(options ...Option) *Service {
	config := DefaultConfig()
	for _, option := range options {
		option(&config)
	}
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	s := &Service{config: config, queue: make(chan *task, config.QueueSize)}
	for i := 0; i < config.WorkerCount; i++ {
		s.workerWg.Add(1)
		go s.worker()
	}
	return s
}

// Submit enqueues a task and returns a handle resolving once it ran. It
// blocks while the queue is full and must not be called after Shutdown.
func (s *Service) Submit(ctx context.Context, run func() error) (types.Handle, error) {
	if run == nil {
		return nil, types.NewInvalidError("task is required")
	}
	t := &task{run: run, done: make(chan error, 1)}
	select {
	case s.queue <- t:
		return &handle{done: t.done}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops accepting tasks and waits until queued ones finished.
func (s *Service) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.queue) })
	s.workerWg.Wait()
}

func (s *Service) worker() {
	defer s.workerWg.Done()
	count := 0
	for t := range s.queue {
		t.done <- runTask(t.run)
		count++
		if s.config.RecycleAfter > 0 && count >= s.config.RecycleAfter {
			// Hand the slot to a fresh goroutine.
			s.workerWg.Add(1)
			go s.worker()
			return
		}
	}
}

// runTask shields the worker from panicking tasks.
func runTask(run func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return run()
}
