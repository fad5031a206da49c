// Package scheduler runs the periodic background jobs: gateway
// reconciliation, activity log retention and metric refreshes.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/safarinest/hotel-booking-backend/internal/common/logger"
)

// Scheduler runs registered tasks on fixed intervals, one goroutine per
// task. Each run gets a bounded context so a wedged task cannot block
// shutdown forever.
type Scheduler struct {
	tasks  []*Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Task is one periodic job.
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// New creates an empty scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make([]*Task, 0),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddTask registers a task. Must be called before Start.
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	})
}

// Start launches all registered tasks. Each task runs once immediately,
// then on its interval.
func (s *Scheduler) Start() {
	logger.Info("scheduler starting", logger.Int("tasks", len(s.tasks)))
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
}

// Stop cancels all tasks and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) runTask(task *Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	s.executeTask(task)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeTask(task)
		}
	}
}

func (s *Scheduler) executeTask(task *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := task.Handler(ctx); err != nil {
		logger.Error("scheduled task failed",
			logger.String("task", task.Name),
			logger.Err(err))
		return
	}
	logger.Debug("scheduled task completed",
		logger.String("task", task.Name),
		logger.Duration("duration", time.Since(start)))
}
