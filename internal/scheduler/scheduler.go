// Package scheduler runs recurring tasks on a single executor goroutine.
//
// Each task has its own ticker. Tasks registered with Every share one
// executor and run one at a time, so tasks sharing state never execute
// simultaneously. Tasks registered with EveryDetached get an executor of
// their own and keep their cadence while shared tasks are busy. A tick that
// arrives while the same task is still queued or running is dropped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrRunning is returned when the scheduler is modified or started twice.
	ErrRunning = errors.New("scheduler already running")
	// ErrNotRunning is returned by Stop on an idle scheduler.
	ErrNotRunning = errors.New("scheduler not running")
)

// Task is the body of a recurring task. ctx is canceled on Stop.
type Task func(ctx context.Context)

// Stats describes how often a task ran.
type Stats struct {
	Name     string
	Interval time.Duration
	Runs     int64
	Dropped  int64
	Panics   int64
}

type task struct {
	name     string
	interval time.Duration
	run      Task
	detached bool
	pending  atomic.Bool
	runs     atomic.Int64
	dropped  atomic.Int64
	panics   atomic.Int64
}

// Scheduler owns the lifetime of a set of recurring tasks.
type Scheduler struct {
	logger *slog.Logger
	mu     sync.Mutex
	tasks  []*task
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates an idle Scheduler. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// Every registers fn to run every interval on the shared executor once the
// scheduler starts.
func (s *Scheduler) Every(name string, interval time.Duration, fn Task) error {
	return s.add(name, interval, fn, false)
}

// EveryDetached registers fn to run every interval on its own executor. It
// never overlaps itself but may run alongside shared tasks.
func (s *Scheduler) EveryDetached(name string, interval time.Duration, fn Task) error {
	return s.add(name, interval, fn, true)
}

func (s *Scheduler) add(name string, interval time.Duration, fn Task, detached bool) error {
	if interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive, got %s", name, interval)
	}
	if fn == nil {
		return fmt.Errorf("task %s: nil function", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrRunning
	}
	s.tasks = append(s.tasks, &task{name: name, interval: interval, run: fn, detached: detached})
	return nil
}

// Start launches every registered task. They run until ctx is canceled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	shared := make(chan *task, len(s.tasks))
	g.Go(func() error {
		s.execute(gctx, shared)
		return nil
	})

	for _, t := range s.tasks {
		t := t
		queue := shared
		if t.detached {
			queue = make(chan *task, 1)
			g.Go(func() error {
				s.execute(gctx, queue)
				return nil
			})
		}
		g.Go(func() error {
			s.tick(gctx, t, queue)
			return nil
		})
	}

	s.cancel = cancel
	s.group = g

	s.logger.Debug("scheduler started", "tasks", len(s.tasks))
	return nil
}

// Stop cancels every task and waits for the running one to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, g := s.cancel, s.group
	s.cancel, s.group = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}

	cancel()
	err := g.Wait()

	for _, t := range s.tasks {
		t.pending.Store(false)
	}

	s.logger.Debug("scheduler stopped")
	return err
}

// Running reports whether Start has been called without a matching Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stats returns counters for every task in registration order.
func (s *Scheduler) Stats() []Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Stats, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, Stats{
			Name:     t.name,
			Interval: t.interval,
			Runs:     t.runs.Load(),
			Dropped:  t.dropped.Load(),
			Panics:   t.panics.Load(),
		})
	}
	return out
}

// tick forwards ticks of one task to the executor.
func (s *Scheduler) tick(ctx context.Context, t *task, queue chan<- *task) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.pending.CompareAndSwap(false, true) {
				t.dropped.Add(1)
				continue
			}
			select {
			case queue <- t:
			case <-ctx.Done():
				return
			}
		}
	}
}

// execute runs queued tasks one at a time.
func (s *Scheduler) execute(ctx context.Context, queue <-chan *task) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-queue:
			s.runTask(ctx, t)
		}
	}
}

func (s *Scheduler) runTask(ctx context.Context, t *task) {
	defer t.pending.Store(false)
	defer func() {
		if r := recover(); r != nil {
			t.panics.Add(1)
			s.logger.Error("task panicked", "task", t.name, "panic", r)
		}
	}()

	t.run(ctx)
	t.runs.Add(1)
}
