// Package sched runs periodic background tasks. Intervals are measured from
// the completion of the previous run, so a slow tick never causes a burst of
// catch-up ticks. Stop waits a bounded grace period for in-flight ticks.
package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
)

var (
	// ErrAlreadyRunning is returned by Start when the scheduler is running.
	ErrAlreadyRunning = errors.New("sched: already running")
	// ErrNotRunning is returned by Stop when the scheduler never started.
	ErrNotRunning = errors.New("sched: not running")
	// ErrStopTimeout is returned by Stop when a tick outlives the grace period.
	ErrStopTimeout = errors.New("sched: stop grace period expired")
)

// Task is one periodic unit of work. Run receives a context that is cancelled
// when the scheduler stops; long ticks should honor it.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives a fixed set of tasks, one goroutine each.
type Scheduler struct {
	tasks []Task
	grace time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a scheduler over the given tasks. Tasks with a non-positive
// interval or a nil Run are skipped at Start with a warning.
func New(grace time.Duration, tasks ...Task) *Scheduler {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &Scheduler{tasks: tasks, grace: grace}
}

// Start launches all task loops. It returns immediately; the loops run until
// the given context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	var wg sync.WaitGroup
	for _, task := range s.tasks {
		if task.Run == nil || task.Interval <= 0 {
			logger.Warn(runCtx, "sched", "task.skipped",
				slog.String("task", task.Name),
			)
			continue
		}
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.loop(runCtx, t)
		}(task)
	}
	go func(done chan struct{}) {
		wg.Wait()
		close(done)
	}(s.done)

	logger.Info(runCtx, "sched", "scheduler.started",
		slog.Int("tasks", len(s.tasks)),
	)
	return nil
}

// Stop cancels all task loops and waits up to the grace period for in-flight
// ticks to finish. It is safe to call once per successful Start.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
		logger.Info(context.Background(), "sched", "scheduler.stopped")
		return nil
	case <-time.After(s.grace):
		logger.Warn(context.Background(), "sched", "scheduler.stop_timeout",
			slog.Duration("duration", s.grace),
		)
		return ErrStopTimeout
	}
}

// loop runs one task until ctx is cancelled. The timer is re-armed only after
// a tick returns, which makes intervals completion-relative.
func (s *Scheduler) loop(ctx context.Context, t Task) {
	timer := time.NewTimer(t.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		// cancellation may race the timer fire
		if ctx.Err() != nil {
			return
		}
		s.tick(ctx, t)
		timer.Reset(t.Interval)
	}
}

func (s *Scheduler) tick(ctx context.Context, t Task) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "sched", "task.panic",
				slog.String("task", t.Name),
				slog.String("err", fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if err := t.Run(ctx); err != nil {
		logger.Warn(ctx, "sched", "task.fail",
			slog.String("task", t.Name),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "sched", "task.ok",
			slog.String("task", t.Name),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}
