// Package scheduler runs named periodic and one-shot background jobs.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks. ctx is cancelled when
// the task is removed, replaced or the scheduler stops.
type TaskFn func(ctx context.Context)

// Scheduler manages periodic and delayed tasks.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*entry
	timers  map[string]*entry
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type entry struct {
	cancel context.CancelFunc
	timer  *time.Timer
}

// New creates a new Scheduler. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tickers: make(map[string]*entry),
		timers:  make(map[string]*entry),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		old.cancel()
		delete(s.tickers, name)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.tickers[name] = &entry{cancel: cancel}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(ctx, name, fn)
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after the given delay.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.timer.Stop()
		old.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	e := &entry{cancel: cancel}
	e.timer = time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			if s.timers[name] == e {
				delete(s.timers, name)
			}
			s.mu.Unlock()
			cancel()
		}()
		if ctx.Err() != nil {
			return
		}
		s.run(ctx, name, fn)
	})
	s.timers[name] = e
}

func (s *Scheduler) run(ctx context.Context, name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	fn(ctx)
}

// Remove stops and removes a ticker or delay task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tickers[name]; ok {
		e.cancel()
		delete(s.tickers, name)
	}
	if e, ok := s.timers[name]; ok {
		e.timer.Stop()
		e.cancel()
		delete(s.timers, name)
	}
}

// Stop cancels every task. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	for _, e := range s.timers {
		e.timer.Stop()
	}
}

// ListTickers returns the sorted names of all registered ticker tasks.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
