package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"sellwatch/internal/models"
	"sellwatch/internal/retry"
)

// State is the scheduler's state after a probe.
type State string

const (
	StateIdle     State = "idle"
	StateLaunched State = "launched"
	StateRetrying State = "retrying"
)

// Scheduler alternates between probing and waiting:
// Idle -> probe -> {Launched, Retrying} -> delay -> probe.
type Scheduler struct {
	orch   *Orchestrator
	launch func(ctx context.Context, category models.Category)
	rescan func(ctx context.Context)
	logger *zap.Logger

	LaunchInterval time.Duration
	RetryInterval  time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	rescanMu sync.Mutex
	rescans  conc.WaitGroup
	state    State
}

// NewScheduler returns a Scheduler. launch blocks while the selected category
// is tracked; rescan, if set, runs in the background when nothing qualifies.
func NewScheduler(orch *Orchestrator, launch func(context.Context, models.Category), rescan func(context.Context), logger *zap.Logger) *Scheduler {
	return &Scheduler{
		orch:           orch,
		launch:         launch,
		rescan:         rescan,
		logger:         logger,
		LaunchInterval: 15 * time.Minute,
		RetryInterval:  5 * time.Minute,
		Now:            time.Now,
		state:          StateIdle,
	}
}

// State returns the state reached by the last Step.
func (s *Scheduler) State() State {
	return s.state
}

// Step probes once, launches or triggers a rescan, and returns the delay
// before the next probe.
func (s *Scheduler) Step(ctx context.Context) time.Duration {
	started := s.Now()
	cat, ok := s.orch.SelectNextCategory(ctx)
	if !ok {
		s.state = StateRetrying
		s.logger.Info("no category met the freshness threshold", zap.Duration("retry_in", s.RetryInterval))
		s.triggerRescan(ctx)
		return s.RetryInterval
	}
	s.state = StateLaunched
	s.logger.Info("launching category", zap.String("category", cat.Name))
	s.launch(ctx, cat)
	delay := s.LaunchInterval - s.Now().Sub(started)
	if delay < 0 {
		delay = 0
	}
	return delay
}

// Run steps until ctx is done and waits for background rescans to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	defer func() {
		if r := s.rescans.WaitAndRecover(); r != nil {
			s.logger.Error("history rescan panicked", zap.String("panic", r.String()))
		}
	}()
	for {
		delay := s.Step(ctx)
		if err := retry.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// triggerRescan starts the background rescan unless one is still running.
func (s *Scheduler) triggerRescan(ctx context.Context) {
	if s.rescan == nil {
		return
	}
	if !s.rescanMu.TryLock() {
		s.logger.Debug("history rescan already running")
		return
	}
	s.rescans.Go(func() {
		defer s.rescanMu.Unlock()
		s.rescan(ctx)
	})
}
