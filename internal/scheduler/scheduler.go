package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flowstack/flowstack/internal/store"
)

// RunLauncher is the interface the scheduler uses to start workflow runs.
// Satisfied by the engine dispatcher (avoids import cycle).
type RunLauncher interface {
	Launch(ctx context.Context, definitionID string, payload map[string]any) (*store.Run, error)
}

// TriggerStore is the subset of the persistence contract the scheduler needs.
type TriggerStore interface {
	ListTriggers(ctx context.Context, filter store.TriggerFilter) ([]*store.Trigger, error)
	UpdateTrigger(ctx context.Context, id string, update store.TriggerUpdate) error
}

// Scheduler polls the store for due cron triggers and launches runs.
type Scheduler struct {
	store    TriggerStore
	launcher RunLauncher
	parser   cron.Parser
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{} // trigger IDs currently firing (dedup)
}

// NewScheduler creates a new Scheduler with the standard 5-field cron parser.
func NewScheduler(s TriggerStore, launcher RunLauncher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:    s,
		launcher: launcher,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		interval: 60 * time.Second,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Start launches the background scheduling loop with a 60s ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run an initial tick immediately.
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick checks all enabled triggers and fires those that are due. A trigger
// with no next_run_at yet (freshly created) is considered due.
func (s *Scheduler) Tick(ctx context.Context) {
	enabled := true
	triggers, err := s.store.ListTriggers(ctx, store.TriggerFilter{Enabled: &enabled})
	if err != nil {
		s.logger.Error("failed to list triggers", slog.String("error", err.Error()))
		return
	}

	now := time.Now().UTC()
	for _, trigger := range triggers {
		if trigger.NextRunAt == nil || !trigger.NextRunAt.After(now) {
			if !s.tryAcquire(trigger.ID) {
				continue // already firing (dedup)
			}
			if err := s.fire(ctx, trigger, now); err != nil {
				s.logger.Error("failed to fire trigger",
					slog.String("trigger_id", trigger.ID),
					slog.String("error", err.Error()),
				)
			}
			s.release(trigger.ID)
		}
	}
}

// fire launches a run from the trigger's payload and updates its timestamps.
// The next run time advances even when the launch fails, so a broken
// workflow does not fire on every tick.
func (s *Scheduler) fire(ctx context.Context, trigger *store.Trigger, now time.Time) error {
	s.logger.Info("firing trigger",
		slog.String("trigger_id", trigger.ID),
		slog.String("definition_id", trigger.DefinitionID),
	)

	run, err := s.launcher.Launch(ctx, trigger.DefinitionID, trigger.Payload)
	if err != nil {
		s.logger.Error("trigger launch failed",
			slog.String("trigger_id", trigger.ID),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("trigger launched run",
			slog.String("trigger_id", trigger.ID),
			slog.String("run_id", run.ID),
		)
	}

	return s.updateTriggerTimes(ctx, trigger, now)
}

func (s *Scheduler) updateTriggerTimes(ctx context.Context, trigger *store.Trigger, now time.Time) error {
	nextRun, err := s.CalculateNextRun(trigger.CronExpression, now)
	if err != nil {
		return fmt.Errorf("calculate next run for trigger %q: %w", trigger.ID, err)
	}

	return s.store.UpdateTrigger(ctx, trigger.ID, store.TriggerUpdate{
		LastRunAt: &now,
		NextRunAt: &nextRun,
	})
}

// tryAcquire returns true and marks the trigger in-flight if it is not already firing.
func (s *Scheduler) tryAcquire(triggerID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[triggerID]; ok {
		return false
	}
	s.inflight[triggerID] = struct{}{}
	return true
}

// release removes the trigger from the in-flight set.
func (s *Scheduler) release(triggerID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, triggerID)
}

// CalculateNextRun computes the next fire time for a cron expression.
func (s *Scheduler) CalculateNextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
	return nil
}
