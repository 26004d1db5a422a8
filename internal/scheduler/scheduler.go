// Package scheduler drives the periodic pipeline jobs: ingesting prices,
// recomputing day statistics and notifying subscribers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Jobs holds the pipeline entry points the scheduler triggers. A nil job is
// not registered.
type Jobs struct {
	Ingest func(ctx context.Context) error
	Stats  func(ctx context.Context) error
	Notify func(ctx context.Context) error
}

// Scheduler manages the cron tasks of the daemon. Cron expressions use the
// six-field form with a leading seconds field.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	logger *slog.Logger
	ctx    context.Context
}

func NewScheduler(ctx context.Context, jobs Jobs, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		jobs:   jobs,
		logger: logger,
		ctx:    ctx,
	}
}

// Register wires the configured cron expressions to their jobs.
func (s *Scheduler) Register(ingestCron, statsCron, notifyCron string) error {
	if s.jobs.Ingest != nil {
		if _, err := s.cron.AddFunc(ingestCron, func() { s.run("ingest", s.jobs.Ingest) }); err != nil {
			return fmt.Errorf("register ingest task: %w", err)
		}
	}
	if s.jobs.Stats != nil {
		if _, err := s.cron.AddFunc(statsCron, func() { s.run("stats", s.jobs.Stats) }); err != nil {
			return fmt.Errorf("register stats task: %w", err)
		}
	}
	if s.jobs.Notify != nil {
		if _, err := s.cron.AddFunc(notifyCron, func() { s.run("notify", s.jobs.Notify) }); err != nil {
			return fmt.Errorf("register notify task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunAllNow executes the full pipeline once, in order. Used at daemon
// startup so a fresh deployment does not wait for the first cron tick.
func (s *Scheduler) RunAllNow() {
	if s.jobs.Ingest != nil {
		s.run("ingest", s.jobs.Ingest)
	}
	if s.jobs.Stats != nil {
		s.run("stats", s.jobs.Stats)
	}
	if s.jobs.Notify != nil {
		s.run("notify", s.jobs.Notify)
	}
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) {
	s.logger.Info("running task", "task", name)
	if err := job(s.ctx); err != nil {
		s.logger.Error("task failed", "task", name, "err", err)
		return
	}
	s.logger.Info("task finished", "task", name)
}
