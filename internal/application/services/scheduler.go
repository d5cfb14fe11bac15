package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/providers"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/infrastructure/observability"
	apperrors "github.com/Satyam1013/Free-Health-Camp-sub000/pkg/errors"
)

// SweepFunc runs one sweep to completion
type SweepFunc func(ctx context.Context) (*SweepReport, error)

type sweepJob struct {
	schedule string
	run      SweepFunc
}

// Scheduler runs the registered sweeps on cron schedules. Every run, scheduled
// or manual, takes an advisory lock so only one replica executes a sweep at a time.
type Scheduler struct {
	cron    *cron.Cron
	locker  providers.Locker
	lockTTL time.Duration

	mu   sync.RWMutex
	jobs map[string]sweepJob

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. locker may be nil for single-replica deployments.
func NewScheduler(locker providers.Locker, lockTTL time.Duration) *Scheduler {
	logger := cronLogger{logger: observability.GetLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		locker:  locker,
		lockTTL: lockTTL,
		jobs:    make(map[string]sweepJob),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a sweep. An empty schedule registers it for manual runs only.
func (s *Scheduler) Register(name, schedule string, run SweepFunc) error {
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return fmt.Errorf("invalid schedule %q for sweep %s: %w", schedule, name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("sweep %s already registered", name)
	}
	s.jobs[name] = sweepJob{schedule: schedule, run: run}
	return nil
}

// Names lists registered sweeps
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start schedules every sweep that has a schedule
func (s *Scheduler) Start() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for name, job := range s.jobs {
		if job.schedule == "" {
			continue
		}
		name := name
		if _, err := s.cron.AddFunc(job.schedule, func() { s.runScheduled(name) }); err != nil {
			return fmt.Errorf("failed to schedule sweep %s: %w", name, err)
		}
		observability.GetLogger().Info().Str("sweep", name).Str("schedule", job.schedule).Msg("sweep scheduled")
	}
	s.cron.Start()
	return nil
}

// Stop stops scheduling and waits for running sweeps to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
}

// Run executes sweep name now. It fails with CONFLICT when another run holds the lock.
func (s *Scheduler) Run(ctx context.Context, name string) (*SweepReport, error) {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("unknown sweep %q", name))
	}

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, "sweep:"+name, s.lockTTL)
		if err != nil {
			return nil, apperrors.NewTransientError("failed to acquire sweep lock", err)
		}
		if !acquired {
			return nil, apperrors.NewConflictError(fmt.Sprintf("sweep %s is already running", name))
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("sweep", name).Msg("failed to release sweep lock")
			}
		}()
	}

	return job.run(ctx)
}

func (s *Scheduler) runScheduled(name string) {
	_, err := s.Run(s.ctx, name)
	switch {
	case err == nil:
	case apperrors.IsType(err, apperrors.ErrorTypeConflict):
		observability.GetLogger().Info().Str("sweep", name).Msg("sweep skipped, running on another replica")
	default:
		observability.GetLogger().Error().Err(err).Str("sweep", name).Msg("scheduled sweep failed")
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
