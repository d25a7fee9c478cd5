package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sangkips/billing-api/internal/domain/repository"
	"go.uber.org/zap"
)

const reapTimeout = 2 * time.Minute

// Scheduler runs periodic housekeeping jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New creates a scheduler whose jobs never overlap with their own previous run.
func New(log *zap.Logger) *Scheduler {
	log = log.Named("scheduler")
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		)),
		log: log,
	}
}

// ScheduleIdempotencyReaper removes expired idempotency keys on schedule, a
// standard cron expression or descriptor such as "@hourly".
func (s *Scheduler) ScheduleIdempotencyReaper(schedule string, repo repository.IdempotencyRepository) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
		defer cancel()
		ReapIdempotencyKeys(ctx, repo, s.log)
	})
	if err != nil {
		return fmt.Errorf("schedule idempotency reaper %q: %w", schedule, err)
	}
	s.log.Info("idempotency reaper scheduled", zap.String("schedule", schedule))
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

// ReapIdempotencyKeys deletes every key whose expiry has passed.
func ReapIdempotencyKeys(ctx context.Context, repo repository.IdempotencyRepository, log *zap.Logger) int64 {
	n, err := repo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Error("idempotency reaper failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		log.Info("expired idempotency keys removed", zap.Int64("count", n))
	}
	return n
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
