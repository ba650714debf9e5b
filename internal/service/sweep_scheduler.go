package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

const defaultSweepSchedule = "@every 15m"

type sweeper interface {
	Sweep(ctx context.Context) (models.SweepResult, error)
}

// SweepScheduler runs the retry sweep on a cron schedule. Overlapping runs
// are skipped rather than queued.
type SweepScheduler struct {
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger
}

// NewSweepScheduler registers the sweep under schedule. Each run gets its own
// deadline.
func NewSweepScheduler(target sweeper, schedule string, runTimeout time.Duration, logger *zap.Logger) (*SweepScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = defaultSweepSchedule
	}
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	c := cron.New(
		cron.WithLogger(newCronLogger(logger, false)),
		cron.WithChain(cron.SkipIfStillRunning(newCronLogger(logger, true))),
	)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := target.Sweep(ctx); err != nil {
			logger.Warn("scheduled sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("register sweep schedule %q: %w", schedule, err)
	}
	return &SweepScheduler{cron: c, schedule: schedule, logger: logger}, nil
}

// Start begins firing on schedule.
func (s *SweepScheduler) Start() {
	s.cron.Start()
	s.logger.Info("sweep scheduler started", zap.String("schedule", s.schedule))
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to expire.
func (s *SweepScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("sweep still running at shutdown")
	}
}

// cronLogger routes the scheduler's own notices into zap. Routine wake and
// run notices go to debug; skipped runs are reported at info.
type cronLogger struct {
	sugar   *zap.SugaredLogger
	verbose bool
}

func newCronLogger(logger *zap.Logger, verbose bool) cron.Logger {
	return cronLogger{sugar: logger.Named("cron").Sugar(), verbose: verbose}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if l.verbose {
		l.sugar.Infow(msg, keysAndValues...)
		return
	}
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
