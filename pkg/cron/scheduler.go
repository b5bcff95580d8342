// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds one re-categorization pass.
const sweepTimeout = 30 * time.Minute

// Sweeper re-runs categorization over persisted uncategorized expenses.
type Sweeper interface {
	Sweep(ctx context.Context, limit int) error
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	limit    int
	logger   *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(sweeper Sweeper, schedule string, limit int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		schedule: schedule,
		limit:    limit,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.recategorize)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs the re-categorization sweep synchronously.
func (s *Scheduler) RunNow() {
	s.recategorize()
}

func (s *Scheduler) recategorize() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("starting re-categorization sweep")
	if err := s.sweeper.Sweep(ctx, s.limit); err != nil {
		s.logger.Error("re-categorization sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Info("re-categorization sweep completed", slog.Duration("took", time.Since(start)))
}
