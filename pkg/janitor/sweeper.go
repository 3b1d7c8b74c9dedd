// Package janitor expires abandoned submissions on a cron schedule.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StaleExpirer is the slice of the submission service the sweeper needs.
type StaleExpirer interface {
	ExpireStale(ctx context.Context, window time.Duration) (int, error)
}

// Sweeper periodically rejects submissions with no activity inside the idle
// window. Respondents who walk away mid-survey otherwise hold their
// submissions open forever.
type Sweeper struct {
	expirer  StaleExpirer
	cronExpr string
	window   time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewSweeper validates the cron expression and idle window up front so
// misconfiguration fails at startup, not at the first tick.
func NewSweeper(expirer StaleExpirer, cronExpr string, window time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if window <= 0 {
		return nil, errors.New("sweeper idle window must be positive")
	}

	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid sweeper cron expression: %w", err)
	}

	return &Sweeper{
		expirer:  expirer,
		cronExpr: cronExpr,
		window:   window,
		logger: logger.With(
			"module", "janitor",
			"cron", cronExpr,
			"window", window.String(),
		),
	}, nil
}

// Start schedules the sweep. Overlapping runs are skipped rather than
// stacked.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting submission sweeper")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := s.cron.AddFunc(s.cronExpr, func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweeper: %w", err)
	}

	s.cron.Start()

	return nil
}

// Sweep runs one expiry pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.expirer.ExpireStale(ctx, s.window)
	if err != nil {
		s.logger.ErrorContext(ctx, "Sweep failed", "error", err)

		return
	}

	if expired > 0 {
		s.logger.InfoContext(ctx, "Expired abandoned submissions", "count", expired)
	}
}

// Stop halts the schedule. A sweep already in flight finishes.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping submission sweeper")

	if s.cron != nil {
		s.cron.Stop()
	}

	return nil
}
