package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	sweepdto "saferun/internal/modules/sweep/dto"
	sweepin "saferun/internal/modules/sweep/port/in"
	"saferun/internal/modules/sweep/service"
)

type Interactor struct {
	sweeper *service.Sweeper
}

func NewInteractor(sweeper *service.Sweeper) sweepin.Usecase {
	return &Interactor{sweeper: sweeper}
}

func (i *Interactor) RunPass(ctx context.Context) (sweepdto.ReportOutput, error) {
	report, err := i.sweeper.RunPass(ctx)
	if err != nil {
		return sweepdto.ReportOutput{}, err
	}
	return sweepdto.ReportOutput{
		StartedAt:      report.StartedAt,
		Cutoff:         report.Cutoff,
		Took:           report.Took,
		Scanned:        report.Scanned,
		Escalated:      report.Escalated,
		DeliveryFailed: report.DeliveryFailed,
		Skipped:        report.Skipped,
		Errors:         report.Errors,
	}, nil
}

// Scheduler runs a sweep pass immediately and then once per interval until
// the context is cancelled. Passes never overlap.
type Scheduler struct {
	sweep    sweepin.Usecase
	interval time.Duration
	tick     func(time.Duration) (<-chan time.Time, func())
}

func NewScheduler(sweep sweepin.Usecase, interval time.Duration) *Scheduler {
	return &Scheduler{sweep: sweep, interval: interval, tick: newTicker}
}

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (s *Scheduler) Run(ctx context.Context) error {
	logger := log.Ctx(ctx)
	logger.Info().Dur("interval", s.interval).Msg("overdue sweeper started")
	ticks, stop := s.tick(s.interval)
	defer stop()

	for {
		if _, err := s.sweep.RunPass(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("sweep pass failed")
		}
		select {
		case <-ctx.Done():
			logger.Info().Msg("overdue sweeper stopped")
			return nil
		case <-ticks:
		}
	}
}
