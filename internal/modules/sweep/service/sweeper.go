package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"saferun/internal/modules/sweep/domain"
	sweepout "saferun/internal/modules/sweep/port/out"
	"saferun/internal/platform/clock"
	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/logging"
)

type Config struct {
	GracePeriod time.Duration
	Concurrency int
}

// Sweeper escalates sessions whose deadline passed more than GracePeriod ago.
// Each candidate is claimed before the gateway is called, so a session is
// escalated at most once even when passes overlap or race with check-ins.
type Sweeper struct {
	clock    clock.Clock
	source   sweepout.SessionSource
	notifier sweepout.Notifier
	metrics  sweepout.Metrics
	cfg      Config
}

func NewSweeper(clock clock.Clock, source sweepout.SessionSource, notifier sweepout.Notifier, metrics sweepout.Metrics, cfg Config) *Sweeper {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Sweeper{clock: clock, source: source, notifier: notifier, metrics: metrics, cfg: cfg}
}

// RunPass only fails when the overdue query itself fails. Per-session
// problems are counted in the report.
func (s *Sweeper) RunPass(ctx context.Context) (domain.Report, error) {
	started := s.clock.Now()
	report := domain.Report{StartedAt: started, Cutoff: started.Add(-s.cfg.GracePeriod)}
	logger := log.Ctx(ctx)

	candidates, err := s.source.Overdue(ctx, report.Cutoff)
	if err != nil {
		return report, err
	}
	report.Scanned = len(candidates)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)
	for _, candidate := range candidates {
		g.Go(func() error {
			outcome := s.escalate(ctx, candidate, report.Cutoff)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeEscalated:
				report.Escalated++
			case outcomeDeliveryFailed:
				report.Escalated++
				report.DeliveryFailed++
			case outcomeSkipped:
				report.Skipped++
			default:
				report.Errors++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Took = s.clock.Now().Sub(started)
	if s.metrics != nil {
		s.metrics.ObservePass(report.Took, report.Sent(), report.Skipped, report.Failed())
	}
	event := logger.Debug()
	if report.Escalated > 0 || report.Failed() > 0 {
		event = logger.Info()
	}
	event.
		Int("scanned", report.Scanned).
		Int("escalated", report.Escalated).
		Int("delivery_failed", report.DeliveryFailed).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Time("cutoff", report.Cutoff).
		Msg("sweep pass finished")
	return report, nil
}

type outcome int

const (
	outcomeEscalated outcome = iota
	outcomeDeliveryFailed
	outcomeSkipped
	outcomeError
)

func (s *Sweeper) escalate(ctx context.Context, candidate domain.Candidate, cutoff time.Time) outcome {
	ctx = logging.WithFields(ctx, map[string]any{"session_id": candidate.SessionID, "owner_id": candidate.OwnerID})
	logger := log.Ctx(ctx)

	claimed, err := s.source.Claim(ctx, candidate.SessionID, cutoff)
	if err != nil {
		if errors.Is(err, apperrors.ErrPreconditionFailed) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Debug().Err(err).Msg("overdue candidate no longer eligible")
			return outcomeSkipped
		}
		logger.Error().Err(err).Msg("claim escalation")
		return outcomeError
	}
	// The claim is committed, so shutdown must not cancel the alert.
	if err := s.notifier.NotifyOverdue(context.WithoutCancel(ctx), claimed); err != nil {
		logger.Warn().Err(err).Msg("escalation claimed but notification failed")
		return outcomeDeliveryFailed
	}
	logger.Info().Time("deadline", claimed.Deadline).Msg("overdue session escalated")
	return outcomeEscalated
}
