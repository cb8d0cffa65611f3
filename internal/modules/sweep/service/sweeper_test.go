package service_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionout "saferun/internal/modules/session/adapter/out"
	sessionservice "saferun/internal/modules/session/service"
	sessionusecase "saferun/internal/modules/session/usecase"
	sweepout "saferun/internal/modules/sweep/adapter/out"
	"saferun/internal/modules/sweep/domain"
	sweepport "saferun/internal/modules/sweep/port/out"
	"saferun/internal/modules/sweep/service"
	"saferun/internal/platform/clock"
	"saferun/internal/platform/config"
	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/id"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type countingNotifier struct {
	mu      sync.Mutex
	calls   []domain.Candidate
	ctxErrs []error
	err     error
}

func (n *countingNotifier) NotifyOverdue(ctx context.Context, c domain.Candidate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return n.err
}

func (n *countingNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type passRecorder struct {
	passes                int
	sent, skipped, failed int
}

func (p *passRecorder) ObservePass(_ time.Duration, sent, skipped, failed int) {
	p.passes++
	p.sent += sent
	p.skipped += skipped
	p.failed += failed
}

type world struct {
	clock    *clock.Manual
	sessions *sessionusecase.Interactor
	source   sweepout.SessionSource
}

func newWorld() world {
	clk := clock.NewManual(t0)
	store := sessionout.NewMemoryStore()
	cfg := sessionservice.ConfigFrom(config.Default(""))
	sessions := sessionusecase.NewInteractor(
		sessionservice.NewEngine(clk, id.UUID{}, store, nil, nil, cfg),
		sessionservice.NewTracker(clk, store, nil, nil),
		sessionservice.NewEscalations(clk, store),
	)
	return world{clock: clk, sessions: sessions, source: sweepout.NewSessionSource(sessions)}
}

func (w world) startTimer(t *testing.T, owner string, minutes int) string {
	t.Helper()
	out, err := w.sessions.StartTimer(context.Background(), sessionDTO(owner, minutes))
	require.NoError(t, err)
	return out.Session.ID
}

func sweeperFor(w world, source sweepport.SessionSource, n *countingNotifier, m sweepport.Metrics) *service.Sweeper {
	return service.NewSweeper(w.clock, source, n, m, service.Config{GracePeriod: 5 * time.Minute, Concurrency: 4})
}

func TestOverdueSessionEscalatedExactlyOnce(t *testing.T) {
	t.Parallel()
	w := newWorld()
	ctx := context.Background()
	sessionID := w.startTimer(t, "u1", 30)

	notifier := &countingNotifier{}
	metrics := &passRecorder{}
	sweeper := sweeperFor(w, w.source, notifier, metrics)

	// Deadline is t0+30m; with 5m grace nothing is due at t0+34m.
	w.clock.Set(t0.Add(34 * time.Minute))
	report, err := sweeper.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 0, notifier.Calls())

	w.clock.Set(t0.Add(36 * time.Minute))
	report, err = sweeper.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)
	require.Equal(t, 1, notifier.Calls())
	assert.Equal(t, sessionID, notifier.calls[0].SessionID)
	assert.Equal(t, t0.Add(30*time.Minute), notifier.calls[0].Deadline)

	report, err = sweeper.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 1, notifier.Calls(), "second pass must not notify again")

	stored, err := w.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, stored.EscalationSent)
	assert.Equal(t, "active", stored.Status)
	assert.Equal(t, 3, metrics.passes)
	assert.Equal(t, 1, metrics.sent)
}

func TestEscalationFlagKeptWhenDeliveryFails(t *testing.T) {
	t.Parallel()
	w := newWorld()
	ctx := context.Background()
	sessionID := w.startTimer(t, "u1", 30)

	notifier := &countingNotifier{err: apperrors.ErrDeliveryFailed}
	metrics := &passRecorder{}
	sweeper := sweeperFor(w, w.source, notifier, metrics)
	w.clock.Set(t0.Add(time.Hour))

	report, err := sweeper.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, 1, report.DeliveryFailed)
	assert.Equal(t, 0, metrics.sent, "an undelivered alert is not counted as sent")
	assert.Equal(t, 1, metrics.failed)

	_, err = sweeper.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.Calls())

	stored, err := w.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.True(t, stored.EscalationSent)
}

// racingSource resolves every candidate after it has been listed, the way a
// client check-in or end can land between the query and the claim.
type racingSource struct {
	sweepout.SessionSource
	resolve func(ctx context.Context, sessionID string)
}

func (r racingSource) Overdue(ctx context.Context, cutoff time.Time) ([]domain.Candidate, error) {
	candidates, err := r.SessionSource.Overdue(ctx, cutoff)
	for _, c := range candidates {
		r.resolve(ctx, c.SessionID)
	}
	return candidates, err
}

func TestSessionResolvedBeforeClaimIsSkipped(t *testing.T) {
	t.Parallel()
	w := newWorld()
	ctx := context.Background()
	ended := w.startTimer(t, "u1", 30)
	checkedIn := w.startTimer(t, "u2", 30)
	w.clock.Set(t0.Add(40 * time.Minute))

	source := racingSource{SessionSource: w.source, resolve: func(ctx context.Context, sessionID string) {
		var err error
		if sessionID == ended {
			_, err = w.sessions.End(ctx, sessionID)
		} else {
			_, err = w.sessions.CheckIn(ctx, checkInDTO(sessionID))
		}
		require.NoError(t, err)
	}}
	notifier := &countingNotifier{}
	report, err := sweeperFor(w, source, notifier, nil).RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Escalated)
	assert.Equal(t, 0, notifier.Calls())

	for _, sessionID := range []string{ended, checkedIn} {
		stored, err := w.sessions.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, stored.EscalationSent)
	}
}

func TestConcurrentPassesEscalateOnce(t *testing.T) {
	t.Parallel()
	w := newWorld()
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		w.startTimer(t, "u1", 30)
	}
	w.clock.Set(t0.Add(time.Hour))
	notifier := &countingNotifier{}
	sweeper := sweeperFor(w, w.source, notifier, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sweeper.RunPass(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, notifier.Calls())
}

type brokenSource struct{}

func (brokenSource) Overdue(context.Context, time.Time) ([]domain.Candidate, error) {
	return []domain.Candidate{{SessionID: "a"}, {SessionID: "b"}}, nil
}

func (brokenSource) Claim(_ context.Context, sessionID string, _ time.Time) (domain.Candidate, error) {
	if sessionID == "a" {
		return domain.Candidate{}, errors.New("store offline")
	}
	return domain.Candidate{SessionID: sessionID}, nil
}

func TestClaimErrorDoesNotAbortPass(t *testing.T) {
	t.Parallel()
	w := newWorld()
	notifier := &countingNotifier{}
	report, err := sweeperFor(w, brokenSource{}, notifier, nil).RunPass(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, 1, notifier.Calls())
}

// stoppingSource cancels the pass right after a claim commits, the way a
// shutdown signal can land between claim and send.
type stoppingSource struct {
	sweepout.SessionSource
	stop context.CancelFunc
}

func (s stoppingSource) Claim(ctx context.Context, sessionID string, cutoff time.Time) (domain.Candidate, error) {
	c, err := s.SessionSource.Claim(ctx, sessionID, cutoff)
	s.stop()
	return c, err
}

func TestClaimedAlertSurvivesShutdown(t *testing.T) {
	t.Parallel()
	w := newWorld()
	sessionID := w.startTimer(t, "u1", 30)
	w.clock.Set(t0.Add(time.Hour))

	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(zerolog.New(&buf).WithContext(context.Background()))
	defer cancel()

	notifier := &countingNotifier{}
	report, err := sweeperFor(w, stoppingSource{SessionSource: w.source, stop: cancel}, notifier, nil).RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)
	require.Equal(t, 1, notifier.Calls())
	assert.NoError(t, notifier.ctxErrs[0])

	assert.Contains(t, buf.String(), `"session_id":"`+sessionID+`"`)
	assert.Contains(t, buf.String(), `"owner_id":"u1"`)
	assert.Contains(t, buf.String(), "overdue session escalated")
}
