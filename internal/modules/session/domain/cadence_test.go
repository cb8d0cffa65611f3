package domain_test

import (
	"testing"
	"time"

	"saferun/internal/modules/session/domain"
)

func TestCadencesAreStrictlyIncreasingAffine(t *testing.T) {
	t.Parallel()
	cadences := []domain.Cadence{
		domain.TimerCadence{First: 30 * time.Minute, Step: 15 * time.Minute, Planned: 60 * time.Minute},
		domain.RouteCadence{First: 60 * time.Minute, Step: 45 * time.Minute},
	}
	for _, c := range cadences {
		step := c.Offset(1) - c.Offset(0)
		for n := 1; n < 50; n++ {
			if c.Offset(n) <= c.Offset(n-1) {
				t.Fatalf("%T not increasing at n=%d", c, n)
			}
			if c.Offset(n)-c.Offset(n-1) != step {
				t.Fatalf("%T not affine at n=%d", c, n)
			}
		}
	}
}

func TestTimerCadenceFirstCheckInNeverAfterPlannedEnd(t *testing.T) {
	t.Parallel()
	short := domain.TimerCadence{First: 30 * time.Minute, Step: 15 * time.Minute, Planned: 10 * time.Minute}
	if got := short.Offset(0); got != 10*time.Minute {
		t.Fatalf("expected first check-in at planned end, got %s", got)
	}
	if got := short.Offset(2); got != 40*time.Minute {
		t.Fatalf("expected 10m + 2x15m, got %s", got)
	}
	long := domain.TimerCadence{First: 30 * time.Minute, Step: 15 * time.Minute, Planned: 90 * time.Minute}
	if got := long.Offset(0); got != 30*time.Minute {
		t.Fatalf("expected first check-in at 30m, got %s", got)
	}
}

func TestNextDeadlineIsAnchoredToStart(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := domain.RouteCadence{First: 60 * time.Minute, Step: 45 * time.Minute}
	for n := 0; n < 10; n++ {
		want := start.Add(60*time.Minute + time.Duration(n)*45*time.Minute)
		if got := domain.NextDeadline(start, c, n, 0); !got.Equal(want) {
			t.Fatalf("n=%d: want %s, got %s", n, want, got)
		}
	}
	if got := domain.NextDeadline(start, c, 1, 20*time.Minute); !got.Equal(start.Add(125 * time.Minute)) {
		t.Fatalf("extension not applied: %s", got)
	}
}
