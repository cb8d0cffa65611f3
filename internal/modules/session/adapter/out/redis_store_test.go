package out_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionout "saferun/internal/modules/session/adapter/out"
	apperrors "saferun/internal/platform/errors"
)

// failingExec passes single commands through and fails every pipeline.
type failingExec struct{}

func (failingExec) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failingExec) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (failingExec) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(context.Context, []redis.Cmder) error {
		return errors.New("connection reset during EXEC")
	}
}

func TestRedisCreateLeavesNothingBehindOnFailure(t *testing.T) {
	addr := os.Getenv("SAFERUN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SAFERUN_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := "saferun-test-" + uuid.NewString()

	broken := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = broken.Close() })
	broken.AddHook(failingExec{})
	healthy := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = healthy.Close() })

	s := newSession("s1", "u1", t0, 10*time.Minute)
	require.Error(t, sessionout.NewRedisStore(broken, prefix).Create(ctx, s))

	store := sessionout.NewRedisStore(healthy, prefix)
	_, err := store.Get(ctx, "s1")
	require.ErrorIs(t, err, apperrors.ErrNotFound, "failed create must not persist the record")

	require.NoError(t, store.Create(ctx, s))
	overdue, err := store.QueryOverdue(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "s1", overdue[0].ID)

	assert.ErrorIs(t, store.Create(ctx, s), apperrors.ErrInvalidInput)
}
