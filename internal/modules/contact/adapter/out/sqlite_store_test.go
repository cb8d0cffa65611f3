package out_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contactout "saferun/internal/modules/contact/adapter/out"
	"saferun/internal/modules/contact/domain"
	apperrors "saferun/internal/platform/errors"
)

func TestSQLiteStoreUpsertAndGet(t *testing.T) {
	t.Parallel()
	store, err := contactout.NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "saferun.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, err = store.Get(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	first := domain.Contact{OwnerID: "u1", OwnerName: "Ana", ContactName: "Ben", Phone: "+447700900123", UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Upsert(ctx, first))

	second := first
	second.ContactName = "Cara"
	second.Phone = "+447700900999"
	second.UpdatedAt = first.UpdatedAt.Add(time.Hour)
	require.NoError(t, store.Upsert(ctx, second))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}
