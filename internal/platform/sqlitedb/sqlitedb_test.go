package sqlitedb_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saferun/internal/platform/sqlitedb"
)

func TestOpenAppliesPragmas(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "nested", "saferun.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, sqlitedb.BusyTimeoutMS, timeout)
}

// Two handles doing read-modify-write on one row must queue, not fail.
func TestReadModifyWriteAcrossHandles(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "saferun.db")
	first, err := sqlitedb.Open(path)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()
	second, err := sqlitedb.Open(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	_, err = first.Exec(`CREATE TABLE counter (id INTEGER PRIMARY KEY, n INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = first.Exec(`INSERT INTO counter (id, n) VALUES (1, 0)`)
	require.NoError(t, err)

	const perHandle = 100
	ctx := context.Background()
	var wg sync.WaitGroup
	for _, db := range []*sql.DB{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perHandle; i++ {
				tx, err := db.BeginTx(ctx, nil)
				if !assert.NoError(t, err) {
					return
				}
				var n int
				if assert.NoError(t, tx.QueryRowContext(ctx, `SELECT n FROM counter WHERE id = 1`).Scan(&n)) {
					_, err = tx.ExecContext(ctx, `UPDATE counter SET n = ? WHERE id = 1`, n+1)
					assert.NoError(t, err)
				}
				assert.NoError(t, tx.Commit())
			}
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, second.QueryRow(`SELECT n FROM counter WHERE id = 1`).Scan(&n))
	assert.Equal(t, 2*perHandle, n)
}
