// Package sqlitedb opens the SQLite database shared by the saferun stores.
package sqlitedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// BusyTimeoutMS is how long a writer waits for another process holding the
// write lock before failing with SQLITE_BUSY.
const BusyTimeoutMS = 5000

// Open creates the parent directory and opens path in WAL mode. Transactions
// begin IMMEDIATE so a read-then-write transaction takes the write lock up
// front and waits its turn instead of failing on lock upgrade when the file
// is shared with another process.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

func DSN(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate", path, BusyTimeoutMS)
}
