package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"saferun/internal/modules/session/domain"
	sessionout "saferun/internal/modules/session/port/out"
	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/sqlitedb"
)

// SQLiteStore keeps one row per session: the queryable fields as columns and
// the full record as JSON. Writes run in an IMMEDIATE transaction guarded by
// the version column, so processes sharing the file queue on the write lock.
type SQLiteStore struct {
	db *sql.DB
}

var _ sessionout.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  status TEXT NOT NULL,
  escalation_sent INTEGER NOT NULL DEFAULT 0,
  deadline_ns INTEGER NOT NULL,
  created_ns INTEGER NOT NULL,
  version INTEGER NOT NULL,
  record TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS sessions_owner ON sessions(owner_id, created_ns)`,
		`CREATE INDEX IF NOT EXISTS sessions_open_deadline ON sessions(status, escalation_sent, deadline_ns)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare sessions schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, session domain.Session) error {
	session.Version = 1
	record, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	const stmt = `
INSERT INTO sessions (id, owner_id, kind, status, escalation_sent, deadline_ns, created_ns, version, record)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	_, err = s.db.ExecContext(ctx, stmt,
		session.ID,
		session.OwnerID,
		string(session.Kind),
		string(session.Status),
		boolInt(session.EscalationSent),
		session.Deadline.UnixNano(),
		session.CreatedAt.UnixNano(),
		session.Version,
		string(record),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT record FROM sessions WHERE id = ?`, id)
	return scanSession(id, row)
}

func (s *SQLiteStore) Update(ctx context.Context, id string, expected domain.Status, mutate sessionout.MutateFunc) (domain.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanSession(id, tx.QueryRowContext(ctx, `SELECT record FROM sessions WHERE id = ?`, id))
	if err != nil {
		return domain.Session{}, err
	}
	if expected != "" && current.Status != expected {
		return domain.Session{}, fmt.Errorf("session %s is %s, want %s: %w", id, current.Status, expected, apperrors.ErrPreconditionFailed)
	}
	next := current.Clone()
	if err := mutate(&next); err != nil {
		return domain.Session{}, err
	}
	next.ID = current.ID
	next.Version = current.Version + 1
	record, err := json.Marshal(next)
	if err != nil {
		return domain.Session{}, fmt.Errorf("encode session: %w", err)
	}

	const stmt = `
UPDATE sessions
SET status = ?, escalation_sent = ?, deadline_ns = ?, version = ?, record = ?
WHERE id = ? AND version = ?
`
	res, err := tx.ExecContext(ctx, stmt,
		string(next.Status),
		boolInt(next.EscalationSent),
		next.Deadline.UnixNano(),
		next.Version,
		string(record),
		id,
		current.Version,
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("update session %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Session{}, fmt.Errorf("update session %s: %w", id, err)
	}
	if affected != 1 {
		return domain.Session{}, fmt.Errorf("session %s changed concurrently: %w", id, apperrors.ErrPreconditionFailed)
	}
	if err := tx.Commit(); err != nil {
		return domain.Session{}, fmt.Errorf("commit session %s: %w", id, err)
	}
	return next, nil
}

func (s *SQLiteStore) QueryOverdue(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	const query = `
SELECT id, record FROM sessions
WHERE status = ? AND escalation_sent = 0 AND deadline_ns < ?
ORDER BY deadline_ns
`
	rows, err := s.db.QueryContext(ctx, query, string(domain.StatusActive), cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query overdue sessions: %w", err)
	}
	return collectSessions(rows)
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, record FROM sessions WHERE owner_id = ? ORDER BY created_ns DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows)
}

func scanSession(id string, row *sql.Row) (domain.Session, error) {
	var record string
	if err := row.Scan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
		}
		return domain.Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return decodeSession(id, record)
}

func collectSessions(rows *sql.Rows) ([]domain.Session, error) {
	defer rows.Close()
	out := []domain.Session{}
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		session, err := decodeSession(id, record)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func decodeSession(id, record string) (domain.Session, error) {
	session := domain.Session{}
	if err := json.Unmarshal([]byte(record), &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
