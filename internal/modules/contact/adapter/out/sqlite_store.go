package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"saferun/internal/modules/contact/domain"
	contactout "saferun/internal/modules/contact/port/out"
	apperrors "saferun/internal/platform/errors"
	"saferun/internal/platform/sqlitedb"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ contactout.Store = (*SQLiteStore)(nil)

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
	const ddl = `
CREATE TABLE IF NOT EXISTS contacts (
  owner_id TEXT PRIMARY KEY,
  owner_name TEXT NOT NULL,
  contact_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create contacts table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, contact domain.Contact) error {
	const stmt = `
INSERT INTO contacts (owner_id, owner_name, contact_name, phone, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(owner_id) DO UPDATE SET
  owner_name=excluded.owner_name,
  contact_name=excluded.contact_name,
  phone=excluded.phone,
  updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		contact.OwnerID,
		contact.OwnerName,
		contact.ContactName,
		contact.Phone,
		contact.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, ownerID string) (domain.Contact, error) {
	const query = `SELECT owner_id, owner_name, contact_name, phone, updated_at FROM contacts WHERE owner_id = ?`
	var (
		contact   domain.Contact
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, ownerID).Scan(&contact.OwnerID, &contact.OwnerName, &contact.ContactName, &contact.Phone, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contact{}, fmt.Errorf("contact for %s: %w", ownerID, apperrors.ErrNotFound)
		}
		return domain.Contact{}, fmt.Errorf("read contact: %w", err)
	}
	contact.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("parse contact updated_at: %w", err)
	}
	return contact, nil
}
