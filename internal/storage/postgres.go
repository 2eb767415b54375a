// internal/storage/postgres.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// EnsureSchema creates tables and the uniqueness constraints the resolver
// relies on. The partial unique indexes are what make find-then-create safe
// under concurrency: a losing insert surfaces as a 23505 and is translated
// into the domain conflict error.
func (s *Storage) EnsureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			domain TEXT NOT NULL,
			public_key TEXT NOT NULL,
			webhook_url TEXT,
			dispatch_workers INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS customers_tenant_email
			ON customers (tenant_id, email) WHERE deleted_at IS NULL`,
		`CREATE TABLE IF NOT EXISTS channels (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			participants_key TEXT NOT NULL,
			last_activity_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS channels_general_participants
			ON channels (tenant_id, participants_key) WHERE type = 'general'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS channels_custom_name
			ON channels (tenant_id, name) WHERE type = 'custom'`,
		`CREATE INDEX IF NOT EXISTS channels_activity
			ON channels (tenant_id, last_activity_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS channel_participants (
			channel_id UUID NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
			customer_id UUID NOT NULL,
			PRIMARY KEY (channel_id, customer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			channel_id UUID NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS messages_channel_order
			ON messages (channel_id, created_at DESC, id DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
