// internal/storage/tenants.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tenant-chat/internal/model"
)

func (s *Storage) CreateTenant(ctx context.Context, t *model.Tenant) error {
	webhook := sql.NullString{String: t.WebhookURL, Valid: t.WebhookURL != ""}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO tenants (id, name, domain, public_key, webhook_url, dispatch_workers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.Name, t.Domain, t.PublicKey, webhook, t.DispatchWorkers, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

// GetTenant returns nil when the tenant does not exist.
func (s *Storage) GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, domain, public_key, COALESCE(webhook_url, ''), dispatch_workers, created_at
		FROM tenants
		WHERE id = $1
	`, id)

	var t model.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Domain, &t.PublicKey, &t.WebhookURL, &t.DispatchWorkers, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}

func (s *Storage) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	return err
}

func (s *Storage) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, domain, public_key, COALESCE(webhook_url, ''), dispatch_workers, created_at
		FROM tenants
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Domain, &t.PublicKey, &t.WebhookURL, &t.DispatchWorkers, &t.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Storage) UpdateTenantDispatchWorkers(ctx context.Context, id uuid.UUID, workers int) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE tenants
		SET dispatch_workers = $1
		WHERE id = $2
	`, workers, id)
	return err
}
