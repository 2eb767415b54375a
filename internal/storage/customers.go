// internal/storage/customers.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tenant-chat/internal/channel"
	"tenant-chat/internal/model"
)

// CreateCustomer inserts a customer with its email lowercased. A duplicate
// live email within the tenant is a validation failure, not a raw driver
// error.
func (s *Storage) CreateCustomer(ctx context.Context, c *model.Customer) error {
	c.Email = model.NormalizeEmail(c.Email)

	meta, err := marshalMetadata(c.Metadata)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO customers (id, tenant_id, name, email, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.TenantID, c.Name, c.Email, meta, c.CreatedAt)
	if isUniqueViolation(err) {
		return &channel.ValidationError{Field: "email", Reason: "already registered for this tenant"}
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// FindCustomerByEmail looks up a live customer by normalized email; nil when
// absent.
func (s *Storage) FindCustomerByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.Customer, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, email, metadata, created_at
		FROM customers
		WHERE tenant_id = $1 AND email = $2 AND deleted_at IS NULL
	`, tenantID, model.NormalizeEmail(email))
	return scanCustomer(row)
}

// ResolveCustomers resolves identifiers to live customers of the tenant.
// Identifiers that are unknown, soft-deleted, or owned by another tenant are
// reported in missing; the caller cannot tell those cases apart.
func (s *Storage) ResolveCustomers(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]model.Customer, []uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, tenant_id, name, email, metadata, created_at
		FROM customers
		WHERE tenant_id = $1 AND id = ANY($2::uuid[]) AND deleted_at IS NULL
	`, tenantID, pq.Array(idStrs))
	if err != nil {
		return nil, nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]model.Customer, len(ids))
	for rows.Next() {
		c, err := scanCustomerRows(rows)
		if err != nil {
			return nil, nil, err
		}
		found[c.ID] = *c
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	customers := make([]model.Customer, 0, len(found))
	var missing []uuid.UUID
	for _, id := range ids {
		c, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		customers = append(customers, c)
	}
	return customers, missing, nil
}

// SoftDeleteCustomer logically removes a customer, preserving historical
// references. Returns false when no live customer matched.
func (s *Storage) SoftDeleteCustomer(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE customers
		SET deleted_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`, tenantID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row *sql.Row) (*model.Customer, error) {
	c, err := scanCustomerRows(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func scanCustomerRows(row rowScanner) (*model.Customer, error) {
	var c model.Customer
	var meta []byte
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &meta, &c.CreatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode customer metadata: %w", err)
		}
	}
	return &c, nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}
