// internal/model/customer.go
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer is a participant identity within exactly one tenant.
// Email is unique per tenant, compared case-insensitively: it is lowercased
// before storage and before every lookup.
type Customer struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	TenantID  uuid.UUID         `db:"tenant_id" json:"tenant_id"`
	Name      string            `db:"name" json:"name"`
	Email     string            `db:"email" json:"email"`
	Metadata  map[string]string `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	DeletedAt *time.Time        `db:"deleted_at" json:"-"`
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
