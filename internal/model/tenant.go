// internal/model/tenant.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary. Every other entity belongs to exactly
// one tenant; cross-tenant references are rejected at resolution time.
type Tenant struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Domain          string    `db:"domain" json:"domain"`
	PublicKey       string    `db:"public_key" json:"public_key"`
	WebhookURL      string    `db:"webhook_url" json:"webhook_url,omitempty"`
	DispatchWorkers int       `db:"dispatch_workers" json:"dispatch_workers"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
