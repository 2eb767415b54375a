// internal/channel/errors.go
package channel

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError reports malformed or unresolvable input. Retrying the same
// request cannot succeed. Identifiers carries the offending customer ids when
// participant resolution failed.
type ValidationError struct {
	Field       string
	Reason      string
	Identifiers []uuid.UUID
}

func (e *ValidationError) Error() string {
	if len(e.Identifiers) == 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	parts := make([]string, len(e.Identifiers))
	for i, id := range e.Identifiers {
		parts[i] = id.String()
	}
	return fmt.Sprintf("invalid %s: %s: %s", e.Field, e.Reason, strings.Join(parts, ", "))
}

// NotFoundError reports a tenant-scoped entity that does not exist or does
// not belong to the caller's tenant. The two cases are indistinguishable on
// purpose, so callers cannot probe for cross-tenant existence.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a duplicate general channel, naming the channel that
// already represents the conversation. Storage-level uniqueness races are
// translated into this type as well, never surfaced as raw driver errors.
type ConflictError struct {
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate general channel: %s already exists", e.ExistingID)
}
