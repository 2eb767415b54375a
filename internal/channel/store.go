// internal/channel/store.go
package channel

import (
	"context"

	"github.com/google/uuid"

	"tenant-chat/internal/model"
)

// Directory resolves customer identifiers within one tenant. Identifiers
// that do not resolve, or that belong to a different tenant, come back in
// missing; callers cannot tell the two cases apart.
type Directory interface {
	ResolveCustomers(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (found []model.Customer, missing []uuid.UUID, err error)
}

// Store is the persistence port the resolver works against. Lookups return
// (nil, nil) when no channel matches. Create operations must enforce the
// uniqueness constraints under concurrency and translate constraint
// violations into *ConflictError.
type Store interface {
	// GeneralChannelByKey finds the tenant's general channel whose normalized
	// participant set matches key.
	GeneralChannelByKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.Channel, error)

	// CustomChannelByName finds the tenant's custom channel with the exact,
	// case-sensitive name. The participant set plays no part in the match.
	CustomChannelByName(ctx context.Context, tenantID uuid.UUID, name string) (*model.Channel, error)

	// CreateGeneralChannel inserts ch and its participant rows in one
	// transaction. A uniqueness race returns *ConflictError naming the
	// channel that won.
	CreateGeneralChannel(ctx context.Context, ch *model.Channel) error

	// CreateCustomChannel inserts custom and, when general is non-nil, the
	// backing general channel in the same transaction. If the general channel
	// loses a uniqueness race the existing one is reused silently; the
	// returned bool reports whether a general row was actually inserted.
	// A name race on the custom channel returns *ConflictError.
	CreateCustomChannel(ctx context.Context, custom *model.Channel, general *model.Channel) (generalProvisioned bool, err error)
}
