// internal/activity/activity.go
//
// Channel listings are ordered by the activity marker, newest first. The
// marker is written only by message appends (inside the same transaction as
// the insert); a channel that has never seen a message keeps its creation
// time as the marker. Ties are broken by channel id descending so the order
// is total and stable, and cursors walk the same (marker, id) composite key.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tenant-chat/internal/channel"
	"tenant-chat/internal/model"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Scope restricts a listing. A nil CustomerID means all channels of the
// tenant; otherwise only channels the customer participates in.
type Scope struct {
	CustomerID *uuid.UUID
}

// Cursor is the composite ordering key of one channel. Filtering strictly
// below it is what makes pagination skip-free when markers collide; a
// timestamp-only filter would drop or repeat tied channels.
type Cursor struct {
	LastActivityAt time.Time
	ID             uuid.UUID
}

// Page is one window of the ordered listing.
type Page struct {
	Items      []model.Channel `json:"data"`
	HasMore    bool            `json:"has_more"`
	TotalCount int             `json:"total_count"`
}

// Store is the read-side persistence port for ordered listings.
type Store interface {
	// GetChannel returns the tenant's channel, or nil when it does not exist
	// or belongs to another tenant.
	GetChannel(ctx context.Context, tenantID, channelID uuid.UUID) (*model.Channel, error)

	// ListChannels returns up to limit channels ordered by
	// (last_activity_at DESC, id DESC), strictly below the cursor when one
	// is given.
	ListChannels(ctx context.Context, tenantID uuid.UUID, scope Scope, after *Cursor, limit int) ([]model.Channel, error)

	// CountChannels counts all channels in scope, ignoring pagination.
	CountChannels(ctx context.Context, tenantID uuid.UUID, scope Scope) (int, error)
}

// Service exposes the ordering contract shared by every channel listing.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListOrdered walks the activity ordering. startingAfter names the last
// channel the caller has seen; the next page starts strictly after it in
// the (marker, id) order. An unknown cursor is a NotFoundError.
func (s *Service) ListOrdered(ctx context.Context, tenantID uuid.UUID, scope Scope, limit int, startingAfter *uuid.UUID) (*Page, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var after *Cursor
	if startingAfter != nil {
		ch, err := s.store.GetChannel(ctx, tenantID, *startingAfter)
		if err != nil {
			return nil, fmt.Errorf("resolve cursor: %w", err)
		}
		if ch == nil {
			return nil, &channel.NotFoundError{Resource: "channel", ID: *startingAfter}
		}
		after = &Cursor{LastActivityAt: ch.LastActivityAt, ID: ch.ID}
	}

	// Fetch one extra row to learn whether another page exists.
	items, err := s.store.ListChannels(ctx, tenantID, scope, after, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	total, err := s.store.CountChannels(ctx, tenantID, scope)
	if err != nil {
		return nil, fmt.Errorf("count channels: %w", err)
	}

	return &Page{Items: items, HasMore: hasMore, TotalCount: total}, nil
}

// After reports whether c sorts before other in the listing, i.e. c is
// strictly greater on the (marker, id) composite key.
func (c Cursor) After(other Cursor) bool {
	if !c.LastActivityAt.Equal(other.LastActivityAt) {
		return c.LastActivityAt.After(other.LastActivityAt)
	}
	return c.ID.String() > other.ID.String()
}
