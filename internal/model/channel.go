// internal/model/channel.go
package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChannelType is a closed two-way variant.
type ChannelType string

const (
	ChannelGeneral ChannelType = "general"
	ChannelCustom  ChannelType = "custom"
)

func (t ChannelType) Valid() bool {
	return t == ChannelGeneral || t == ChannelCustom
}

// GeneralChannelName is the fixed name carried by every general channel.
const GeneralChannelName = "general"

// MaxChannelNameLen bounds custom channel names.
const MaxChannelNameLen = 255

// Channel is a conversation scope owned by one tenant. The participant set
// is immutable after creation. LastActivityAt is the sole ordering key for
// listings; on a freshly created channel it equals CreatedAt.
type Channel struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	TenantID        uuid.UUID   `db:"tenant_id" json:"tenant_id"`
	Type            ChannelType `db:"type" json:"type"`
	Name            string      `db:"name" json:"name"`
	ParticipantsKey string      `db:"participants_key" json:"-"`
	Participants    []uuid.UUID `db:"-" json:"participants"`
	LastActivityAt  time.Time   `db:"last_activity_at" json:"last_activity_at"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
}

// NormalizeParticipants deduplicates and sorts a participant set so that two
// requests naming the same customers in any order compare equal.
func NormalizeParticipants(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// ParticipantsKey renders a normalized participant set as the canonical
// string used for order-independent matching and for the uniqueness
// constraint on general channels.
func ParticipantsKey(ids []uuid.UUID) string {
	norm := NormalizeParticipants(ids)
	parts := make([]string, len(norm))
	for i, id := range norm {
		parts[i] = id.String()
	}
	return strings.Join(parts, ":")
}
