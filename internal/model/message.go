// internal/model/message.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageType is the closed set of message kinds.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem:
		return true
	}
	return false
}

// Message is an append-only fact. Messages are never mutated or reordered;
// the only side effect of appending one is bumping the channel's activity
// marker.
type Message struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	TenantID  uuid.UUID         `db:"tenant_id" json:"tenant_id"`
	ChannelID uuid.UUID         `db:"channel_id" json:"channel_id"`
	SenderID  uuid.UUID         `db:"sender_id" json:"sender_id"`
	Type      MessageType       `db:"type" json:"type"`
	Content   string            `db:"content" json:"content"`
	Metadata  map[string]string `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}
