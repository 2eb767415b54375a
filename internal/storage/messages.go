// internal/storage/messages.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tenant-chat/internal/channel"
	"tenant-chat/internal/model"
)

// MessageCursor is the composite ordering key for message pagination,
// mirroring the channel listing contract.
type MessageCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// AppendMessage inserts the message and bumps the channel's activity marker
// in the same transaction, so they succeed or fail together. The sender must
// be a current participant of the channel.
func (s *Storage) AppendMessage(ctx context.Context, m *model.Message) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM channels WHERE id = $1 AND tenant_id = $2)
	`, m.ChannelID, m.TenantID).Scan(&exists); err != nil {
		return fmt.Errorf("check channel: %w", err)
	}
	if !exists {
		return &channel.NotFoundError{Resource: "channel", ID: m.ChannelID}
	}

	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM channel_participants WHERE channel_id = $1 AND customer_id = $2)
	`, m.ChannelID, m.SenderID).Scan(&exists); err != nil {
		return fmt.Errorf("check sender: %w", err)
	}
	if !exists {
		return &channel.ValidationError{
			Field:       "sender_id",
			Reason:      "sender is not a participant of the channel",
			Identifiers: []uuid.UUID{m.SenderID},
		}
	}

	meta, err := marshalMetadata(m.Metadata)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, tenant_id, channel_id, sender_id, type, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.TenantID, m.ChannelID, m.SenderID, m.Type, m.Content, meta, m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE channels SET last_activity_at = $1 WHERE id = $2
	`, m.CreatedAt, m.ChannelID); err != nil {
		return fmt.Errorf("touch channel activity: %w", err)
	}

	return tx.Commit()
}

// ListMessages returns a channel's messages newest first, walking the
// (created_at, id) composite key when a cursor is given.
func (s *Storage) ListMessages(ctx context.Context, tenantID, channelID uuid.UUID, after *MessageCursor, limit int) ([]model.Message, error) {
	query := `
		SELECT id, tenant_id, channel_id, sender_id, type, content, metadata, created_at
		FROM messages
		WHERE tenant_id = $1 AND channel_id = $2`
	args := []interface{}{tenantID, channelID}
	if after != nil {
		args = append(args, after.CreatedAt, after.ID)
		query += fmt.Sprintf(` AND (created_at, id) < ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var meta []byte
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ChannelID, &m.SenderID, &m.Type, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode message metadata: %w", err)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// GetMessage returns a message scoped to the tenant, or nil when absent.
func (s *Storage) GetMessage(ctx context.Context, tenantID, id uuid.UUID) (*model.Message, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, tenant_id, channel_id, sender_id, type, content, metadata, created_at
		FROM messages
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var m model.Message
	var meta []byte
	if err := rows.Scan(&m.ID, &m.TenantID, &m.ChannelID, &m.SenderID, &m.Type, &m.Content, &meta, &m.CreatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
