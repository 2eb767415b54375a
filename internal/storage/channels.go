// internal/storage/channels.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tenant-chat/internal/activity"
	"tenant-chat/internal/channel"
	"tenant-chat/internal/model"
)

const channelColumns = `
	c.id, c.tenant_id, c.type, c.name, c.participants_key, c.last_activity_at, c.created_at,
	COALESCE(array_agg(p.customer_id::text) FILTER (WHERE p.customer_id IS NOT NULL), '{}')
`

const channelJoin = `
	FROM channels c
	LEFT JOIN channel_participants p ON p.channel_id = c.id
`

// GeneralChannelByKey finds the general channel matching a normalized
// participant key; nil when absent.
func (s *Storage) GeneralChannelByKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.Channel, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+channelColumns+channelJoin+`
		WHERE c.tenant_id = $1 AND c.type = 'general' AND c.participants_key = $2
		GROUP BY c.id
	`, tenantID, key)
	return scanChannelRow(row)
}

// CustomChannelByName finds a custom channel by exact, case-sensitive name;
// nil when absent.
func (s *Storage) CustomChannelByName(ctx context.Context, tenantID uuid.UUID, name string) (*model.Channel, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+channelColumns+channelJoin+`
		WHERE c.tenant_id = $1 AND c.type = 'custom' AND c.name = $2
		GROUP BY c.id
	`, tenantID, name)
	return scanChannelRow(row)
}

// GetChannel returns the tenant's channel with its participant set, or nil
// when it does not exist or belongs to another tenant.
func (s *Storage) GetChannel(ctx context.Context, tenantID, channelID uuid.UUID) (*model.Channel, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+channelColumns+channelJoin+`
		WHERE c.tenant_id = $1 AND c.id = $2
		GROUP BY c.id
	`, tenantID, channelID)
	return scanChannelRow(row)
}

// CreateGeneralChannel inserts the channel and its participant rows in one
// transaction. Losing the uniqueness race on (tenant, participants_key)
// yields a *channel.ConflictError naming the winner.
func (s *Storage) CreateGeneralChannel(ctx context.Context, ch *model.Channel) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertChannel(ctx, tx, ch); err != nil {
		if isUniqueViolation(err) {
			return s.generalConflict(ctx, ch.TenantID, ch.ParticipantsKey)
		}
		return fmt.Errorf("insert general channel: %w", err)
	}
	if err := insertParticipants(ctx, tx, ch.ID, ch.Participants); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateCustomChannel inserts the custom channel and, when general is
// non-nil, the backing general channel in the same transaction. A concurrent
// general insert is absorbed with ON CONFLICT DO NOTHING; a concurrent
// custom insert with the same name is a *channel.ConflictError for the
// resolver to translate into a reuse.
func (s *Storage) CreateCustomChannel(ctx context.Context, custom *model.Channel, general *model.Channel) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	provisioned := false
	if general != nil {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO channels (id, tenant_id, type, name, participants_key, last_activity_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (tenant_id, participants_key) WHERE type = 'general' DO NOTHING
		`, general.ID, general.TenantID, general.Type, general.Name, general.ParticipantsKey,
			general.LastActivityAt, general.CreatedAt)
		if err != nil {
			return false, fmt.Errorf("provision general channel: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		provisioned = inserted > 0
		if provisioned {
			if err := insertParticipants(ctx, tx, general.ID, general.Participants); err != nil {
				return false, err
			}
		}
	}

	if err := insertChannel(ctx, tx, custom); err != nil {
		if isUniqueViolation(err) {
			return false, s.customConflict(ctx, custom.TenantID, custom.Name)
		}
		return false, fmt.Errorf("insert custom channel: %w", err)
	}
	if err := insertParticipants(ctx, tx, custom.ID, custom.Participants); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return provisioned, nil
}

func insertChannel(ctx context.Context, tx *sql.Tx, ch *model.Channel) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO channels (id, tenant_id, type, name, participants_key, last_activity_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ch.ID, ch.TenantID, ch.Type, ch.Name, ch.ParticipantsKey, ch.LastActivityAt, ch.CreatedAt)
	return err
}

func insertParticipants(ctx context.Context, tx *sql.Tx, channelID uuid.UUID, participants []uuid.UUID) error {
	for _, customerID := range participants {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO channel_participants (channel_id, customer_id) VALUES ($1, $2)
		`, channelID, customerID); err != nil {
			return fmt.Errorf("insert participant %s: %w", customerID, err)
		}
	}
	return nil
}

// generalConflict resolves the winner of a general uniqueness race so the
// conflict error can name it.
func (s *Storage) generalConflict(ctx context.Context, tenantID uuid.UUID, key string) error {
	existing, err := s.GeneralChannelByKey(ctx, tenantID, key)
	if err != nil || existing == nil {
		return &channel.ConflictError{}
	}
	return &channel.ConflictError{ExistingID: existing.ID}
}

func (s *Storage) customConflict(ctx context.Context, tenantID uuid.UUID, name string) error {
	existing, err := s.CustomChannelByName(ctx, tenantID, name)
	if err != nil || existing == nil {
		return &channel.ConflictError{}
	}
	return &channel.ConflictError{ExistingID: existing.ID}
}

// ListChannels returns channels ordered by (last_activity_at DESC, id DESC),
// strictly below the cursor's composite key when one is given. Filtering on
// both columns is what keeps pagination exact when two channels share a
// marker.
func (s *Storage) ListChannels(ctx context.Context, tenantID uuid.UUID, scope activity.Scope, after *activity.Cursor, limit int) ([]model.Channel, error) {
	query := `SELECT ` + channelColumns + channelJoin + `WHERE c.tenant_id = $1`
	args := []interface{}{tenantID}

	if scope.CustomerID != nil {
		args = append(args, *scope.CustomerID)
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM channel_participants sp
			WHERE sp.channel_id = c.id AND sp.customer_id = $%d)`, len(args))
	}
	if after != nil {
		args = append(args, after.LastActivityAt, after.ID)
		query += fmt.Sprintf(` AND (c.last_activity_at, c.id) < ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` GROUP BY c.id ORDER BY c.last_activity_at DESC, c.id DESC LIMIT $%d`, len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func (s *Storage) CountChannels(ctx context.Context, tenantID uuid.UUID, scope activity.Scope) (int, error) {
	query := `SELECT COUNT(*) FROM channels c WHERE c.tenant_id = $1`
	args := []interface{}{tenantID}
	if scope.CustomerID != nil {
		args = append(args, *scope.CustomerID)
		query += ` AND EXISTS (
			SELECT 1 FROM channel_participants sp
			WHERE sp.channel_id = c.id AND sp.customer_id = $2)`
	}
	var n int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count channels: %w", err)
	}
	return n, nil
}

func scanChannelRow(row *sql.Row) (*model.Channel, error) {
	ch, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ch, err
}

func scanChannel(row rowScanner) (*model.Channel, error) {
	var ch model.Channel
	var participants pq.StringArray
	if err := row.Scan(&ch.ID, &ch.TenantID, &ch.Type, &ch.Name, &ch.ParticipantsKey,
		&ch.LastActivityAt, &ch.CreatedAt, &participants); err != nil {
		return nil, err
	}
	for _, p := range participants {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("parse participant id: %w", err)
		}
		ch.Participants = append(ch.Participants, id)
	}
	return &ch, nil
}
