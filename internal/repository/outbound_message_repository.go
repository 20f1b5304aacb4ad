package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type OutboxRepositoryInterface interface {
	Insert(ctx context.Context, msg *model.OutboxMessage) error
	FindByDedupeKey(ctx context.Context, key string, since time.Time) (*model.OutboxMessage, error)
	GetByID(ctx context.Context, id int64) (*model.OutboxMessage, error)
	CountByStatus(ctx context.Context, since time.Time) (map[string]int, error)
}

// OutboxRepository writes to the whatsapp_messages outbox. It never updates status.
type OutboxRepository struct {
	DB *sql.DB
}

const outboxColumns = `id, from_address, to_address, message_type, content, status, dedupe_key, created_at`

// Insert stores a pending row and fills ID/CreatedAt. A dedupe_key collision returns ErrDuplicateKey.
func (r *OutboxRepository) Insert(ctx context.Context, msg *model.OutboxMessage) error {
	if msg.Status == "" {
		msg.Status = model.OutboxPending
	}
	query := `
        INSERT INTO whatsapp_messages (from_address, to_address, message_type, content, status, dedupe_key, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, created_at
    `
	err := r.DB.QueryRowContext(ctx, query,
		msg.FromAddress,
		msg.ToAddress,
		msg.MessageType,
		msg.Content,
		msg.Status,
		msg.DedupeKey,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// FindByDedupeKey returns the newest row with key created at or after since.
// A zero since disables the window. Returns nil, nil when nothing matches.
func (r *OutboxRepository) FindByDedupeKey(ctx context.Context, key string, since time.Time) (*model.OutboxMessage, error) {
	query := `SELECT ` + outboxColumns + ` FROM whatsapp_messages WHERE dedupe_key = $1`
	args := []interface{}{key}
	if !since.IsZero() {
		query += ` AND created_at >= $2`
		args = append(args, since)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	msg, err := scanOutbox(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find outbox message by dedupe key: %w", err)
	}
	return msg, nil
}

func (r *OutboxRepository) GetByID(ctx context.Context, id int64) (*model.OutboxMessage, error) {
	query := `SELECT ` + outboxColumns + ` FROM whatsapp_messages WHERE id = $1`
	msg, err := scanOutbox(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get outbox message: %w", err)
	}
	return msg, nil
}

func (r *OutboxRepository) CountByStatus(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM whatsapp_messages WHERE created_at >= $1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count outbox messages: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{model.OutboxPending: 0, model.OutboxSent: 0, model.OutboxFailed: 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanOutbox(row *sql.Row) (*model.OutboxMessage, error) {
	var msg model.OutboxMessage
	var dedupe sql.NullString
	err := row.Scan(
		&msg.ID,
		&msg.FromAddress,
		&msg.ToAddress,
		&msg.MessageType,
		&msg.Content,
		&msg.Status,
		&dedupe,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	msg.DedupeKey = dedupe.String
	return &msg, nil
}

var _ OutboxRepositoryInterface = (*OutboxRepository)(nil)
