package message

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

// Repository defines message data access
type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	ListByHandover(ctx context.Context, handoverID uuid.UUID, page pagination.Params) ([]*Message, int, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, handoverID, readerID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, handoverID, readerID uuid.UUID) (int, error)
	SetBlinded(ctx context.Context, id uuid.UUID, blinded bool) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates message repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const columns = `id, handover_id, sender_id, content, is_read, is_blinded, created_at`

func (r *repository) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (id, handover_id, sender_id, content, is_read, is_blinded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.HandoverID, m.SenderID, m.Content, m.IsRead, m.IsBlinded, m.CreatedAt)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	var m Message
	err := r.db.GetContext(ctx, &m, `SELECT `+columns+` FROM messages WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListByHandover returns the thread oldest first
func (r *repository) ListByHandover(ctx context.Context, handoverID uuid.UUID, page pagination.Params) ([]*Message, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE handover_id = $1`, handoverID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + columns + ` FROM messages
		WHERE handover_id = $1
		ORDER BY created_at ASC, id
		LIMIT $2 OFFSET $3
	`
	var messages []*Message
	if err := r.db.SelectContext(ctx, &messages, query, handoverID, page.Size, page.Offset()); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *repository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1`, id)
	return err
}

// MarkAllAsRead flips every message in the thread not written by readerID
func (r *repository) MarkAllAsRead(ctx context.Context, handoverID, readerID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE handover_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, handoverID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) CountUnread(ctx context.Context, handoverID, readerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages
		WHERE handover_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, handoverID, readerID)
	return count, err
}

// SetBlinded toggles moderator blinding. The stored content is never touched.
func (r *repository) SetBlinded(ctx context.Context, id uuid.UUID, blinded bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_blinded = $2 WHERE id = $1`, id, blinded)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMessageNotFound
	}
	return nil
}
