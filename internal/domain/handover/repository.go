package handover

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

// Repository defines handover data access
type Repository interface {
	// InTx runs fn in one transaction. Any error rolls everything back.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*Handover, error)
	List(ctx context.Context, filter ListFilter, page pagination.Params) ([]*Handover, int, error)
}

// Tx is the unit of work of a transition. Lock methods take row locks that
// are held until commit; callers lock handover, lost, found in that order.
type Tx interface {
	LockHandover(ctx context.Context, id uuid.UUID) (*Handover, error)
	LockLost(ctx context.Context, id uuid.UUID) (*item.LostItem, error)
	LockFound(ctx context.Context, id uuid.UUID) (*item.FoundItem, error)
	ActiveByLost(ctx context.Context, lostID uuid.UUID) ([]*Handover, error)
	ActiveByFound(ctx context.Context, foundID uuid.UUID) ([]*Handover, error)
	Create(ctx context.Context, h *Handover) error
	Update(ctx context.Context, h *Handover) error
	SetLostStatus(ctx context.Context, id uuid.UUID, status item.LostStatus) error
	SetFoundStatus(ctx context.Context, id uuid.UUID, status item.FoundStatus) error
	AddNotification(ctx context.Context, n *notification.Notification) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates handover repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const columns = `id, lost_id, found_id, requester_id, responder_id, method, status, schedule_at, meet_place,
	contact_disclosed, accepted_at, verified_at, approved_at, scheduled_at, completed_at, canceled_at,
	canceled_by, cancel_reason, created_at, updated_at`

const activeStatuses = `('REQUESTED', 'ACCEPTED_BY_FINDER', 'VERIFIED_BY_SECURITY', 'APPROVED_BY_OFFICE', 'SCHEDULED')`

func (r *repository) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Handover, error) {
	var h Handover
	err := r.db.GetContext(ctx, &h, `SELECT `+columns+` FROM handovers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]*Handover, int, error) {
	var conditions []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Method != "" {
		add("method = $%d", filter.Method)
	}
	if filter.RequesterID != uuid.Nil {
		add("requester_id = $%d", filter.RequesterID)
	}
	if filter.ResponderID != uuid.Nil {
		add("responder_id = $%d", filter.ResponderID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM handovers `+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM handovers %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		columns, where, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	var handovers []*Handover
	if err := r.db.SelectContext(ctx, &handovers, query, args...); err != nil {
		return nil, 0, err
	}
	return handovers, total, nil
}

type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) LockHandover(ctx context.Context, id uuid.UUID) (*Handover, error) {
	var h Handover
	err := t.tx.GetContext(ctx, &h, `SELECT `+columns+` FROM handovers WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (t *sqlTx) LockLost(ctx context.Context, id uuid.UUID) (*item.LostItem, error) {
	var l item.LostItem
	err := t.tx.GetContext(ctx, &l, `
		SELECT id, user_id, category, title, description, lost_at, lost_place, reward, status,
			is_blinded, photo_url, thumb_url, created_at, updated_at
		FROM lost_items WHERE id = $1 FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *sqlTx) LockFound(ctx context.Context, id uuid.UUID) (*item.FoundItem, error) {
	var f item.FoundItem
	err := t.tx.GetContext(ctx, &f, `
		SELECT id, user_id, category, title, description, found_at, found_place, storage_type,
			storage_location, status, is_blinded, photo_url, thumb_url, created_at, updated_at
		FROM found_items WHERE id = $1 FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (t *sqlTx) ActiveByLost(ctx context.Context, lostID uuid.UUID) ([]*Handover, error) {
	var hs []*Handover
	err := t.tx.SelectContext(ctx, &hs, `SELECT `+columns+` FROM handovers WHERE lost_id = $1 AND status IN `+activeStatuses, lostID)
	return hs, err
}

func (t *sqlTx) ActiveByFound(ctx context.Context, foundID uuid.UUID) ([]*Handover, error) {
	var hs []*Handover
	err := t.tx.SelectContext(ctx, &hs, `
		SELECT `+columns+` FROM handovers WHERE found_id = $1 AND status IN `+activeStatuses+`
		ORDER BY created_at, id FOR UPDATE
	`, foundID)
	return hs, err
}

func (t *sqlTx) Create(ctx context.Context, h *Handover) error {
	query := `
		INSERT INTO handovers (id, lost_id, found_id, requester_id, responder_id, method, status,
			contact_disclosed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := t.tx.ExecContext(ctx, query,
		h.ID, h.LostID, h.FoundID, h.RequesterID, h.ResponderID, h.Method, h.Status,
		h.ContactDisclosed, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrActiveHandoverExists
		}
		return err
	}
	return nil
}

func (t *sqlTx) Update(ctx context.Context, h *Handover) error {
	query := `
		UPDATE handovers SET
			status = $2, schedule_at = $3, meet_place = $4, contact_disclosed = $5,
			accepted_at = $6, verified_at = $7, approved_at = $8, scheduled_at = $9,
			completed_at = $10, canceled_at = $11, canceled_by = $12, cancel_reason = $13,
			updated_at = $14
		WHERE id = $1
	`
	_, err := t.tx.ExecContext(ctx, query,
		h.ID, h.Status, h.ScheduleAt, h.MeetPlace, h.ContactDisclosed,
		h.AcceptedAt, h.VerifiedAt, h.ApprovedAt, h.ScheduledAt,
		h.CompletedAt, h.CanceledAt, h.CanceledBy, h.CancelReason,
		h.UpdatedAt,
	)
	return err
}

func (t *sqlTx) SetLostStatus(ctx context.Context, id uuid.UUID, status item.LostStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE lost_items SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (t *sqlTx) SetFoundStatus(ctx context.Context, id uuid.UUID, status item.FoundStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE found_items SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (t *sqlTx) AddNotification(ctx context.Context, n *notification.Notification) error {
	return notification.Insert(ctx, t.tx, n)
}
