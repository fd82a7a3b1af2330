package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

// Repository defines report data access
type Repository interface {
	// InTx runs fn in one transaction. Any error rolls everything back.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	GetByReporterTarget(ctx context.Context, reporterID uuid.UUID, target TargetType, targetID uuid.UUID) (*Report, error)
	List(ctx context.Context, status ReportStatus, page pagination.Params) ([]*Report, int, error)
}

// Tx is the unit of work of a moderation decision
type Tx interface {
	LockReport(ctx context.Context, id uuid.UUID) (*Report, error)
	Resolve(ctx context.Context, r *Report) error
	// SetBlinded returns ErrTargetNotFound when no row matches.
	SetBlinded(ctx context.Context, target TargetType, id uuid.UUID, blinded bool) error
	AddNotification(ctx context.Context, n *notification.Notification) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates moderation repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const columns = `id, target_type, target_id, reporter_id, reason, status, action, admin_note, resolved_by, resolved_at, created_at`

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

func (r *repository) Create(ctx context.Context, rep *Report) error {
	query := `
		INSERT INTO reports (id, target_type, target_id, reporter_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.TargetType, rep.TargetID, rep.ReporterID, rep.Reason, rep.Status, rep.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReport
		}
		return fmt.Errorf("moderation repository create report: %w", err)
	}
	return nil
}

func (r *repository) get(ctx context.Context, query string, args ...interface{}) (*Report, error) {
	var rep Report
	if err := r.db.GetContext(ctx, &rep, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return r.get(ctx, `SELECT `+columns+` FROM reports WHERE id = $1`, id)
}

func (r *repository) GetByReporterTarget(ctx context.Context, reporterID uuid.UUID, target TargetType, targetID uuid.UUID) (*Report, error) {
	return r.get(ctx, `
		SELECT `+columns+` FROM reports
		WHERE reporter_id = $1 AND target_type = $2 AND target_id = $3
	`, reporterID, target, targetID)
}

// List returns reports newest first. An empty status lists every report.
func (r *repository) List(ctx context.Context, status ReportStatus, page pagination.Params) ([]*Report, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reports `+whereSQL, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM reports %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		columns, whereSQL, len(args)-1, len(args))

	var reports []*Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) LockReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	var rep Report
	err := t.tx.GetContext(ctx, &rep, `SELECT `+columns+` FROM reports WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rep, nil
}

func (t *sqlTx) Resolve(ctx context.Context, rep *Report) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE reports
		SET status = $2, action = $3, admin_note = $4, resolved_by = $5, resolved_at = $6
		WHERE id = $1
	`, rep.ID, rep.Status, rep.Action, rep.AdminNote, rep.ResolvedBy, rep.ResolvedAt)
	return err
}

var blindTables = map[TargetType]string{
	TargetLost:    "lost_items",
	TargetFound:   "found_items",
	TargetMessage: "messages",
}

func (t *sqlTx) SetBlinded(ctx context.Context, target TargetType, id uuid.UUID, blinded bool) error {
	table, ok := blindTables[target]
	if !ok {
		return ErrInvalidTarget
	}
	query := `UPDATE ` + table + ` SET is_blinded = $2 WHERE id = $1`
	if target != TargetMessage {
		query = `UPDATE ` + table + ` SET is_blinded = $2, updated_at = NOW() WHERE id = $1`
	}

	res, err := t.tx.ExecContext(ctx, query, id, blinded)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTargetNotFound
	}
	return nil
}

func (t *sqlTx) AddNotification(ctx context.Context, n *notification.Notification) error {
	return notification.Insert(ctx, t.tx, n)
}
