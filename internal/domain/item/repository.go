package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuslf/lostfound-api/internal/pkg/pagination"
)

// Repository defines lost and found data access
type Repository interface {
	CreateLost(ctx context.Context, l *LostItem) error
	GetLost(ctx context.Context, id uuid.UUID) (*LostItem, error)
	ListLostByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*LostItem, int, error)
	ListOpenLost(ctx context.Context) ([]*LostItem, error)
	UpdateLost(ctx context.Context, l *LostItem) error
	DeleteLost(ctx context.Context, id uuid.UUID) error

	CreateFound(ctx context.Context, f *FoundItem) error
	GetFound(ctx context.Context, id uuid.UUID) (*FoundItem, error)
	ListFound(ctx context.Context, filter FoundFilter, sort FoundSort, page pagination.Params) ([]*FoundItem, int, error)
	ListFoundByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*FoundItem, int, error)
	ListAvailableFound(ctx context.Context) ([]*FoundItem, error)
	UpdateFound(ctx context.Context, f *FoundItem) error
	UpdateFoundStorage(ctx context.Context, f *FoundItem) error
	UpdateFoundStatus(ctx context.Context, id uuid.UUID, status FoundStatus) error
	DeleteFound(ctx context.Context, id uuid.UUID) error

	SetPhoto(ctx context.Context, kind Kind, id uuid.UUID, photoURL, thumbURL string) error
	CountHandovers(ctx context.Context, kind Kind, id uuid.UUID, activeOnly bool) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates item repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const lostColumns = `id, user_id, category, title, description, lost_at, lost_place, reward, status,
	is_blinded, photo_url, thumb_url, created_at, updated_at`

const foundColumns = `id, user_id, category, title, description, found_at, found_place, storage_type,
	storage_location, status, is_blinded, photo_url, thumb_url, created_at, updated_at`

func (r *repository) CreateLost(ctx context.Context, l *LostItem) error {
	query := `
		INSERT INTO lost_items (id, user_id, category, title, description, lost_at, lost_place, reward, status,
			is_blinded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.UserID, l.Category, l.Title, l.Description, l.LostAt, l.LostPlace, l.Reward, l.Status,
		l.IsBlinded, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("item repository create lost: %w", err)
	}
	return nil
}

func (r *repository) GetLost(ctx context.Context, id uuid.UUID) (*LostItem, error) {
	var l LostItem
	err := r.db.GetContext(ctx, &l, `SELECT `+lostColumns+` FROM lost_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) ListLostByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*LostItem, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lost_items WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + lostColumns + ` FROM lost_items
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	var items []*LostItem
	if err := r.db.SelectContext(ctx, &items, query, userID, page.Size, page.Offset()); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) ListOpenLost(ctx context.Context) ([]*LostItem, error) {
	query := `SELECT ` + lostColumns + ` FROM lost_items WHERE status = 'OPEN' AND is_blinded = FALSE`
	var items []*LostItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateLost(ctx context.Context, l *LostItem) error {
	query := `
		UPDATE lost_items
		SET category = $2, title = $3, description = $4, lost_at = $5, lost_place = $6, reward = $7, updated_at = NOW()
		WHERE id = $1 AND status = 'OPEN'
	`
	res, err := r.db.ExecContext(ctx, query, l.ID, l.Category, l.Title, l.Description, l.LostAt, l.LostPlace, l.Reward)
	if err != nil {
		return fmt.Errorf("item repository update lost: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// status moved under us
		return ErrLostNotEditable
	}
	return nil
}

func (r *repository) DeleteLost(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM lost_items WHERE id = $1`, id)
	return mapDeleteError(err)
}

func (r *repository) CreateFound(ctx context.Context, f *FoundItem) error {
	query := `
		INSERT INTO found_items (id, user_id, category, title, description, found_at, found_place, storage_type,
			storage_location, status, is_blinded, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.UserID, f.Category, f.Title, f.Description, f.FoundAt, f.FoundPlace, f.StorageType,
		f.StorageLocation, f.Status, f.IsBlinded, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("item repository create found: %w", err)
	}
	return nil
}

func (r *repository) GetFound(ctx context.Context, id uuid.UUID) (*FoundItem, error) {
	var f FoundItem
	err := r.db.GetContext(ctx, &f, `SELECT `+foundColumns+` FROM found_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *repository) ListFound(ctx context.Context, filter FoundFilter, sort FoundSort, page pagination.Params) ([]*FoundItem, int, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIndex := 1

	if !filter.IncludeBlinded {
		conditions = append(conditions, "is_blinded = FALSE")
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.IDs != nil {
		ids := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			ids[i] = id.String()
		}
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d::uuid[])", argIndex))
		args = append(args, pq.Array(ids))
		argIndex++
	} else if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR found_place ILIKE $%d)",
			argIndex, argIndex, argIndex,
		))
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		argIndex++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM found_items "+where, args...); err != nil {
		return nil, 0, err
	}

	var orderBy string
	switch sort {
	case SortCreatedAsc:
		orderBy = "ORDER BY created_at ASC, id"
	case SortFoundDesc:
		orderBy = "ORDER BY found_at DESC, id"
	case SortFoundAsc:
		orderBy = "ORDER BY found_at ASC, id"
	default:
		orderBy = "ORDER BY created_at DESC, id"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM found_items
		%s %s
		LIMIT $%d OFFSET $%d
	`, foundColumns, where, orderBy, argIndex, argIndex+1)
	args = append(args, page.Size, page.Offset())

	var items []*FoundItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) ListFoundByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]*FoundItem, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM found_items WHERE user_id = $1`, userID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + foundColumns + ` FROM found_items
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	var items []*FoundItem
	if err := r.db.SelectContext(ctx, &items, query, userID, page.Size, page.Offset()); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) ListAvailableFound(ctx context.Context) ([]*FoundItem, error) {
	query := `
		SELECT ` + foundColumns + ` FROM found_items
		WHERE status IN ('REGISTERED', 'STORED') AND is_blinded = FALSE
	`
	var items []*FoundItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateFound(ctx context.Context, f *FoundItem) error {
	query := `
		UPDATE found_items
		SET category = $2, title = $3, description = $4, found_at = $5, found_place = $6, updated_at = NOW()
		WHERE id = $1 AND status IN ('REGISTERED', 'STORED')
	`
	res, err := r.db.ExecContext(ctx, query, f.ID, f.Category, f.Title, f.Description, f.FoundAt, f.FoundPlace)
	if err != nil {
		return fmt.Errorf("item repository update found: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFoundInHandover
	}
	return nil
}

func (r *repository) UpdateFoundStorage(ctx context.Context, f *FoundItem) error {
	query := `
		UPDATE found_items
		SET storage_type = $2, storage_location = $3,
		    status = CASE WHEN status IN ('REGISTERED', 'STORED') THEN $4 ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.StorageType, f.StorageLocation, f.Status)
	return err
}

func (r *repository) UpdateFoundStatus(ctx context.Context, id uuid.UUID, status FoundStatus) error {
	query := `
		UPDATE found_items SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('REGISTERED', 'STORED')
	`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFoundInHandover
	}
	return nil
}

func (r *repository) DeleteFound(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM found_items WHERE id = $1`, id)
	return mapDeleteError(err)
}

func (r *repository) SetPhoto(ctx context.Context, kind Kind, id uuid.UUID, photoURL, thumbURL string) error {
	table := "lost_items"
	if kind == KindFound {
		table = "found_items"
	}
	query := `UPDATE ` + table + ` SET photo_url = $2, thumb_url = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, photoURL, thumbURL)
	return err
}

func (r *repository) CountHandovers(ctx context.Context, kind Kind, id uuid.UUID, activeOnly bool) (int, error) {
	column := "lost_id"
	if kind == KindFound {
		column = "found_id"
	}
	query := `SELECT COUNT(*) FROM handovers WHERE ` + column + ` = $1`
	if activeOnly {
		query += ` AND status NOT IN ('COMPLETED', 'CANCELED')`
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return 0, err
	}
	return n, nil
}

// mapDeleteError turns a foreign key violation (23503) into a conflict
func mapDeleteError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrHasHandoverHistory
	}
	return err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
