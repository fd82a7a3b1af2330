package admin

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository reads aggregate counts for the dashboard
type Repository interface {
	UsersByRole(ctx context.Context) (map[string]int, error)
	BlockedUsers(ctx context.Context) (int, error)
	LostByStatus(ctx context.Context, p Period) (map[string]int, error)
	FoundByStatus(ctx context.Context, p Period) (map[string]int, error)
	HandoversByStatus(ctx context.Context, p Period) (map[string]int, error)
	AvgHoursToComplete(ctx context.Context, p Period) (float64, error)
	OpenReports(ctx context.Context) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates admin repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type groupCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

func (r *repository) groupBy(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	var rows []groupCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

// table is always one of the constants below
func (r *repository) statusInPeriod(ctx context.Context, table string, p Period) (map[string]int, error) {
	query := fmt.Sprintf(`
		SELECT status AS key, COUNT(*) AS count FROM %s
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY status
	`, table)
	out, err := r.groupBy(ctx, query, p.Start, p.Until())
	if err != nil {
		return nil, fmt.Errorf("admin repository %s by status: %w", table, err)
	}
	return out, nil
}

func (r *repository) UsersByRole(ctx context.Context) (map[string]int, error) {
	return r.groupBy(ctx, `SELECT role AS key, COUNT(*) AS count FROM users GROUP BY role`)
}

func (r *repository) BlockedUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE status = 'BLOCKED'`)
	return n, err
}

func (r *repository) LostByStatus(ctx context.Context, p Period) (map[string]int, error) {
	return r.statusInPeriod(ctx, "lost_items", p)
}

func (r *repository) FoundByStatus(ctx context.Context, p Period) (map[string]int, error) {
	return r.statusInPeriod(ctx, "found_items", p)
}

func (r *repository) HandoversByStatus(ctx context.Context, p Period) (map[string]int, error) {
	return r.statusInPeriod(ctx, "handovers", p)
}

// AvgHoursToComplete averages request to completion time of handovers completed in the period
func (r *repository) AvgHoursToComplete(ctx context.Context, p Period) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.GetContext(ctx, &avg, `
		SELECT AVG(EXTRACT(EPOCH FROM (completed_at - created_at)) / 3600)
		FROM handovers
		WHERE status = 'COMPLETED' AND completed_at >= $1 AND completed_at < $2
	`, p.Start, p.Until())
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

func (r *repository) OpenReports(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reports WHERE status = 'OPEN'`)
	return n, err
}
