package repository

import (
	"context"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminLogRepository interface {
	Create(ctx context.Context, entry *domain.AdminLog) error
	List(ctx context.Context, limit int) ([]domain.AdminLog, error)
}

type PGAdminLogRepository struct {
	db *pgxpool.Pool
}

func NewAdminLogRepository(db *pgxpool.Pool) AdminLogRepository {
	return &PGAdminLogRepository{db: db}
}

func (r *PGAdminLogRepository) Create(ctx context.Context, entry *domain.AdminLog) error {
	return r.db.QueryRow(ctx, `INSERT INTO admin_logs (admin_id, action, target_table, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, entry.AdminID, entry.Action, entry.TargetTable, entry.Details).
		Scan(&entry.ID, &entry.CreatedAt)
}

func (r *PGAdminLogRepository) List(ctx context.Context, limit int) ([]domain.AdminLog, error) {
	rows, err := r.db.Query(ctx, `SELECT id, admin_id, action, target_table, details, created_at
		FROM admin_logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AdminLog, 0)
	for rows.Next() {
		var l domain.AdminLog
		if err := rows.Scan(&l.ID, &l.AdminID, &l.Action, &l.TargetTable, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

var _ AdminLogRepository = (*PGAdminLogRepository)(nil)
