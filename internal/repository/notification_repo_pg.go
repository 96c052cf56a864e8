package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, int, error)
	CountSince(ctx context.Context, userID int64, since *time.Time) (int, error)
	MarkSent(ctx context.Context, id int64) error
}

type PGNotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	err := r.db.QueryRow(ctx, `INSERT INTO notifications (user_id, channel, subject, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`, n.UserID, n.Channel, n.Subject, n.Body, n.Status).
		Scan(&n.ID, &n.CreatedAt)
	return mapErr(err)
}

func (r *PGNotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, user_id, channel, subject, body, status, created_at
		FROM notifications WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Channel, &n.Subject, &n.Body, &n.Status, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// CountSince counts everything when since is nil.
func (r *PGNotificationRepository) CountSince(ctx context.Context, userID int64, since *time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id=$1 AND ($2::timestamptz IS NULL OR created_at > $2)`,
		userID, since).Scan(&n)
	return n, err
}

func (r *PGNotificationRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE notifications SET status='sent' WHERE id=$1`, id)
	return err
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)
