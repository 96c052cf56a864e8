package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetSuspended(ctx context.Context, id int64, suspended bool) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	NotificationsSeenAt(ctx context.Context, id int64) (*time.Time, error)
	MarkNotificationsSeen(ctx context.Context, id int64, at time.Time) error
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, department, is_suspended, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Department, &u.IsSuspended, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role, department)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`, user.Name, user.Email, user.PasswordHash, user.Role, user.Department).
		Scan(&user.ID, &user.CreatedAt)
	return mapErr(err)
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email))
}

func (r *PGUserRepository) SetSuspended(ctx context.Context, id int64, suspended bool) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `UPDATE users SET is_suspended=$1 WHERE id=$2 RETURNING `+userColumns, suspended, id))
}

func (r *PGUserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PGUserRepository) NotificationsSeenAt(ctx context.Context, id int64) (*time.Time, error) {
	var seen *time.Time
	if err := r.db.QueryRow(ctx, `SELECT notifications_seen_at FROM users WHERE id=$1`, id).Scan(&seen); err != nil {
		return nil, mapErr(err)
	}
	return seen, nil
}

func (r *PGUserRepository) MarkNotificationsSeen(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET notifications_seen_at=$1 WHERE id=$2`, at, id)
	return err
}

var _ UserRepository = (*PGUserRepository)(nil)
