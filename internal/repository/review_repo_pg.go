package repository

import (
	"context"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	ListByResource(ctx context.Context, resourceID int64) ([]domain.Review, error)
	Stats(ctx context.Context, resourceIDs []int64) (map[int64]domain.RatingStats, error)
	Flag(ctx context.Context, id int64, reason string) error
	Hide(ctx context.Context, id int64) error
}

type PGReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) ReviewRepository {
	return &PGReviewRepository{db: db}
}

const reviewColumns = `v.id, v.resource_id, v.reviewer_id, u.name, v.rating, v.comment, v.created_at, v.is_flagged, v.flag_reason, v.is_hidden`

func scanReview(row rowScanner) (*domain.Review, error) {
	var v domain.Review
	if err := row.Scan(&v.ID, &v.ResourceID, &v.ReviewerID, &v.ReviewerName, &v.Rating, &v.Comment, &v.Timestamp,
		&v.IsFlagged, &v.FlagReason, &v.IsHidden); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

// Create maps the (resource, reviewer) unique constraint to ErrConflict.
func (r *PGReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	err := r.db.QueryRow(ctx, `INSERT INTO reviews (resource_id, reviewer_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, review.ResourceID, review.ReviewerID, review.Rating, review.Comment).
		Scan(&review.ID, &review.Timestamp)
	return mapErr(err)
}

func (r *PGReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	return scanReview(r.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews v JOIN users u ON u.id = v.reviewer_id WHERE v.id=$1`, id))
}

func (r *PGReviewRepository) ListByResource(ctx context.Context, resourceID int64) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reviewColumns+` FROM reviews v JOIN users u ON u.id = v.reviewer_id
		WHERE v.resource_id=$1 AND NOT v.is_hidden ORDER BY v.created_at DESC`, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		v, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *v)
	}
	return reviews, rows.Err()
}

func (r *PGReviewRepository) Stats(ctx context.Context, resourceIDs []int64) (map[int64]domain.RatingStats, error) {
	out := make(map[int64]domain.RatingStats, len(resourceIDs))
	if len(resourceIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT resource_id, avg(rating)::float8, count(*) FROM reviews
		WHERE resource_id = ANY($1) AND NOT is_hidden GROUP BY resource_id`, resourceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			s  domain.RatingStats
		)
		if err := rows.Scan(&id, &s.Average, &s.Count); err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, rows.Err()
}

func (r *PGReviewRepository) Flag(ctx context.Context, id int64, reason string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE reviews SET is_flagged=true, flag_reason=$2 WHERE id=$1`, id, reason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGReviewRepository) Hide(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE reviews SET is_hidden=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
