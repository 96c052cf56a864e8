package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WaitlistRepository interface {
	Create(ctx context.Context, entry *domain.WaitlistEntry) error
	GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error)
	ListActiveByResource(ctx context.Context, resourceID int64) ([]domain.WaitlistEntry, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]domain.WaitlistEntry, error)
	HasActive(ctx context.Context, requesterID, resourceID int64, start, end time.Time) (bool, error)
	Cancel(ctx context.Context, id int64, at time.Time) error
	ExpireStartedBefore(ctx context.Context, deadline time.Time) ([]domain.WaitlistEntry, error)
	ResourcesWithActive(ctx context.Context) ([]int64, error)
}

type PGWaitlistRepository struct {
	db *pgxpool.Pool
}

func NewWaitlistRepository(db *pgxpool.Pool) WaitlistRepository {
	return &PGWaitlistRepository{db: db}
}

const waitlistColumns = `w.id, w.resource_id, w.requester_id, w.start_at, w.end_at, w.status, w.recurrence_rule,
	w.booking_id, w.processed_at, w.created_at, r.title`

const waitlistFrom = ` FROM waitlist_entries w JOIN resources r ON r.id = w.resource_id`

func scanWaitlist(row rowScanner) (*domain.WaitlistEntry, error) {
	var w domain.WaitlistEntry
	if err := row.Scan(&w.ID, &w.ResourceID, &w.RequesterID, &w.Start, &w.End, &w.Status, &w.RecurrenceRule,
		&w.BookingID, &w.ProcessedAt, &w.CreatedAt, &w.ResourceTitle); err != nil {
		return nil, mapErr(err)
	}
	w.Start, w.End = w.Start.UTC(), w.End.UTC()
	return &w, nil
}

func collectWaitlist(rows pgx.Rows) ([]domain.WaitlistEntry, error) {
	defer rows.Close()
	out := make([]domain.WaitlistEntry, 0)
	for rows.Next() {
		w, err := scanWaitlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *PGWaitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	entry.Status = domain.WaitlistStatusActive
	err := r.db.QueryRow(ctx, `INSERT INTO waitlist_entries (resource_id, requester_id, start_at, end_at, status, recurrence_rule)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`, entry.ResourceID, entry.RequesterID, entry.Start, entry.End, entry.Status, entry.RecurrenceRule).
		Scan(&entry.ID, &entry.CreatedAt)
	return mapErr(err)
}

func (r *PGWaitlistRepository) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	return scanWaitlist(r.db.QueryRow(ctx, `SELECT `+waitlistColumns+waitlistFrom+` WHERE w.id=$1`, id))
}

// ListActiveByResource returns entries in FIFO order.
func (r *PGWaitlistRepository) ListActiveByResource(ctx context.Context, resourceID int64) ([]domain.WaitlistEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+waitlistColumns+waitlistFrom+`
		WHERE w.resource_id=$1 AND w.status='active' ORDER BY w.created_at, w.id`, resourceID)
	if err != nil {
		return nil, err
	}
	return collectWaitlist(rows)
}

func (r *PGWaitlistRepository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.WaitlistEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+waitlistColumns+waitlistFrom+` WHERE w.requester_id=$1 ORDER BY w.created_at DESC`, requesterID)
	if err != nil {
		return nil, err
	}
	return collectWaitlist(rows)
}

func (r *PGWaitlistRepository) HasActive(ctx context.Context, requesterID, resourceID int64, start, end time.Time) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM waitlist_entries
		WHERE requester_id=$1 AND resource_id=$2 AND start_at=$3 AND end_at=$4 AND status='active')`,
		requesterID, resourceID, start, end).Scan(&ok)
	return ok, err
}

func (r *PGWaitlistRepository) Cancel(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE waitlist_entries SET status='cancelled', processed_at=$2
		WHERE id=$1 AND status='active'`, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *PGWaitlistRepository) ExpireStartedBefore(ctx context.Context, deadline time.Time) ([]domain.WaitlistEntry, error) {
	rows, err := r.db.Query(ctx, `WITH gone AS (
			UPDATE waitlist_entries SET status='cancelled', processed_at=now()
			WHERE status='active' AND start_at <= $1
			RETURNING id
		)
		SELECT `+waitlistColumns+waitlistFrom+` JOIN gone g ON g.id = w.id`, deadline)
	if err != nil {
		return nil, err
	}
	return collectWaitlist(rows)
}

func (r *PGWaitlistRepository) ResourcesWithActive(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT resource_id FROM waitlist_entries WHERE status='active' ORDER BY resource_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ WaitlistRepository = (*PGWaitlistRepository)(nil)
