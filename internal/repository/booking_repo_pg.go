package repository

import (
	"context"
	"slices"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Decision struct {
	By    int64
	Notes string
	At    time.Time
}

type ResourceCount struct {
	ResourceID int64
	Title      string
	Count      int
}

type BookingRepository interface {
	CreateMany(ctx context.Context, bookings []*domain.Booking) error
	CreatePromoted(ctx context.Context, bookings []*domain.Booking, entryID int64, at time.Time) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Transition(ctx context.Context, id int64, from, to domain.BookingStatus, decision *Decision) (*domain.Booking, error)
	ListActiveOverlapping(ctx context.Context, resourceID int64, from, to time.Time) ([]domain.Booking, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]domain.Booking, error)
	ListByResource(ctx context.Context, resourceID int64) ([]domain.Booking, error)
	ListPendingForOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error)
	CompleteEndedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	BusyIntervals(ctx context.Context, resourceIDs []int64, after time.Time) (map[int64][]domain.Interval, error)
	StatsForUser(ctx context.Context, userID int64, now time.Time) (domain.BookingStats, error)
	MostRequested(ctx context.Context, limit int) ([]ResourceCount, error)
	HasCompleted(ctx context.Context, userID, resourceID int64) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `b.id, b.token, b.resource_id, b.requester_id, b.start_at, b.end_at, b.status, b.recurrence_rule,
	b.decision_notes, b.decision_by, b.decision_at, b.created_at, b.updated_at, r.title, r.category, u.name`

const bookingFrom = ` FROM bookings b JOIN resources r ON r.id = b.resource_id JOIN users u ON u.id = b.requester_id`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Token, &b.ResourceID, &b.RequesterID, &b.Start, &b.End, &b.Status, &b.RecurrenceRule,
		&b.DecisionNotes, &b.DecisionBy, &b.DecisionAt, &b.CreatedAt, &b.UpdatedAt,
		&b.ResourceTitle, &b.ResourceCategory, &b.RequesterName); err != nil {
		return nil, mapErr(err)
	}
	b.Start, b.End = b.Start.UTC(), b.End.UTC()
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	out := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateMany inserts every occurrence in one transaction.
func (r *PGBookingRepository) CreateMany(ctx context.Context, bookings []*domain.Booking) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return insertGuarded(ctx, tx, bookings)
	})
}

// CreatePromoted books a waitlist entry and marks it promoted in the same
// transaction, so neither write survives without the other.
func (r *PGBookingRepository) CreatePromoted(ctx context.Context, bookings []*domain.Booking, entryID int64, at time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := insertGuarded(ctx, tx, bookings); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, markPromotedSQL, entryID, bookings[0].ID, at)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

func (r *PGBookingRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const (
	resourceLockSQL = `SELECT pg_advisory_xact_lock($1)`

	overlapSQL = `SELECT id FROM bookings
		WHERE resource_id=$1 AND status IN ('pending', 'approved') AND start_at < $3 AND end_at > $2
		ORDER BY id`

	insertBookingSQL = `INSERT INTO bookings (token, resource_id, requester_id, start_at, end_at, status, recurrence_rule)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	markPromotedSQL = `UPDATE waitlist_entries SET status='promoted', booking_id=$2, processed_at=$3
		WHERE id=$1 AND status='active'`
)

// insertGuarded holds a transaction-scoped advisory lock on the resource and
// repeats the buffered overlap check before inserting. Writers of one
// resource are serialised here even when the redis lock is unavailable.
func insertGuarded(ctx context.Context, tx pgx.Tx, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	resourceID := bookings[0].ResourceID
	if _, err := tx.Exec(ctx, resourceLockSQL, resourceID); err != nil {
		return err
	}

	var bufferMinutes int
	if err := tx.QueryRow(ctx, `SELECT buffer_minutes FROM resources WHERE id=$1`, resourceID).Scan(&bufferMinutes); err != nil {
		return mapErr(err)
	}
	buffer := time.Duration(bufferMinutes) * time.Minute

	var conflicts []int64
	for _, b := range bookings {
		from, to := guardWindow(b.Interval(), buffer)
		ids, err := overlappingIDs(ctx, tx, resourceID, from, to)
		if err != nil {
			return err
		}
		conflicts = appendUnique(conflicts, ids...)
	}
	if len(conflicts) > 0 {
		return &domain.ConflictError{BookingIDs: conflicts}
	}

	for _, b := range bookings {
		if err := tx.QueryRow(ctx, insertBookingSQL, b.Token, b.ResourceID, b.RequesterID, b.Start, b.End, b.Status, b.RecurrenceRule).
			Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

// guardWindow widens iv by the buffer on both sides. A stored booking
// conflicts when it starts before the widened end and ends after the
// widened start.
func guardWindow(iv domain.Interval, buffer time.Duration) (time.Time, time.Time) {
	return iv.Start.Add(-buffer), iv.End.Add(buffer)
}

func overlappingIDs(ctx context.Context, tx pgx.Tx, resourceID int64, from, to time.Time) ([]int64, error) {
	rows, err := tx.Query(ctx, overlapSQL, resourceID, from, to)
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

func appendUnique(ids []int64, more ...int64) []int64 {
	for _, id := range more {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+bookingFrom+` WHERE b.id=$1`, id))
}

// Transition updates the status only when the row is still in from.
func (r *PGBookingRepository) Transition(ctx context.Context, id int64, from, to domain.BookingStatus, decision *Decision) (*domain.Booking, error) {
	var (
		by    *int64
		notes string
		at    *time.Time
	)
	if decision != nil {
		by, notes, at = &decision.By, decision.Notes, &decision.At
	}
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1,
			decision_by=COALESCE($2, decision_by),
			decision_notes=CASE WHEN $2::bigint IS NULL THEN decision_notes ELSE $3 END,
			decision_at=COALESCE($4, decision_at),
			updated_at=now()
		WHERE id=$5 AND status=$6`, to, by, notes, at, id, from)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidTransition
	}
	return r.GetByID(ctx, id)
}

func (r *PGBookingRepository) ListActiveOverlapping(ctx context.Context, resourceID int64, from, to time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+bookingFrom+`
		WHERE b.resource_id=$1 AND b.status IN ('pending', 'approved') AND b.start_at < $3 AND b.end_at > $2
		ORDER BY b.start_at`, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) ListByRequester(ctx context.Context, requesterID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+bookingFrom+` WHERE b.requester_id=$1 ORDER BY b.start_at DESC`, requesterID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) ListByResource(ctx context.Context, resourceID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+bookingFrom+` WHERE b.resource_id=$1 ORDER BY b.start_at`, resourceID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) ListPendingForOwner(ctx context.Context, ownerID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+bookingFrom+`
		WHERE r.owner_id=$1 AND b.status='pending' ORDER BY b.start_at`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) CompleteEndedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `WITH done AS (
			UPDATE bookings SET status='completed', updated_at=now()
			WHERE status='approved' AND end_at <= $1
			RETURNING id
		)
		SELECT `+bookingColumns+bookingFrom+` JOIN done d ON d.id = b.id`, deadline)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) BusyIntervals(ctx context.Context, resourceIDs []int64, after time.Time) (map[int64][]domain.Interval, error) {
	out := make(map[int64][]domain.Interval)
	if len(resourceIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT resource_id, start_at, end_at FROM bookings
		WHERE resource_id = ANY($1) AND status IN ('pending', 'approved') AND end_at > $2
		ORDER BY start_at`, resourceIDs, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			iv domain.Interval
		)
		if err := rows.Scan(&id, &iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out[id] = append(out[id], domain.Interval{Start: iv.Start.UTC(), End: iv.End.UTC()})
	}
	return out, rows.Err()
}

func (r *PGBookingRepository) StatsForUser(ctx context.Context, userID int64, now time.Time) (domain.BookingStats, error) {
	var stats domain.BookingStats
	err := r.db.QueryRow(ctx, `SELECT
			count(*),
			count(*) FILTER (WHERE status IN ('pending', 'approved') AND start_at > $2),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'cancelled')
		FROM bookings WHERE requester_id=$1`, userID, now).
		Scan(&stats.Total, &stats.Upcoming, &stats.Completed, &stats.Pending, &stats.Cancelled)
	if err != nil {
		return stats, err
	}

	err = r.db.QueryRow(ctx, `SELECT r.category FROM bookings b JOIN resources r ON r.id = b.resource_id
		WHERE b.requester_id=$1 GROUP BY r.category ORDER BY count(*) DESC, r.category LIMIT 1`, userID).
		Scan(&stats.MostUsedCategory)
	if err != nil && mapErr(err) != domain.ErrNotFound {
		return stats, err
	}
	return stats, nil
}

func (r *PGBookingRepository) MostRequested(ctx context.Context, limit int) ([]ResourceCount, error) {
	rows, err := r.db.Query(ctx, `SELECT r.id, r.title, count(b.id) FROM resources r
		JOIN bookings b ON b.resource_id = r.id
		WHERE b.status IN ('pending', 'approved', 'completed')
		GROUP BY r.id, r.title ORDER BY count(b.id) DESC, r.id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResourceCount
	for rows.Next() {
		var c ResourceCount
		if err := rows.Scan(&c.ResourceID, &c.Title, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGBookingRepository) HasCompleted(ctx context.Context, userID, resourceID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE requester_id=$1 AND resource_id=$2 AND status='completed')`,
		userID, resourceID).Scan(&ok)
	return ok, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
